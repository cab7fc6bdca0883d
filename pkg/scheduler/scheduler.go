// Package scheduler picks which registered clients take part in a round.
package scheduler

import (
	"errors"

	"github.com/absmach/fedfraud/pkg/transport"
)

var (
	ErrNoClient        = errors.New("no client was provided")
	ErrInvalidFraction = errors.New("fraction must be in (0, 1]")
)

type Scheduler interface {
	// Select returns the participants for round, in registration order.
	Select(round int, clients []transport.Client) ([]transport.Client, error)
}
