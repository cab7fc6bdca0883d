package scheduler

import "github.com/absmach/fedfraud/pkg/transport"

type roundRobin struct {
	fraction float64
	minimum  int
}

// NewRoundRobin samples k = max(floor(n*fraction), minimum) clients, capped
// at n. Consecutive rounds start k positions further along so every client
// gets its turn.
func NewRoundRobin(fraction float64, minimum int) (Scheduler, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, ErrInvalidFraction
	}

	return &roundRobin{
		fraction: fraction,
		minimum:  minimum,
	}, nil
}

func (r *roundRobin) Select(round int, clients []transport.Client) ([]transport.Client, error) {
	n := len(clients)
	if n == 0 {
		return nil, ErrNoClient
	}

	k := min(max(int(float64(n)*r.fraction), r.minimum), n)
	if k == n {
		return clients, nil
	}

	start := ((max(round, 1) - 1) * k) % n
	picked := make([]bool, n)
	for i := range k {
		picked[(start+i)%n] = true
	}

	participants := make([]transport.Client, 0, k)
	for i, c := range clients {
		if picked[i] {
			participants = append(participants, c)
		}
	}

	return participants, nil
}
