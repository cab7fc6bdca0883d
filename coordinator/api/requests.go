package api

import "errors"

var errInvalidRound = errors.New("round must be a positive integer")

type roundReq struct {
	round int
}

func (r *roundReq) validate() error {
	if r.round < 1 {
		return errInvalidRound
	}

	return nil
}
