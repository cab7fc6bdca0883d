package api

import (
	"net/http"

	"github.com/absmach/fedfraud/coordinator"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*statusResponse)(nil)
	_ supermq.Response = (*listRoundsResponse)(nil)
	_ supermq.Response = (*roundResponse)(nil)
	_ supermq.Response = (*bestResponse)(nil)
)

type statusResponse struct {
	coordinator.Status
}

func (s statusResponse) Code() int {
	return http.StatusOK
}

func (s statusResponse) Headers() map[string]string {
	return map[string]string{}
}

func (s statusResponse) Empty() bool {
	return false
}

type listRoundsResponse struct {
	Total  int              `json:"total"`
	Rounds []fl.RoundResult `json:"rounds"`
}

func (l listRoundsResponse) Code() int {
	return http.StatusOK
}

func (l listRoundsResponse) Headers() map[string]string {
	return map[string]string{}
}

func (l listRoundsResponse) Empty() bool {
	return false
}

type roundResponse struct {
	fl.RoundResult
}

func (r roundResponse) Code() int {
	return http.StatusOK
}

func (r roundResponse) Headers() map[string]string {
	return map[string]string{}
}

func (r roundResponse) Empty() bool {
	return false
}

type bestResponse struct {
	coordinator.Best
}

func (b bestResponse) Code() int {
	return http.StatusOK
}

func (b bestResponse) Headers() map[string]string {
	return map[string]string{}
}

func (b bestResponse) Empty() bool {
	return false
}
