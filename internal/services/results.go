package services

import "github.com/csmith1188/digipogs/internal/rateguard"

// Result is the caller-visible outcome of a ledger operation. Failures carry
// user-safe messages only; raw errors stay in the logs.
type Result struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RateLimited bool   `json:"rateLimited,omitempty"`
	WaitTime    int    `json:"waitTime,omitempty"`
}

func success(msg string) Result { return Result{Success: true, Message: msg} }
func failure(msg string) Result { return Result{Message: msg} }

func limited(r rateguard.Result) Result {
	return Result{Message: r.Message, RateLimited: true, WaitTime: r.WaitTime}
}
