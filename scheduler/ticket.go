package scheduler

import (
	"github.com/sagentic-ai/sagentic-af/provider"
)

// ticket is a queued request inside a Scheduler, carrying its own
// resolve/reject continuation in the form of a buffered result channel.
type ticket struct {
	id      uint64
	tokens  int
	retries int
	request *provider.Request

	done chan ticketResult
}

type ticketResult struct {
	resp *provider.Response
	err  error
}

func newTicket(id uint64, tokens int, req *provider.Request) *ticket {
	return &ticket{id: id, tokens: tokens, request: req, done: make(chan ticketResult, 1)}
}

func (t *ticket) resolve(resp *provider.Response) {
	t.done <- ticketResult{resp: resp}
}

func (t *ticket) reject(err error) {
	t.done <- ticketResult{err: err}
}
