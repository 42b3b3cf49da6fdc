/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package executor

// State is the progress of a request.
//
//	Received -> Validated -> Resolving -> Completed
//	    |           |            |
//	    +-----------+------------+------> Failed
//
// Rate limiting, context assembly and validation happen in Received. A request that fails any of
// them never reaches a resolver.
type State uint8

// Enumeration of State
const (
	StateReceived State = iota
	StateValidated
	StateResolving
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateValidated:
		return "validated"
	case StateResolving:
		return "resolving"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateReceived:  {StateValidated, StateFailed},
	StateValidated: {StateResolving, StateFailed},
	StateResolving: {StateCompleted, StateFailed},
}

// CanTransitionTo returns true if s may be followed by next.
func (s State) CanTransitionTo(next State) bool {
	for _, state := range transitions[s] {
		if state == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true for Completed and Failed.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}
