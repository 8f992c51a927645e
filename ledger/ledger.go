// Package ledger implements the append-only cost/token accounting log kept
// by a Session.
package ledger

import (
	"sync"
	"time"
)

// PCT is a (prompt, completion, total) triple used uniformly for token
// counts and cost.
type PCT struct {
	Prompt     float64
	Completion float64
	Total      float64
}

// Timing records when one model invocation started and ended.
type Timing struct {
	Start time.Time
	End   time.Time
}

// Entry is one recorded model invocation.
type Entry struct {
	CallerID string
	Timing   Timing
	ModelID  string
	Tokens   PCT
	Cost     PCT
}

// EntrySubscriber is notified after every Add.
type EntrySubscriber func(Entry)

// Ledger is the append-only accounting log owned by a Session.
type Ledger struct {
	mu      sync.RWMutex
	entries []Entry

	totalTokens, totalCost PCT
	byModelTokens          map[string]PCT
	byModelCost            map[string]PCT
	byCallerTokens         map[string]PCT
	byCallerCost           map[string]PCT

	subscribers []EntrySubscriber
}

// New constructs an empty Ledger.
func New() *Ledger {
	return &Ledger{
		byModelTokens:  make(map[string]PCT),
		byModelCost:    make(map[string]PCT),
		byCallerTokens: make(map[string]PCT),
		byCallerCost:   make(map[string]PCT),
	}
}

// Pricing is USD per 1,000,000 tokens, applied separately to prompt and
// completion counts.
type Pricing struct {
	PromptUSDPer1M     float64
	CompletionUSDPer1M float64
}

// Add records one invocation, deriving cost from tokens and pricing, and
// notifies subscribers registered via OnEntry.
func (l *Ledger) Add(callerID, modelID string, timing Timing, promptTokens, completionTokens int, pricing Pricing) Entry {
	tokens := PCT{
		Prompt:     float64(promptTokens),
		Completion: float64(completionTokens),
	}
	tokens.Total = tokens.Prompt + tokens.Completion

	cost := PCT{
		Prompt:     tokens.Prompt / 1_000_000 * pricing.PromptUSDPer1M,
		Completion: tokens.Completion / 1_000_000 * pricing.CompletionUSDPer1M,
	}
	cost.Total = cost.Prompt + cost.Completion

	entry := Entry{CallerID: callerID, Timing: timing, ModelID: modelID, Tokens: tokens, Cost: cost}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.totalTokens = addPCT(l.totalTokens, tokens)
	l.totalCost = addPCT(l.totalCost, cost)
	l.byModelTokens[modelID] = addPCT(l.byModelTokens[modelID], tokens)
	l.byModelCost[modelID] = addPCT(l.byModelCost[modelID], cost)
	l.byCallerTokens[callerID] = addPCT(l.byCallerTokens[callerID], tokens)
	l.byCallerCost[callerID] = addPCT(l.byCallerCost[callerID], cost)
	subs := append([]EntrySubscriber(nil), l.subscribers...)
	l.mu.Unlock()

	for _, sub := range subs {
		if sub != nil {
			sub(entry)
		}
	}
	return entry
}

func addPCT(a, b PCT) PCT {
	return PCT{Prompt: a.Prompt + b.Prompt, Completion: a.Completion + b.Completion, Total: a.Total + b.Total}
}

// OnEntry registers a subscriber invoked (in Add's calling goroutine, after
// the entry is durably recorded) for every new entry. It returns an
// unsubscribe function.
func (l *Ledger) OnEntry(sub EntrySubscriber) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, sub)
	idx := len(l.subscribers) - 1
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if idx < len(l.subscribers) {
			l.subscribers[idx] = nil
		}
	}
}

// TotalCost returns the running total cost across all entries.
func (l *Ledger) TotalCost() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalCost.Total
}

// TotalTokens returns the running total token count across all entries.
func (l *Ledger) TotalTokens() PCT {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalTokens
}

// Entries returns a copy of every recorded entry, in append order.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

// Timespan returns the earliest start and latest end across all entries. ok
// is false if the ledger is empty.
func (l *Ledger) Timespan() (start, end time.Time, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end = l.entries[0].Timing.Start, l.entries[0].Timing.End
	for _, e := range l.entries[1:] {
		if e.Timing.Start.Before(start) {
			start = e.Timing.Start
		}
		if e.Timing.End.After(end) {
			end = e.Timing.End
		}
	}
	return start, end, true
}
