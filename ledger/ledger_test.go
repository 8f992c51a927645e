package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdd_AccumulatesTokensAndCost(t *testing.T) {
	l := New()
	pricing := Pricing{PromptUSDPer1M: 1_000_000, CompletionUSDPer1M: 2_000_000}
	timing := Timing{Start: time.Now(), End: time.Now()}

	l.Add("caller-1", "model-a", timing, 10, 5, pricing)
	l.Add("caller-1", "model-a", timing, 20, 10, pricing)

	require.Equal(t, 45.0, l.TotalTokens().Total)
	require.InDelta(t, 10+20+2*(5+10), l.TotalCost(), 0.0001)
	require.Len(t, l.Entries(), 2)
}

func TestOnEntry_UnsubscribeThenAddDoesNotPanic(t *testing.T) {
	l := New()

	var calls int
	unsubscribe := l.OnEntry(func(Entry) { calls++ })
	unsubscribe()

	require.NotPanics(t, func() {
		l.Add("caller-1", "model-a", Timing{Start: time.Now(), End: time.Now()}, 1, 1, Pricing{})
	})
	require.Zero(t, calls)
}

func TestOnEntry_SurvivingSubscriberStillNotifiedAfterSiblingUnsubscribes(t *testing.T) {
	l := New()

	var unsubscribedCalls, liveCalls int
	unsubscribe := l.OnEntry(func(Entry) { unsubscribedCalls++ })
	l.OnEntry(func(Entry) { liveCalls++ })
	unsubscribe()

	l.Add("caller-1", "model-a", Timing{Start: time.Now(), End: time.Now()}, 1, 1, Pricing{})

	require.Zero(t, unsubscribedCalls)
	require.Equal(t, 1, liveCalls)
}

func TestTimespan_EmptyLedger(t *testing.T) {
	l := New()
	_, _, ok := l.Timespan()
	require.False(t, ok)
}

func TestTimespan_SpansAllEntries(t *testing.T) {
	l := New()
	t0 := time.Now()
	l.Add("c", "m", Timing{Start: t0, End: t0.Add(time.Second)}, 1, 1, Pricing{})
	l.Add("c", "m", Timing{Start: t0.Add(-time.Minute), End: t0.Add(time.Minute)}, 1, 1, Pricing{})

	start, end, ok := l.Timespan()
	require.True(t, ok)
	require.True(t, start.Equal(t0.Add(-time.Minute)))
	require.True(t, end.Equal(t0.Add(time.Minute)))
}
