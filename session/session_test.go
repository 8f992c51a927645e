package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sagentic-ai/sagentic-af/clientmux"
	"github.com/sagentic-ai/sagentic-af/ledger"
	"github.com/sagentic-ai/sagentic-af/provider"
)

const testModel = "stub-model"

type stubAdapter struct {
	promptTokens, completionTokens int
}

func (a *stubAdapter) Complete(ctx context.Context, req *provider.Request) (*provider.Response, provider.Headers, error) {
	return &provider.Response{
		Usage:    provider.Usage{PromptTokens: a.promptTokens, CompletionTokens: a.completionTokens},
		Messages: []provider.Message{{Role: provider.RoleAssistant, Text: "ok"}},
	}, provider.Headers{}, nil
}

func (a *stubAdapter) ClassifyError(err error) provider.RetryClass { return provider.ClassUnknown }

func newTestMux() *clientmux.Mux {
	return clientmux.New(map[string]string{"stub": "key"}, clientmux.Options{
		ClientTypes: map[string]clientmux.AdapterCtor{
			"stub": func(modelID, apiKey string) (provider.Adapter, error) {
				return &stubAdapter{promptTokens: 1, completionTokens: 1}, nil
			},
		},
		Models: []clientmux.ModelConfig{
			{ModelID: testModel, ClientKind: "stub", ProviderKey: "stub", TokenPoolMax: 100_000, RequestPoolMax: 1000},
		},
	})
}

func TestInvokeModel_RecordsLedgerEntry(t *testing.T) {
	s := New(Options{Clients: newTestMux(), Budget: 1.0})
	defer s.Abort()

	msg, err := s.InvokeModel(context.Background(), "caller-1", testModel, nil, provider.RequestOptions{})
	require.NoError(t, err)
	require.Equal(t, "ok", msg.Text)
	require.Len(t, s.Ledger().Entries(), 1)
}

func TestInvokeModel_FailsAfterAbort(t *testing.T) {
	s := New(Options{Clients: newTestMux()})
	s.Abort()

	_, err := s.InvokeModel(context.Background(), "caller-1", testModel, nil, provider.RequestOptions{})
	require.ErrorIs(t, err, ErrSessionAborted)
}

func TestAbort_DoesNotPanicWhenRacingInvokeModel(t *testing.T) {
	s := New(Options{Clients: newTestMux()})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = s.InvokeModel(context.Background(), "caller-1", testModel, nil, provider.RequestOptions{})
	}()
	go func() {
		defer wg.Done()
		s.Abort()
	}()

	require.NotPanics(t, wg.Wait)
}

// TestConcurrentBudgetExceeded is end-to-end scenario 7: budget 0.01 USD, a
// handler that waits 100ms then returns budget*100. One priming call pushes
// cost over budget; three concurrent invokeModel calls after that all
// succeed and the handler runs exactly once.
func TestConcurrentBudgetExceeded(t *testing.T) {
	t.Parallel()

	var handlerCalls atomic.Int64
	pricing := ledger.Pricing{PromptUSDPer1M: 10_000, CompletionUSDPer1M: 10_000}

	s := New(Options{
		Clients: newTestMux(),
		Budget:  0.01,
		Pricing: func(string) ledger.Pricing { return pricing },
		BudgetHandler: func(ctx context.Context, totalCost, budget float64, next []provider.Message, sess *Session) (float64, error) {
			handlerCalls.Add(1)
			time.Sleep(100 * time.Millisecond)
			return budget * 100, nil
		},
	})
	defer s.Abort()

	// Priming call: its cost (0.02) lands after the check passes (totalCost
	// starts at 0), pushing totalCost over the 0.01 budget for every call
	// that follows.
	_, err := s.InvokeModel(context.Background(), "primer", testModel, nil, provider.RequestOptions{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.InvokeModel(context.Background(), "concurrent", testModel, nil, provider.RequestOptions{})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, handlerCalls.Load())
}

func TestCheckBudgetAndHandle_FailsWhenStillOverAfterHandler(t *testing.T) {
	s := New(Options{
		Clients: newTestMux(),
		Budget:  0.01,
		Pricing: func(string) ledger.Pricing {
			return ledger.Pricing{PromptUSDPer1M: 1_000_000, CompletionUSDPer1M: 1_000_000}
		},
		BudgetHandler: func(ctx context.Context, totalCost, budget float64, next []provider.Message, sess *Session) (float64, error) {
			return budget, nil // no real increase: still over budget afterward
		},
	})
	defer s.Abort()

	_, err := s.InvokeModel(context.Background(), "primer", testModel, nil, provider.RequestOptions{})
	require.NoError(t, err)

	_, err = s.InvokeModel(context.Background(), "caller", testModel, nil, provider.RequestOptions{})
	require.ErrorIs(t, err, ErrBudgetExceeded)
}
