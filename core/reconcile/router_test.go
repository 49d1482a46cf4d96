package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ledger-reconciler/core/amount"
	"ledger-reconciler/core/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRouter(t *testing.T) {
	noop := func(context.Context, Payload) error { return nil }
	table := map[string]Handler{"persona-report": noop, "voting-report": noop}

	t.Run("AllQueues", func(t *testing.T) {
		r, err := NewRouter(table)
		require.NoError(t, err)
		assert.Equal(t, []string{"persona-report", "voting-report"}, r.Queues())
	})

	t.Run("SelectedQueues", func(t *testing.T) {
		r, err := NewRouter(table, "voting-report")
		require.NoError(t, err)
		assert.Equal(t, []string{"voting-report"}, r.Queues())
		assert.False(t, r.Handles("persona-report"))
	})

	t.Run("UnregisteredQueue", func(t *testing.T) {
		_, err := NewRouter(table, "voting-report", "tip-report")
		assert.ErrorIs(t, err, ErrUnregisteredQueue)
		assert.Contains(t, err.Error(), "tip-report")
	})

	t.Run("EmptyTable", func(t *testing.T) {
		_, err := NewRouter(nil)
		assert.ErrorIs(t, err, ErrUnregisteredQueue)
	})

	t.Run("NilHandler", func(t *testing.T) {
		_, err := NewRouter(map[string]Handler{"persona-report": nil})
		assert.ErrorIs(t, err, ErrUnregisteredQueue)
	})
}

func TestRouter_TableIsCopied(t *testing.T) {
	noop := func(context.Context, Payload) error { return nil }
	table := map[string]Handler{"persona-report": noop}

	r, err := NewRouter(table)
	require.NoError(t, err)

	table["tip-report"] = noop
	assert.False(t, r.Handles("tip-report"))
}

func TestRouter_Dispatch(t *testing.T) {
	var got Payload
	table := map[string]Handler{
		"persona-report": func(_ context.Context, p Payload) error {
			got = p
			return nil
		},
		"grant-report": func(context.Context, Payload) error {
			return fmt.Errorf("%w: grantId", ErrMissingField)
		},
	}
	r, err := NewRouter(table)
	require.NoError(t, err)

	require.NoError(t, r.Dispatch(context.Background(), "persona-report", Payload{"paymentId": "P1"}))
	assert.Equal(t, Payload{"paymentId": "P1"}, got)

	require.NoError(t, r.Dispatch(context.Background(), "persona-report", nil))
	assert.NotNil(t, got)

	err = r.Dispatch(context.Background(), "grant-report", Payload{})
	assert.ErrorIs(t, err, ErrMissingField)

	err = r.Dispatch(context.Background(), "tip-report", Payload{})
	assert.ErrorIs(t, err, ErrUnregisteredQueue)
}

func TestRouter_DispatchCopiesPayload(t *testing.T) {
	table := map[string]Handler{
		"persona-report": func(_ context.Context, p Payload) error {
			delete(p, "paymentId")
			p["provider"] = "uphold"
			return nil
		},
	}
	r, err := NewRouter(table)
	require.NoError(t, err)

	msg := Payload{"paymentId": "P1"}
	require.NoError(t, r.Dispatch(context.Background(), "persona-report", msg))
	assert.Equal(t, Payload{"paymentId": "P1"}, msg)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      Outcome
		rejection bool
	}{
		{"Nil", nil, OutcomeApplied, false},
		{"Amount", fmt.Errorf("probi: %w", amount.ErrInvalidAmount), OutcomeInvalidAmount, true},
		{"Missing", fmt.Errorf("%w: viewingId", ErrMissingField), OutcomeMissingField, true},
		{"Payload", ErrInvalidPayload, OutcomeInvalidPayload, true},
		{"Unavailable", fmt.Errorf("%w: dial", docstore.ErrUnavailable), OutcomeStoreUnavailable, false},
		{"WriteFailed", fmt.Errorf("%w: dup", docstore.ErrWriteFailed), OutcomeStoreWriteFailed, false},
		{"Unregistered", ErrUnregisteredQueue, OutcomeUnregisteredQueue, false},
		{"Other", errors.New("boom"), OutcomeFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
			assert.Equal(t, tt.rejection, IsRejection(tt.err))
		})
	}
}
