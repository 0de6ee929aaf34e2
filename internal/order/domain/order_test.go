package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStateMachine_HappyPaths(t *testing.T) {
	t.Run("new to accepted to filled", func(t *testing.T) {
		o := buyOrder("100")
		require.NoError(t, o.Accept())
		assert.Equal(t, OrderStatusAccepted, o.Status)

		require.NoError(t, o.Fill(dec("100"), dec("50")))
		assert.Equal(t, OrderStatusFilled, o.Status)
		assert.True(t, o.FilledQuantity.Equal(dec("100")))
		assert.True(t, o.AvgFillPrice.Equal(dec("50")))
	})

	t.Run("new to rejected", func(t *testing.T) {
		o := buyOrder("100")
		require.NoError(t, o.Reject(RejectReasonInvalidQuantity))
		assert.Equal(t, OrderStatusRejected, o.Status)
		assert.Equal(t, RejectReasonInvalidQuantity, o.RejectReason)
	})

	t.Run("accepted to cancelled", func(t *testing.T) {
		o := buyOrder("100")
		require.NoError(t, o.Accept())
		require.NoError(t, o.Cancel())
		assert.Equal(t, OrderStatusCancelled, o.Status)
	})
}

func TestOrderStateMachine_InvalidTransitions(t *testing.T) {
	t.Run("new cannot fill directly", func(t *testing.T) {
		o := buyOrder("100")
		err := o.Fill(dec("100"), dec("50"))
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
		assert.Equal(t, OrderStatusNew, o.Status)
	})

	t.Run("new cannot cancel", func(t *testing.T) {
		o := buyOrder("100")
		assert.ErrorIs(t, o.Cancel(), ErrInvalidStateTransition)
	})

	t.Run("accepted cannot reject", func(t *testing.T) {
		o := buyOrder("100")
		require.NoError(t, o.Accept())
		assert.Error(t, o.Reject(RejectReasonInsufficientFunds))
	})
}

func TestOrderStateMachine_TerminalProtection(t *testing.T) {
	terminalOrders := map[string]func() *Order{
		"filled": func() *Order {
			o := buyOrder("100")
			_ = o.Accept()
			_ = o.Fill(dec("100"), dec("50"))
			return o
		},
		"rejected": func() *Order {
			o := buyOrder("100")
			_ = o.Reject(RejectReasonInvalidQuantity)
			return o
		},
		"cancelled": func() *Order {
			o := buyOrder("100")
			_ = o.Accept()
			_ = o.Cancel()
			return o
		},
	}

	for name, build := range terminalOrders {
		t.Run(name, func(t *testing.T) {
			o := build()
			require.True(t, o.IsTerminal())
			before := o.Status

			for _, attempt := range []error{
				o.Accept(),
				o.Fill(dec("1"), dec("1")),
				o.Cancel(),
				o.Reject(RejectReasonInsufficientFunds),
			} {
				assert.True(t, errors.Is(attempt, ErrOrderTerminal))
			}
			assert.Equal(t, before, o.Status, "terminal state must not change")
		})
	}
}

func TestOrderSignedQuantity(t *testing.T) {
	o := buyOrder("100")
	assert.True(t, o.SignedQuantity().Equal(dec("100")))

	o.Side = OrderSideSell
	assert.True(t, o.SignedQuantity().Equal(dec("-100")))
}
