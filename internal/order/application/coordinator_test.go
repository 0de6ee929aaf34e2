package application

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accdomain "github.com/wyfcoding/tradingvenue/internal/account/domain"
	"github.com/wyfcoding/tradingvenue/internal/order/domain"
	"pgregory.net/rapid"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func marketBuy(accountID, symbol, qty string) SubmitOrderCommand {
	return SubmitOrderCommand{
		AccountID: accountID,
		Symbol:    symbol,
		Side:      string(domain.OrderSideBuy),
		OrderType: string(domain.OrderTypeMarket),
		Quantity:  qty,
	}
}

func marketSell(accountID, symbol, qty string) SubmitOrderCommand {
	cmd := marketBuy(accountID, symbol, qty)
	cmd.Side = string(domain.OrderSideSell)
	return cmd
}

func TestSubmitOrder_MarketBuyFillsImmediately(t *testing.T) {
	f := newFixture("10")
	f.addAccount("ACC1", "10000")
	f.addInstrument("RELIANCE", "1", true)
	f.publish("RELIANCE", "50.00")

	dto, err := f.coord.SubmitOrder(context.Background(), marketBuy("ACC1", "RELIANCE", "100"))
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusFilled), dto.Status)
	assert.Equal(t, "100", dto.FilledQuantity)
	assert.Equal(t, "50", dto.AvgFillPrice)

	// 余额：10000 - (100*50 + 10) = 4990
	assert.Equal(t, "4990", f.account("ACC1").Balance.String())

	executions := f.executionRecords()
	require.Len(t, executions, 1)
	assert.True(t, executions[0].Quantity.Equal(dec("100")))
	assert.True(t, executions[0].Price.Equal(dec("50.00")))
	assert.True(t, executions[0].Fee.Equal(dec("10")))
	assert.Equal(t, dto.OrderID, executions[0].OrderID)

	position, ok := f.position("ACC1", "RELIANCE")
	require.True(t, ok)
	assert.True(t, position.Quantity.Equal(dec("100")))
	assert.True(t, position.AverageCost.Equal(dec("50")))

	entries := f.ledgerEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, accdomain.LedgerEntryTypeDebit, entries[0].Type)
	assert.True(t, entries[0].Amount.Equal(dec("5010")))
	assert.True(t, entries[0].BalanceAfter.Equal(dec("4990")))
	assert.Equal(t, dto.OrderID, entries[0].Reference)

	assert.Equal(t, []string{EventTypeOrderAccepted, EventTypeOrderFilled}, f.events.types())
}

func TestSubmitOrder_SecondBuyUpdatesAverageCost(t *testing.T) {
	f := newFixture("10")
	f.addAccount("ACC1", "10000")
	f.addInstrument("RELIANCE", "1", true)
	f.publish("RELIANCE", "50.00")

	_, err := f.coord.SubmitOrder(context.Background(), marketBuy("ACC1", "RELIANCE", "100"))
	require.NoError(t, err)

	// 第二笔费用为 5
	coord2 := f.newCoordinator("5")
	f.publish("RELIANCE", "60.00")
	dto, err := coord2.SubmitOrder(context.Background(), marketBuy("ACC1", "RELIANCE", "50"))
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusFilled), dto.Status)

	position, ok := f.position("ACC1", "RELIANCE")
	require.True(t, ok)
	assert.True(t, position.Quantity.Equal(dec("150")))
	assert.Equal(t, "53.33", position.AverageCost.StringFixed(2))

	// 4990 - (50*60 + 5) = 1985
	assert.Equal(t, "1985", f.account("ACC1").Balance.String())

	entries := f.ledgerEntries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].BalanceAfter.Equal(dec("1985")))
}

func TestSubmitOrder_RejectionHasNoSideEffects(t *testing.T) {
	f := newFixture("10")
	f.addAccount("ACC1", "10000")
	f.addInstrument("RELIANCE", "10", true)
	f.publish("RELIANCE", "50.00")

	tests := []struct {
		name   string
		cmd    SubmitOrderCommand
		reason domain.RejectReason
	}{
		{"unknown instrument", marketBuy("ACC1", "NOSUCH", "10"), domain.RejectReasonInstrumentInactive},
		{"lot size violation", marketBuy("ACC1", "RELIANCE", "15"), domain.RejectReasonInvalidQuantity},
		{"margin flag", func() SubmitOrderCommand {
			cmd := marketBuy("ACC1", "RELIANCE", "10")
			cmd.Margin = true
			return cmd
		}(), domain.RejectReasonUnsupportedOrderScope},
		{"insufficient funds", marketBuy("ACC1", "RELIANCE", "10000"), domain.RejectReasonInsufficientFunds},
		{"sell without position", marketSell("ACC1", "RELIANCE", "10"), domain.RejectReasonInsufficientFunds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto, err := f.coord.SubmitOrder(context.Background(), tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, string(domain.OrderStatusRejected), dto.Status)
			assert.Equal(t, string(tt.reason), dto.RejectReason)

			// 拒绝对其他实体零副作用
			assert.Equal(t, "10000", f.account("ACC1").Balance.String())
			assert.Empty(t, f.executionRecords())
			assert.Empty(t, f.ledgerEntries())
			_, ok := f.position("ACC1", "RELIANCE")
			assert.False(t, ok)

			// 拒绝是终态，订单本身已持久化
			assert.Equal(t, domain.OrderStatusRejected, f.order(dto.OrderID).Status)
		})
	}
}

func TestSubmitOrder_RestsWithoutQuoteAndFillsOnTick(t *testing.T) {
	f := newFixture("0")
	f.addAccount("ACC1", "10000")
	f.addInstrument("RELIANCE", "1", true)

	// 无报价：市价单挂起而非拒绝
	dto, err := f.coord.SubmitOrder(context.Background(), marketBuy("ACC1", "RELIANCE", "100"))
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusAccepted), dto.Status)
	assert.Empty(t, f.executionRecords())

	// 报价到达触发重估并成交
	f.publish("RELIANCE", "50.00")
	assert.Equal(t, domain.OrderStatusFilled, f.order(dto.OrderID).Status)
	assert.Equal(t, "5000", f.account("ACC1").Balance.String())
}

func TestSubmitOrder_LimitRestsUntilMarketable(t *testing.T) {
	f := newFixture("0")
	f.addAccount("ACC1", "10000")
	f.addInstrument("RELIANCE", "1", true)
	f.publish("RELIANCE", "50.00")

	cmd := marketBuy("ACC1", "RELIANCE", "100")
	cmd.OrderType = string(domain.OrderTypeLimit)
	cmd.LimitPrice = "49.99"

	dto, err := f.coord.SubmitOrder(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, string(domain.OrderStatusAccepted), dto.Status, "one tick below quote rests")

	// 不利报价不触发成交
	f.publish("RELIANCE", "51.00")
	assert.Equal(t, domain.OrderStatusAccepted, f.order(dto.OrderID).Status)

	// 报价触及限价即成交，成交价为报价
	f.publish("RELIANCE", "49.99")
	order := f.order(dto.OrderID)
	assert.Equal(t, domain.OrderStatusFilled, order.Status)
	assert.True(t, order.AvgFillPrice.Equal(dec("49.99")))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture("0")
	f.addAccount("ACC1", "10000")
	f.addInstrument("RELIANCE", "1", true)

	t.Run("cancel resting order", func(t *testing.T) {
		dto, err := f.coord.SubmitOrder(context.Background(), marketBuy("ACC1", "RELIANCE", "100"))
		require.NoError(t, err)
		require.Equal(t, string(domain.OrderStatusAccepted), dto.Status)

		cancelled, err := f.coord.CancelOrder(context.Background(), dto.OrderID)
		require.NoError(t, err)
		assert.Equal(t, string(domain.OrderStatusCancelled), cancelled.Status)

		// 已撤销订单不会被后续报价成交
		f.publish("RELIANCE", "50.00")
		assert.Equal(t, domain.OrderStatusCancelled, f.order(dto.OrderID).Status)
		assert.Empty(t, f.executionRecords())
	})

	t.Run("cancel after fill is a no-op", func(t *testing.T) {
		dto, err := f.coord.SubmitOrder(context.Background(), marketBuy("ACC1", "RELIANCE", "10"))
		require.NoError(t, err)
		require.Equal(t, string(domain.OrderStatusFilled), dto.Status)

		result, err := f.coord.CancelOrder(context.Background(), dto.OrderID)
		require.NoError(t, err)
		assert.Equal(t, string(domain.OrderStatusFilled), result.Status)
	})

	t.Run("cancel unknown order", func(t *testing.T) {
		_, err := f.coord.CancelOrder(context.Background(), "ORD-MISSING")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestFill_AtomicityOnSettlementConflict(t *testing.T) {
	f := newFixture("10")
	f.addAccount("ACC1", "100")
	f.addInstrument("RELIANCE", "1", true)

	// 无报价时市价单跳过资金预估，挂起等待报价
	dto, err := f.coord.SubmitOrder(context.Background(), marketBuy("ACC1", "RELIANCE", "100"))
	require.NoError(t, err)
	require.Equal(t, string(domain.OrderStatusAccepted), dto.Status)

	// 报价到达后防御性余额校验失败，整个成交单元回滚
	f.publish("RELIANCE", "50.00")

	assert.Equal(t, domain.OrderStatusAccepted, f.order(dto.OrderID).Status,
		"order stays ACCEPTED, neither FILLED nor REJECTED")
	assert.Equal(t, "100", f.account("ACC1").Balance.String())
	assert.Empty(t, f.executionRecords())
	assert.Empty(t, f.ledgerEntries())
	_, ok := f.position("ACC1", "RELIANCE")
	assert.False(t, ok)

	// 余额到位后下一个报价重试成交
	f.store.mu.Lock()
	account := f.store.accounts["ACC1"]
	account.Balance = dec("6000")
	f.store.accounts["ACC1"] = account
	f.store.mu.Unlock()

	f.publish("RELIANCE", "50.00")
	assert.Equal(t, domain.OrderStatusFilled, f.order(dto.OrderID).Status)
	assert.Equal(t, "990", f.account("ACC1").Balance.String())
}

func TestConcurrentBuys_NeverNegativeBalance(t *testing.T) {
	f := newFixture("0")
	f.addAccount("ACC1", "10000")
	f.addInstrument("RELIANCE", "1", true)
	f.publish("RELIANCE", "50.00")

	// 每笔 30*50=1500，10000 最多成交 6 笔
	const orders = 10
	var wg sync.WaitGroup
	for i := 0; i < orders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.SubmitOrder(context.Background(), marketBuy("ACC1", "RELIANCE", "30"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance := f.account("ACC1").Balance
	assert.False(t, balance.IsNegative(), "cash balance must never go negative")

	fills := len(f.executionRecords())
	assert.LessOrEqual(t, fills, 6)
	assert.True(t, balance.Equal(dec("10000").Sub(dec("1500").Mul(decimal.NewFromInt(int64(fills))))))
	assert.Len(t, f.ledgerEntries(), fills)

	if fills > 0 {
		position, ok := f.position("ACC1", "RELIANCE")
		require.True(t, ok)
		assert.True(t, position.Quantity.Equal(dec("30").Mul(decimal.NewFromInt(int64(fills)))))
	}
}

// 任意买卖序列下余额守恒：余额 == 初始余额 + Σ流水有符号金额，
// 且每条流水的 balance_after 与重算的滚动余额一致
func TestBalanceConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := newFixture("10")
		initial := dec("1000000")
		f.addAccount("ACC1", initial.String())
		f.addInstrument("RELIANCE", "1", true)

		n := rapid.IntRange(1, 25).Draw(t, "orders")
		for i := 0; i < n; i++ {
			price := fmt.Sprintf("%d.%02d",
				rapid.Int64Range(1, 500).Draw(t, "px"),
				rapid.Int64Range(0, 99).Draw(t, "cents"))
			f.publish("RELIANCE", price)

			qty := fmt.Sprintf("%d", rapid.Int64Range(1, 200).Draw(t, "qty"))
			var cmd SubmitOrderCommand
			if rapid.Bool().Draw(t, "sell") {
				cmd = marketSell("ACC1", "RELIANCE", qty)
			} else {
				cmd = marketBuy("ACC1", "RELIANCE", qty)
			}
			_, err := f.coord.SubmitOrder(context.Background(), cmd)
			require.NoError(t, err)
		}

		running := initial
		for _, entry := range f.ledgerEntries() {
			running = running.Add(entry.SignedAmount())
			require.True(t, entry.BalanceAfter.Equal(running),
				"balance_after=%s running=%s", entry.BalanceAfter, running)
		}
		require.True(t, f.account("ACC1").Balance.Equal(running))
		require.False(t, f.account("ACC1").Balance.IsNegative())

		// 持仓数量 == Σ成交有符号数量
		netQty := decimal.Zero
		for _, execution := range f.executionRecords() {
			order := f.order(execution.OrderID)
			if order.IsBuy() {
				netQty = netQty.Add(execution.Quantity)
			} else {
				netQty = netQty.Sub(execution.Quantity)
			}
		}
		position, ok := f.position("ACC1", "RELIANCE")
		if ok {
			require.True(t, position.Quantity.Equal(netQty))
		} else {
			require.True(t, netQty.IsZero())
		}
	})
}
