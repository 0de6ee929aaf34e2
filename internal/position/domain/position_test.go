package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyFill_OpenPosition(t *testing.T) {
	p := NewPosition("POS1", "ACC1", "RELIANCE")

	require.NoError(t, p.ApplyFill(dec("100"), dec("50")))

	assert.True(t, p.Quantity.Equal(dec("100")))
	assert.True(t, p.AverageCost.Equal(dec("50")))
	assert.True(t, p.LastPx.Equal(dec("50")))
	assert.True(t, p.UnrealizedPnl.IsZero())
	assert.True(t, p.RealizedPnl.IsZero())
}

func TestApplyFill_IncreaseRecomputesAverage(t *testing.T) {
	p := NewPosition("POS1", "ACC1", "RELIANCE")
	require.NoError(t, p.ApplyFill(dec("100"), dec("50")))
	require.NoError(t, p.ApplyFill(dec("50"), dec("60")))

	// (100*50 + 50*60) / 150 = 53.33...
	assert.True(t, p.Quantity.Equal(dec("150")))
	assert.Equal(t, "53.33", p.AverageCost.StringFixed(2))
	assert.True(t, p.RealizedPnl.IsZero(), "increasing never realizes pnl")
}

func TestApplyFill_ReduceRealizesPnl(t *testing.T) {
	p := NewPosition("POS1", "ACC1", "RELIANCE")
	require.NoError(t, p.ApplyFill(dec("100"), dec("50")))
	require.NoError(t, p.ApplyFill(dec("-40"), dec("55")))

	assert.True(t, p.Quantity.Equal(dec("60")))
	assert.True(t, p.AverageCost.Equal(dec("50")), "pure reduction keeps average cost")
	// 40 * (55 - 50) = 200
	assert.True(t, p.RealizedPnl.Equal(dec("200")))
}

func TestApplyFill_ReduceAtLoss(t *testing.T) {
	p := NewPosition("POS1", "ACC1", "RELIANCE")
	require.NoError(t, p.ApplyFill(dec("100"), dec("50")))
	require.NoError(t, p.ApplyFill(dec("-100"), dec("45")))

	assert.True(t, p.IsFlat())
	assert.True(t, p.AverageCost.IsZero(), "full close resets average cost")
	assert.True(t, p.RealizedPnl.Equal(dec("-500")))
	assert.True(t, p.UnrealizedPnl.IsZero())
}

func TestApplyFill_FlipResetsAverageCost(t *testing.T) {
	p := NewPosition("POS1", "ACC1", "RELIANCE")
	require.NoError(t, p.ApplyFill(dec("100"), dec("50")))
	require.NoError(t, p.ApplyFill(dec("-150"), dec("60")))

	// 原 100 股按 60 平仓实现 100*(60-50)=1000，剩余 -50 以 60 开新仓
	assert.True(t, p.Quantity.Equal(dec("-50")))
	assert.True(t, p.AverageCost.Equal(dec("60")))
	assert.True(t, p.RealizedPnl.Equal(dec("1000")))
}

func TestApplyFill_InvalidInputs(t *testing.T) {
	p := NewPosition("POS1", "ACC1", "RELIANCE")

	assert.Error(t, p.ApplyFill(decimal.Zero, dec("50")))
	assert.Error(t, p.ApplyFill(dec("10"), decimal.Zero))
	assert.Error(t, p.ApplyFill(dec("10"), dec("-1")))
	assert.True(t, p.IsFlat(), "failed fill must not mutate the position")
}

func TestMarkPrice(t *testing.T) {
	p := NewPosition("POS1", "ACC1", "RELIANCE")
	require.NoError(t, p.ApplyFill(dec("100"), dec("50")))

	p.MarkPrice(dec("53"))
	assert.True(t, p.LastPx.Equal(dec("53")))
	// 100 * (53 - 50) = 300
	assert.True(t, p.UnrealizedPnl.Equal(dec("300")))
}

// 同向成交序列的均价恒等于 Σ(qi·pi)/Σqi
func TestApplyFill_WeightedAverageProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewPosition("POS1", "ACC1", "RELIANCE")

		n := rapid.IntRange(1, 20).Draw(t, "fills")
		totalQty := decimal.Zero
		totalCost := decimal.Zero

		for i := 0; i < n; i++ {
			qty := decimal.NewFromInt(rapid.Int64Range(1, 1000).Draw(t, "qty"))
			// 价格两位小数，1.00 ~ 5000.00
			price := decimal.NewFromInt(rapid.Int64Range(100, 500000).Draw(t, "price")).Div(dec("100"))

			require.NoError(t, p.ApplyFill(qty, price))
			totalQty = totalQty.Add(qty)
			totalCost = totalCost.Add(qty.Mul(price))
		}

		expected := totalCost.Div(totalQty)
		diff := p.AverageCost.Sub(expected).Abs()
		assert.True(t, diff.LessThan(dec("0.0000000001")),
			"avgCost=%s expected=%s", p.AverageCost, expected)
		assert.True(t, p.Quantity.Equal(totalQty))
		assert.True(t, p.RealizedPnl.IsZero())
	})
}
