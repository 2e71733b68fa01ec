package clob

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNotional_ComputesDecimalValueOffTheMatchingPath(t *testing.T) {
	ts := TickScale{Exponent: 2} // 1 tick = 0.01 currency units
	got := Notional(ts, 10150, 3)
	want := decimal.RequireFromString("304.50")
	assert.True(t, want.Equal(got), "got %s want %s", got, want)
}
