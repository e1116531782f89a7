package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"no-op on two decimals", 10.25, 10.25},
		{"rounds down", 10.004, 10.00},
		{"rounds up", 10.006, 10.01},
		{"half rounds away from zero", 1.005, 1.01},
		{"negative half rounds away from zero", -1.005, -1.01},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round2(tt.in))
		})
	}
}

func TestRound0(t *testing.T) {
	assert.Equal(t, 3.0, Round0(2.5))
	assert.Equal(t, 2.0, Round0(2.4))
	assert.Equal(t, -3.0, Round0(-2.5))
	assert.Equal(t, 0.0, Round0(0))
}

func TestClampNonNegative(t *testing.T) {
	assert.Equal(t, 0.0, ClampNonNegative(-0.01))
	assert.Equal(t, 0.0, ClampNonNegative(0))
	assert.Equal(t, 150.75, ClampNonNegative(150.75))
}

func TestVAT(t *testing.T) {
	assert.Equal(t, 679.00, VAT(9700))
	assert.Equal(t, 86.42, VAT(1234.56))
	assert.Equal(t, 0.0, VAT(0))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 50.0, Percent(50, 100))
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 0.0, Percent(50, 0))
}

func TestGrowthPercent(t *testing.T) {
	assert.Equal(t, 50, GrowthPercent(150, 100))
	assert.Equal(t, -10, GrowthPercent(90, 100))
	assert.Equal(t, 0, GrowthPercent(100, 100))

	// Zero baseline reports zero growth rather than infinity
	assert.Equal(t, 0, GrowthPercent(500, 0))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(100.00, 100.01))
	assert.True(t, Equal(100.01, 100.00))
	assert.False(t, Equal(100.00, 100.02))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "1,234,567.89", FormatCurrency(1234567.89, ""))
	assert.Equal(t, "฿1,234,567.89", FormatCurrency(1234567.89, "th"))
	assert.Equal(t, "฿500.00", FormatCurrency(500, "th-TH"))
	assert.Equal(t, "-500.00", FormatCurrency(-500, "en"))
	assert.Equal(t, "0.00", FormatCurrency(0, ""))
}
