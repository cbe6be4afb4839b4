package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"5", "5.00"},
		{"10.5", "10.50"},
		{"999.99", "999.99"},
		{"1000", "1,000.00"},
		{"1633.768", "1,633.77"},
		{"1815.3", "1,815.30"},
		{"123456789.1", "123,456,789.10"},
		{"-1234.5", "-1,234.50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(decimal.RequireFromString(tt.in)))
		})
	}
}
