package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := DefaultNormalizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "lowercases and collapses spaces", in: "  Catat   PENGELUARAN  ", want: "catat pengeluaran"},
		{name: "thousands separator", in: "50.000", want: "50000"},
		{name: "repeated thousands separators", in: "1.000.000", want: "1000000"},
		{name: "comma thousands", in: "1,250,000", want: "1250000"},
		{name: "currency prefix", in: "Rp 50.000", want: "50000"},
		{name: "currency prefix with dot", in: "Rp.75.000", want: "75000"},
		{name: "rb shorthand", in: "50rb", want: "50000"},
		{name: "spaced shorthand", in: "50 rb", want: "50000"},
		{name: "ribu shorthand", in: "20 ribu", want: "20000"},
		{name: "k shorthand", in: "15k", want: "15000"},
		{name: "decimal juta", in: "2.5juta", want: "2500000"},
		{name: "comma decimal jt", in: "1,5jt", want: "1500000"},
		{name: "k inside word untouched", in: "5 kali", want: "5 kali"},
		{name: "fullwidth folded", in: "ＣＡＴＡＴ ５０", want: "catat 50"},
		{name: "accents stripped", in: "Café", want: "cafe"},
		{name: "zero width removed", in: "sal\u200bdo", want: "saldo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalizer_Tokens(t *testing.T) {
	n := DefaultNormalizer()

	assert.Equal(t, []string{"keluar", "50000", "untuk", "makan"}, n.Tokens("keluar 50rb buat makan"))
	assert.Equal(t, []string{"terima", "1000000", "dari", "bonus"}, n.Tokens("Terima 1jt dr bonus!"))
	assert.Equal(t, []string{"catat", "pengeluaran", "{amount}", "untuk", "{category}"},
		n.Tokens("catat pengeluaran {amount} untuk {category}"))
	assert.Equal(t, []string{"beli", "2,5", "liter"}, n.Tokens("beli 2,5 liter"))
}

func TestNewNormalizer_CustomTables(t *testing.T) {
	n, err := NewNormalizer(map[string]int64{"M": 1_000_000}, map[string]string{"pngl": "pengeluaran"})
	require.NoError(t, err)

	assert.Equal(t, "3000000", n.Normalize("3m"))
	assert.Equal(t, "50rb", n.Normalize("50rb"))
	assert.Equal(t, []string{"pengeluaran", "3000000"}, n.Tokens("pngl 3m"))

	_, err = NewNormalizer(map[string]int64{"rb": 0}, nil)
	require.Error(t, err)

	_, err = NewNormalizer(nil, map[string]string{"": "x"})
	require.Error(t, err)
}

func TestIsNumericAndParseAmount(t *testing.T) {
	assert.True(t, IsNumeric("50000"))
	assert.True(t, IsNumeric("2.5"))
	assert.False(t, IsNumeric("50rb"))
	assert.False(t, IsNumeric("{amount}"))

	amount, ok := parseAmount("2,5")
	require.True(t, ok)
	assert.Equal(t, "2.5", amount)

	_, ok = parseAmount("1.2.3")
	assert.False(t, ok)
}
