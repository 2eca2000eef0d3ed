package tabular

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPick_PriorityOrder(t *testing.T) {
	tbl := Table{{"monto": "10", "saldo": "20"}}

	col, ok := tbl.Pick("total_deuda", "monto", "importe", "saldo")
	require.True(t, ok)
	assert.Equal(t, "monto", col)

	_, ok = tbl.Pick("no_such", "columns")
	assert.False(t, ok)

	_, ok = Table{}.Pick("monto")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	tbl := Table{{" CUIT ": "123", "Razon_Social": "ACME"}}.Normalize()
	assert.Equal(t, "123", tbl[0].Get("cuit"))
	assert.Equal(t, "ACME", tbl[0].Get("razon_social"))
}

func TestGet_TrimsAndTolerForMissing(t *testing.T) {
	r := Row{"cuit": "  123  "}
	assert.Equal(t, "123", r.Get("cuit"))
	assert.Equal(t, "", r.Get("missing"))
}

func TestInt(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"6", 6, true},
		{"06", 6, true},
		{"6.0", 6, true},
		{" 12 ", 12, true},
		{"", 0, false},
		{"x", 0, false},
	}
	for _, c := range cases {
		got, ok := Int(c.in)
		assert.Equal(t, c.ok, ok, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestDecimal(t *testing.T) {
	d, ok := Decimal("$ 1500.50")
	require.True(t, ok)
	assert.Equal(t, "1500.5", d.String())

	_, ok = Decimal("n/a")
	assert.False(t, ok)

	_, ok = Decimal("")
	assert.False(t, ok)
}

func TestDate_Layouts(t *testing.T) {
	for _, in := range []string{
		"2024-06-01",
		"2024-06-01 10:30",
		"2024-06-01 10:30:00",
		"01/06/2024",
	} {
		d, ok := Date(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, 2024, d.Year(), "input %q", in)
		assert.Equal(t, time.June, d.Month(), "input %q", in)
	}
	_, ok := Date("June 1st")
	assert.False(t, ok)
}

func TestPeriod_Shapes(t *testing.T) {
	for _, in := range []string{"2024-07", "2024/07", "202407", " 2024-07 "} {
		p, ok := Period(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, 2024, p.Year(), "input %q", in)
		assert.Equal(t, time.July, p.Month(), "input %q", in)
		assert.Equal(t, 1, p.Day(), "input %q", in)
	}
	_, ok := Period("07-2024")
	assert.False(t, ok)
	_, ok = Period("")
	assert.False(t, ok)
}
