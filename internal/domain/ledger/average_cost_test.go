package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/almacen-ledger/internal/domain/ledger"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// 100 uds a $7.00 + entrada de 50 uds a $8.00 -> promedio $7.33.
func TestAverageCost_EntradaPonderaPromedio(t *testing.T) {
	avg := ledger.AverageCost(dec("100"), dec("7.00"), dec("50"), dec("8.00"))
	assert.Equal(t, "7.33", avg.Round(2).String())
}

func TestAverageCost_SaldoCeroTomaPrecioDeEntrada(t *testing.T) {
	avg := ledger.AverageCost(decimal.Zero, decimal.Zero, dec("10"), dec("5.50"))
	assert.True(t, avg.Equal(dec("5.50")), "con saldo cero el promedio es el precio de entrada")
}

func TestAverageCost_PrecioCeroNoCambiaPromedio(t *testing.T) {
	avg := ledger.AverageCost(dec("100"), dec("7.00"), dec("50"), decimal.Zero)
	assert.True(t, avg.Equal(dec("7.00")), "entradas sin precio no deben mover el promedio")
}

func TestAverageCost_EntradaAlMismoPrecioMantienePromedio(t *testing.T) {
	avg := ledger.AverageCost(dec("30"), dec("4.00"), dec("70"), dec("4.00"))
	assert.True(t, avg.Equal(dec("4.00")))
}

func TestDivergence(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		average  string
		expected string
	}{
		{"precio por encima", "12.00", "10.00", "0.2"},
		{"precio por debajo", "8.00", "10.00", "0.2"},
		{"sin divergencia", "10.00", "10.00", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := ledger.Divergence(dec(tc.price), dec(tc.average))
			assert.True(t, d.Equal(dec(tc.expected)), "esperado %s, obtenido %s", tc.expected, d)
		})
	}
}

func TestDivergence_PromedioCeroSinReferencia(t *testing.T) {
	d := ledger.Divergence(dec("99"), decimal.Zero)
	require.True(t, d.IsZero(), "sin promedio no hay referencia de divergencia")
}

func TestExceedsThreshold(t *testing.T) {
	threshold := dec("0.20")
	// Exactamente en el umbral no lo supera.
	assert.False(t, ledger.ExceedsThreshold(dec("12.00"), dec("10.00"), threshold))
	assert.True(t, ledger.ExceedsThreshold(dec("12.01"), dec("10.00"), threshold))
	assert.False(t, ledger.ExceedsThreshold(dec("10.50"), dec("10.00"), threshold))
}
