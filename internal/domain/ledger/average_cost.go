package ledger

import "github.com/shopspring/decimal"

// AverageCost implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoPromedio = ((SaldoActual * PromedioActual) + (CantEntrada * PrecioEntrada)) / (SaldoActual + CantEntrada)
// Reglas de borde:
//   - precio de entrada en cero: el promedio no cambia,
//   - saldo previo en cero: el promedio pasa a ser el precio de entrada.
func AverageCost(currentQty, currentAvg, inQty, inPrice decimal.Decimal) decimal.Decimal {
	if inPrice.IsZero() {
		return currentAvg
	}
	newQty := currentQty.Add(inQty)
	if newQty.LessThanOrEqual(decimal.Zero) {
		return currentAvg
	}
	num := currentQty.Mul(currentAvg).Add(inQty.Mul(inPrice))
	return num.Div(newQty)
}

// Divergence devuelve la divergencia relativa |precio - promedio| / promedio.
// Con promedio cero no hay referencia: devuelve cero.
func Divergence(price, average decimal.Decimal) decimal.Decimal {
	if average.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return price.Sub(average).Abs().Div(average)
}

// ExceedsThreshold indica si la divergencia entre precio y promedio supera el umbral.
func ExceedsThreshold(price, average, threshold decimal.Decimal) bool {
	return Divergence(price, average).GreaterThan(threshold)
}
