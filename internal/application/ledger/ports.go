package ledger

import (
	"context"

	"github.com/tu-usuario/almacen-ledger/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Balances     repository.StockBalanceRepository
	Movements    repository.StockMovementRepository
	Reservations repository.StockReservationRepository
	Requisitions repository.RequisitionRepository
	Invoices     repository.InvoiceRepository
	History      repository.HistoryRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad: si fn retorna error no
// queda ningún efecto parcial observable.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
