package repository

import "github.com/tu-usuario/almacen-ledger/internal/domain/entity"

// StockReservationRepository define el puerto de persistencia de reservas.
type StockReservationRepository interface {
	Create(reservation *entity.StockReservation) error
	Update(reservation *entity.StockReservation) error
	ListActiveByRequisition(requisitionID string) ([]*entity.StockReservation, error)
	ListByRequisition(requisitionID string) ([]*entity.StockReservation, error)
}
