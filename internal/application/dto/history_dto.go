package dto

import (
	"time"

	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// HistoryEntryResponse entrada del log de auditoría.
type HistoryEntryResponse struct {
	ID              string                        `json:"id"`
	EntityKind      string                        `json:"entity_kind"`
	EntityID        string                        `json:"entity_id"`
	Operation       string                        `json:"operation"`
	DataBefore      entity.Snapshot               `json:"data_before,omitempty"`
	DataAfter       entity.Snapshot               `json:"data_after,omitempty"`
	ChangedFields   []string                      `json:"changed_fields,omitempty"`
	Diff            map[string]entity.FieldChange `json:"diff,omitempty"`
	Actor           string                        `json:"actor"`
	Reason          string                        `json:"reason,omitempty"`
	IsRollbackPoint bool                          `json:"is_rollback_point"`
	IsRollback      bool                          `json:"is_rollback"`
	RestoredFromID  string                        `json:"restored_from_id,omitempty"`
	CreatedAt       time.Time                     `json:"created_at"`
}

// RollbackPointResponse snapshot candidato anotado.
type RollbackPointResponse struct {
	HistoryEntryResponse
	Restorable    bool   `json:"restorable"`
	BlockedReason string `json:"blocked_reason,omitempty"`
}

// RollbackRequest body para revertir una entidad a un snapshot.
type RollbackRequest struct {
	TargetHistoryID string `json:"target_history_id"`
	Reason          string `json:"reason"`
}
