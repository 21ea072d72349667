package entity

import "time"

// Tipos de entidad auditada (variante etiquetada del registro polimórfico).
const (
	EntityKindRequisition     = "REQUISITION"
	EntityKindRequisitionLine = "REQUISITION_LINE"
	EntityKindInvoice         = "INVOICE"
)

// Operaciones de historial.
const (
	HistoryOpINSERT       = "INSERT"
	HistoryOpUPDATE       = "UPDATE"
	HistoryOpDELETE       = "DELETE"
	HistoryOpSoftDelete   = "SOFT_DELETE"
	HistoryOpRESTORE      = "RESTORE"
	HistoryOpROLLBACK     = "ROLLBACK"
	HistoryOpStatusChange = "STATUS_CHANGE"
	HistoryOpAPPROVAL     = "APPROVAL"
	HistoryOpREJECTION    = "REJECTION"
	HistoryOpCANCELLATION = "CANCELLATION"
)

// SystemActor es el actor centinela cuando la captura degrada (sin contexto de usuario).
const SystemActor = "system"

// NoJustificationSentinel se registra en borrados duros realizados fuera de la API
// normal, donde no hay motivo disponible; nunca se bloquea la mutación por esto.
const NoJustificationSentinel = "sin justificación registrada"

// Snapshot es la foto completa clave-valor de una entidad auditada.
type Snapshot map[string]any

// FieldChange es el cambio de un campo entre dos snapshots.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// HistoryEntry es una entrada inmutable del log de auditoría por entidad,
// ordenado linealmente por timestamp. Nunca se edita ni se borra.
type HistoryEntry struct {
	ID         string
	EntityKind string
	EntityID   string
	Operation  string

	DataBefore Snapshot // omitido en INSERT
	DataAfter  Snapshot // omitido en DELETE

	ChangedFields []string
	Diff          map[string]FieldChange

	Actor  string
	Reason string // obligatorio en operaciones destructivas o de reversión

	IsRollbackPoint bool
	IsRollback      bool
	RestoredFromID  string // para entradas ROLLBACK: snapshot restaurado

	CreatedAt time.Time
}
