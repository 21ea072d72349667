package history

import (
	"reflect"
	"sort"

	"github.com/tu-usuario/almacen-ledger/internal/domain/entity"
)

// ChangedFields devuelve los campos cuyo valor difiere entre dos snapshots:
// diferencia simétrica de claves presentes más las claves con valor distinto.
// El resultado viene ordenado para que el historial sea determinista.
func ChangedFields(before, after entity.Snapshot) []string {
	seen := map[string]bool{}
	var fields []string
	for k, bv := range before {
		av, ok := after[k]
		if !ok || !equalValue(bv, av) {
			fields = append(fields, k)
			seen[k] = true
		}
	}
	for k := range after {
		if _, ok := before[k]; !ok && !seen[k] {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}

// Diff construye el mapa campo -> {old, new} entre dos snapshots.
func Diff(before, after entity.Snapshot) map[string]entity.FieldChange {
	diff := make(map[string]entity.FieldChange)
	for _, field := range ChangedFields(before, after) {
		diff[field] = entity.FieldChange{Old: before[field], New: after[field]}
	}
	return diff
}

// Classify determina la operación de historial de un update inspeccionando qué
// campo cambió: transición de estado a APPROVED/REJECTED/CANCELLED tiene
// operación propia, cualquier otro cambio de estado es STATUS_CHANGE y el
// resto es un UPDATE plano.
func Classify(before, after entity.Snapshot) string {
	bs, _ := before["status"].(string)
	as, _ := after["status"].(string)
	if bs == as {
		return entity.HistoryOpUPDATE
	}
	switch as {
	case entity.RequisitionStatusAPPROVED:
		return entity.HistoryOpAPPROVAL
	case entity.RequisitionStatusREJECTED:
		return entity.HistoryOpREJECTION
	case entity.RequisitionStatusCANCELLED:
		return entity.HistoryOpCANCELLATION
	default:
		return entity.HistoryOpStatusChange
	}
}

// equalValue compara valores de snapshot. Los snapshots serializan decimales y
// fechas como string, así que la comparación estructural es suficiente.
func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(a, b)
}
