package entities

import "time"

// Column headers of the diary sheet. Item columns use the item id as header.
const (
	FieldDate        = "Data"
	FieldTime        = "Hora"
	FieldStool       = "Escala de Bristol"
	FieldDiarrhea    = "Diarreia"
	FieldSymptoms    = "Características"
	FieldMedications = "Remédios"
	FieldWaist       = "Circunferencia"
	FieldNotes       = "Notas"
	FieldMood        = "Humor"
)

// SystemFields lists the headers that are never item columns.
var SystemFields = []string{
	FieldDate, FieldTime, FieldStool, FieldDiarrhea, FieldSymptoms,
	FieldMedications, FieldWaist, FieldNotes, FieldMood,
}

// IsSystemField reports whether header is one of the fixed sheet columns.
func IsSystemField(header string) bool {
	for _, f := range SystemFields {
		if f == header {
			return true
		}
	}
	return false
}

// RawRecord is one row as supplied by the record store. Values are strings or
// numbers exactly as the store returned them; nothing is validated here.
type RawRecord struct {
	ID        string         `json:"id" db:"id"`
	Seq       int64          `json:"seq" db:"seq"`
	Fields    map[string]any `json:"fields" db:"fields"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
