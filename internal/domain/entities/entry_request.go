package entities

// NewEntryRequest is the data-entry payload. Selections maps a level to the
// items picked at that level; an item picked at several levels keeps the highest.
type NewEntryRequest struct {
	// Date is dd/mm/yyyy or yyyy-mm-dd.
	Date string `json:"date"`
	// Time is HH:MM.
	Time        string             `json:"time"`
	Stool       *int               `json:"stool,omitempty"`
	Selections  map[Level][]string `json:"selections"`
	Symptoms    []string           `json:"symptoms,omitempty"`
	Medications []string           `json:"medications,omitempty"`
	WaistCm     float64            `json:"waist_cm,omitempty"`
	Notes       string             `json:"notes,omitempty"`
	Mood        string             `json:"mood,omitempty"`
}

// CreateItemRequest registers a new base food or tracker.
type CreateItemRequest struct {
	Name string   `json:"name"`
	Kind ItemKind `json:"kind"`
}

// DefineCompositeRequest creates or replaces a composite definition.
type DefineCompositeRequest struct {
	Name     string   `json:"name"`
	Main     []string `json:"main"`
	Minor    []string `json:"minor"`
	Trackers []string `json:"trackers"`
}
