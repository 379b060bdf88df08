package entities

import (
	"fmt"
	"time"
)

// DateLayout is the layout of LogEntry.Date.
const DateLayout = "2006-01-02"

const (
	// DefaultCrisisThreshold is the minimum Bristol scale counted as a general crisis.
	DefaultCrisisThreshold = 5
	// AcuteCrisisScale is the Bristol value counted as an acute crisis.
	AcuteCrisisScale = 7
)

// LogEntry is a normalized diary entry. It is built once per analysis run and
// never mutated afterwards; derived flags are set on copies.
type LogEntry struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	// Date is the calendar date of the entry (DateLayout).
	Date string `json:"date"`
	// Stool is the Bristol scale (1-7); nil when no bowel movement was recorded.
	Stool       *int             `json:"stool,omitempty"`
	Consumption map[string]Level `json:"consumption"`
	Symptoms    []string         `json:"symptoms,omitempty"`
	Medications []string         `json:"medications,omitempty"`
	WaistCm     *float64         `json:"waist_cm,omitempty"`
	Notes       string           `json:"notes,omitempty"`

	IsCrisis      bool `json:"is_crisis"`
	IsAcuteCrisis bool `json:"is_acute_crisis"`
	IsSafeHarbor  bool `json:"is_safe_harbor"`
}

// Level returns the consumption level of item id (LevelNone when absent).
func (e *LogEntry) Level(id string) Level {
	return e.Consumption[id]
}

// HasStool reports whether a bowel movement was recorded.
func (e *LogEntry) HasStool() bool {
	return e.Stool != nil
}

// CrisisMode selects the crisis predicate.
type CrisisMode string

const (
	// CrisisGeneral: Bristol >= threshold.
	CrisisGeneral CrisisMode = "general"
	// CrisisAcute: Bristol == 7.
	CrisisAcute CrisisMode = "acute"
)

// ParseCrisisMode parses "general" or "acute"; empty means general.
func ParseCrisisMode(s string) (CrisisMode, error) {
	switch CrisisMode(s) {
	case "", CrisisGeneral:
		return CrisisGeneral, nil
	case CrisisAcute:
		return CrisisAcute, nil
	}
	return "", fmt.Errorf("invalid crisis mode %q (must be general or acute)", s)
}

// CrisisRule is a crisis predicate over the Bristol scale.
type CrisisRule struct {
	Mode      CrisisMode
	Threshold int
}

// GeneralCrisis returns the Bristol >= threshold rule.
func GeneralCrisis(threshold int) CrisisRule {
	if threshold <= 0 {
		threshold = DefaultCrisisThreshold
	}
	return CrisisRule{Mode: CrisisGeneral, Threshold: threshold}
}

// AcuteCrisis returns the Bristol == 7 rule.
func AcuteCrisis() CrisisRule {
	return CrisisRule{Mode: CrisisAcute, Threshold: AcuteCrisisScale}
}

// RuleFor maps a mode to its rule using threshold for the general predicate.
func RuleFor(mode CrisisMode, threshold int) CrisisRule {
	if mode == CrisisAcute {
		return AcuteCrisis()
	}
	return GeneralCrisis(threshold)
}

// Matches reports whether the entry is a crisis under this rule. An absent
// stool scale never matches.
func (r CrisisRule) Matches(e *LogEntry) bool {
	if e.Stool == nil {
		return false
	}
	if r.Mode == CrisisAcute {
		return *e.Stool == AcuteCrisisScale
	}
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultCrisisThreshold
	}
	return *e.Stool >= threshold
}
