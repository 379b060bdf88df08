package entities

import (
	"sort"
	"time"

	apperrors "github.com/portoseguro/backend/pkg/errors"
)

// Analysis defaults, matching the original diary's sidebar defaults.
const (
	DefaultEffectWindowDays = 1
	DefaultMinIntensity     = LevelLight
	DefaultMinExposureDays  = 4
	MaxEffectWindowDays     = 3
)

// AnalysisParams configures one trigger analysis run.
type AnalysisParams struct {
	// EffectWindowDays is 0 for "same calendar day", or 1..3 days after exposure.
	EffectWindowDays int `json:"effect_window_days"`
	// MinIntensity is the minimum level counted as "consumed that day".
	MinIntensity Level `json:"min_intensity"`
	// MinExposureDays excludes items with fewer distinct exposure days.
	MinExposureDays int        `json:"min_exposure_days"`
	Crisis          CrisisMode `json:"crisis"`
	// CrisisThreshold is the general crisis threshold on the Bristol scale.
	CrisisThreshold int `json:"crisis_threshold"`
}

// DefaultAnalysisParams returns the defaults used when a caller passes nothing.
func DefaultAnalysisParams() AnalysisParams {
	return AnalysisParams{
		EffectWindowDays: DefaultEffectWindowDays,
		MinIntensity:     DefaultMinIntensity,
		MinExposureDays:  DefaultMinExposureDays,
		Crisis:           CrisisGeneral,
		CrisisThreshold:  DefaultCrisisThreshold,
	}
}

// Validate checks the parameter ranges.
func (p AnalysisParams) Validate() error {
	if p.EffectWindowDays < 0 || p.EffectWindowDays > MaxEffectWindowDays {
		return apperrors.NewValidationErrorf("effect window must be between 0 and %d days, got %d", MaxEffectWindowDays, p.EffectWindowDays)
	}
	if !p.MinIntensity.Valid() {
		return apperrors.NewValidationErrorf("min intensity must be 1, 2 or 3, got %d", p.MinIntensity)
	}
	if p.MinExposureDays < 1 {
		return apperrors.NewValidationErrorf("min exposure days must be at least 1, got %d", p.MinExposureDays)
	}
	if _, err := ParseCrisisMode(string(p.Crisis)); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if p.CrisisThreshold < 1 || p.CrisisThreshold > AcuteCrisisScale {
		return apperrors.NewValidationErrorf("crisis threshold must be between 1 and %d, got %d", AcuteCrisisScale, p.CrisisThreshold)
	}
	return nil
}

// Rule returns the crisis predicate selected by the params.
func (p AnalysisParams) Rule() CrisisRule {
	return RuleFor(p.Crisis, p.CrisisThreshold)
}

// TriggerStat is the analysis result for one candidate item.
type TriggerStat struct {
	Item          string   `json:"item"`
	Kind          ItemKind `json:"kind"`
	ExposureDays  int      `json:"exposure_days"`
	TriggeredDays int      `json:"triggered_days"`
	TriggerRate   float64  `json:"trigger_rate"`
	SafetyPct     float64  `json:"safety_pct"`
	Impact        float64  `json:"impact"`
}

// TriggerReport is the output of one trigger analysis run.
type TriggerReport struct {
	Params            AnalysisParams `json:"params"`
	BasalRisk         float64        `json:"basal_risk"`
	TotalBaseDays     int            `json:"total_base_days"`
	CrisisBaseDays    int            `json:"crisis_base_days"`
	SafeHarborEntries int            `json:"safe_harbor_entries"`
	TotalEntries      int            `json:"total_entries"`
	Items             []TriggerStat  `json:"items"`
	// InsufficientData is set when there is no baseline or no item qualified.
	InsufficientData bool      `json:"insufficient_data"`
	LowConfidence    bool      `json:"low_confidence"`
	RegistryVersion  int64     `json:"registry_version"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Safest returns items sorted by safety descending. limit <= 0 means all.
func (r *TriggerReport) Safest(limit int) []TriggerStat {
	out := append([]TriggerStat(nil), r.Items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SafetyPct != out[j].SafetyPct {
			return out[i].SafetyPct > out[j].SafetyPct
		}
		return out[i].Item < out[j].Item
	})
	return head(out, limit)
}

// Suspects returns items with impact above 1.0 sorted by impact descending.
func (r *TriggerReport) Suspects(limit int) []TriggerStat {
	out := make([]TriggerStat, 0, len(r.Items))
	for _, s := range r.Items {
		if s.Impact > 1.0 {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Impact != out[j].Impact {
			return out[i].Impact > out[j].Impact
		}
		return out[i].Item < out[j].Item
	})
	return head(out, limit)
}

func head(stats []TriggerStat, limit int) []TriggerStat {
	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// ItemDays is the number of distinct days an item was consumed.
type ItemDays struct {
	Item string   `json:"item"`
	Kind ItemKind `json:"kind"`
	Days int      `json:"days"`
}

// SymptomCount is the frequency of one symptom tag.
type SymptomCount struct {
	Tag   string  `json:"tag"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// WaistPoint is one waist circumference measurement.
type WaistPoint struct {
	Timestamp time.Time `json:"timestamp"`
	WaistCm   float64   `json:"waist_cm"`
}

// Overview is the whole-diary summary.
type Overview struct {
	TotalEntries      int            `json:"total_entries"`
	TotalDays         int            `json:"total_days"`
	CrisisEntries     int            `json:"crisis_entries"`
	AcuteEntries      int            `json:"acute_entries"`
	SafeHarborEntries int            `json:"safe_harbor_entries"`
	ItemDays          []ItemDays     `json:"item_days"`
	Symptoms          []SymptomCount `json:"symptoms"`
	Waist             []WaistPoint   `json:"waist"`
	FirstEntry        *time.Time     `json:"first_entry,omitempty"`
	LastEntry         *time.Time     `json:"last_entry,omitempty"`
}
