package evaluation

import (
	"fmt"
	"strings"
	"time"

	"github.com/portoseguro/backend/internal/adapters/file"
	"github.com/portoseguro/backend/internal/domain/entities"
)

// Difficulty grades how much noise surrounds the planted triggers.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"   // one trigger, regular calm days
	DifficultyMedium Difficulty = "medium" // composites or a non-default window
	DifficultyHard   Difficulty = "hard"   // distractors consumed around crises
)

// ValidDifficulties returns all valid difficulty values.
func ValidDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// IsValid checks if the difficulty is one of the defined constants.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ScenarioParams overrides the default analysis params. Unset fields keep
// the default, so an explicit window of 0 days is distinguishable.
type ScenarioParams struct {
	WindowDays      *int   `json:"window_days,omitempty"`
	MinIntensity    *int   `json:"min_intensity,omitempty"`
	MinExposureDays *int   `json:"min_exposure_days,omitempty"`
	Crisis          string `json:"crisis,omitempty"`
	CrisisThreshold *int   `json:"crisis_threshold,omitempty"`
}

// Resolve applies the overrides on top of the default params.
func (p *ScenarioParams) Resolve() entities.AnalysisParams {
	params := entities.DefaultAnalysisParams()
	if p == nil {
		return params
	}
	if p.WindowDays != nil {
		params.EffectWindowDays = *p.WindowDays
	}
	if p.MinIntensity != nil {
		params.MinIntensity = entities.Level(*p.MinIntensity)
	}
	if p.MinExposureDays != nil {
		params.MinExposureDays = *p.MinExposureDays
	}
	if p.Crisis != "" {
		params.Crisis = entities.CrisisMode(strings.ToLower(p.Crisis))
	}
	if p.CrisisThreshold != nil {
		params.CrisisThreshold = *p.CrisisThreshold
	}
	return params
}

// GoldenScenario is a labeled diary with the items known to trigger crises.
type GoldenScenario struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	// Records are sheet rows keyed by column header.
	Records []map[string]any `json:"records"`
	// Catalog replaces the built-in catalog when set.
	Catalog          []entities.Item `json:"catalog,omitempty"`
	Params           *ScenarioParams `json:"params,omitempty"`
	ExpectedSuspects []string        `json:"expected_suspects"`
	Difficulty       Difficulty      `json:"difficulty"`
}

// RawRecords converts the rows into store records numbered in file order.
func (s *GoldenScenario) RawRecords() []*entities.RawRecord {
	records := make([]*entities.RawRecord, len(s.Records))
	for i, fields := range s.Records {
		records[i] = &entities.RawRecord{
			ID:     fmt.Sprintf("%s-%03d", s.ID, i+1),
			Seq:    int64(i + 1),
			Fields: fields,
		}
	}
	return records
}

// Registry builds the scenario catalog.
func (s *GoldenScenario) Registry() (*entities.Registry, error) {
	if len(s.Catalog) == 0 {
		return file.DefaultRegistry(), nil
	}
	return entities.NewRegistry(1, s.Catalog)
}

// EvalResult holds the evaluation outcome for a single scenario.
type EvalResult struct {
	ScenarioID       string        `json:"scenario_id"`
	Difficulty       Difficulty    `json:"difficulty"`
	RecallAtK        float64       `json:"recall_at_k"`
	MRRAtK           float64       `json:"mrr_at_k"`
	Suspects         []string      `json:"suspects"`
	BasalRisk        float64       `json:"basal_risk"`
	LowConfidence    bool          `json:"low_confidence"`
	InsufficientData bool          `json:"insufficient_data"`
	Latency          time.Duration `json:"latency_ns"`
	Error            string        `json:"error,omitempty"`
}

// EvalSummary holds aggregate metrics across all golden scenarios.
type EvalSummary struct {
	TotalScenarios        int                               `json:"total_scenarios"`
	K                     int                               `json:"k"`
	AvgRecallAtK          float64                           `json:"avg_recall_at_k"`
	AvgMRRAtK             float64                           `json:"avg_mrr_at_k"`
	AvgLatency            time.Duration                     `json:"avg_latency_ns"`
	ScenariosWithSuspects int                               `json:"scenarios_with_suspects"`
	Failed                int                               `json:"failed"`
	ByDifficulty          map[Difficulty]*DifficultySummary `json:"by_difficulty"`
	Results               []EvalResult                      `json:"results"`
}

// DifficultySummary holds metrics grouped by difficulty.
type DifficultySummary struct {
	Count        int     `json:"count"`
	AvgRecallAtK float64 `json:"avg_recall_at_k"`
	AvgMRRAtK    float64 `json:"avg_mrr_at_k"`
}
