package analysis

import (
	"time"

	"github.com/portoseguro/backend/internal/domain/entities"
)

// PipelineConfig holds the settings shared by one full analysis pass.
type PipelineConfig struct {
	Location        *time.Location
	CrisisThreshold int
	LookbackDays    int
	Guardrails      GuardrailConfig
}

// Pipeline runs normalize, classify and analyze over one immutable snapshot.
// It holds no state between runs.
type Pipeline struct {
	config PipelineConfig
}

// NewPipeline creates a pipeline; zero config values fall back to defaults.
func NewPipeline(config PipelineConfig) *Pipeline {
	return &Pipeline{config: config}
}

// Entries normalizes the records and labels safe harbor entries.
func (p *Pipeline) Entries(records []*entities.RawRecord, registry *entities.Registry) ([]entities.LogEntry, NormalizeStats, error) {
	normalizer := NewNormalizer(registry, NormalizerConfig{
		Location:        p.config.Location,
		CrisisThreshold: p.config.CrisisThreshold,
	})
	entries, stats := normalizer.Normalize(records)

	labeled, err := LabelSafeHarbor(entries, SafeHarborOptions{
		LookbackDays: p.config.LookbackDays,
		Crisis:       entities.GeneralCrisis(p.config.CrisisThreshold),
	})
	if err != nil {
		return nil, stats, err
	}
	return labeled, stats, nil
}

// Triggers runs the full pass and returns the trigger report.
func (p *Pipeline) Triggers(records []*entities.RawRecord, registry *entities.Registry, params entities.AnalysisParams) (*entities.TriggerReport, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	entries, _, err := p.Entries(records, registry)
	if err != nil {
		return nil, err
	}
	return p.Analyze(entries, registry, params)
}

// Analyze runs the trigger analyzer over entries already produced by Entries.
func (p *Pipeline) Analyze(entries []entities.LogEntry, registry *entities.Registry, params entities.AnalysisParams) (*entities.TriggerReport, error) {
	analyzer := NewTriggerAnalyzer(registry, NewGuardrails(p.config.Guardrails))
	return analyzer.Analyze(entries, params)
}

// Overview runs normalization and classification and summarizes the diary.
func (p *Pipeline) Overview(records []*entities.RawRecord, registry *entities.Registry, symptomLimit int) (*entities.Overview, error) {
	entries, _, err := p.Entries(records, registry)
	if err != nil {
		return nil, err
	}
	return BuildOverview(entries, registry, symptomLimit), nil
}
