package analysis

import "github.com/portoseguro/backend/internal/domain/entities"

// GuardrailConfig bounds how much a report is trusted and how much is shown.
type GuardrailConfig struct {
	MinBaseDays int
	MaxListed   int
}

// Guardrails flags thin baselines and truncates result views.
type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MinBaseDays <= 0 {
		config.MinBaseDays = 7
	}
	if config.MaxListed <= 0 {
		config.MaxListed = 15
	}
	return &Guardrails{config: config}
}

// ShouldTrust reports whether the safe-harbor baseline is large enough.
func (g *Guardrails) ShouldTrust(report *entities.TriggerReport) bool {
	return report.TotalBaseDays >= g.config.MinBaseDays
}

// Limit truncates a view to MaxListed rows.
func (g *Guardrails) Limit(stats []entities.TriggerStat) []entities.TriggerStat {
	if len(stats) > g.config.MaxListed {
		return stats[:g.config.MaxListed]
	}
	return stats
}

// MaxListed returns the configured view size.
func (g *Guardrails) MaxListed() int {
	return g.config.MaxListed
}
