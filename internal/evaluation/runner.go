package evaluation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/portoseguro/backend/internal/analysis"
	"github.com/portoseguro/backend/pkg/utils"
)

// Runner scores the suspects ranking of each golden scenario.
type Runner struct {
	pipeline *analysis.Pipeline
	k        int
}

// NewRunner creates a runner; k <= 0 uses DefaultK.
func NewRunner(cfg analysis.PipelineConfig, k int) *Runner {
	if k <= 0 {
		k = DefaultK
	}
	return &Runner{pipeline: analysis.NewPipeline(cfg), k: k}
}

// Run evaluates every scenario. A scenario that fails to analyze scores zero
// and is counted in Failed.
func (r *Runner) Run(ctx context.Context, scenarios []GoldenScenario) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalScenarios: len(scenarios),
		K:              r.k,
		ByDifficulty:   make(map[Difficulty]*DifficultySummary),
		Results:        make([]EvalResult, 0, len(scenarios)),
	}

	for i := range scenarios {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := r.evaluate(&scenarios[i])
		if result.Error != "" {
			log.Warn().Str("scenario", result.ScenarioID).Str("error", result.Error).Msg("scenario failed")
		}
		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) evaluate(s *GoldenScenario) EvalResult {
	result := EvalResult{ScenarioID: s.ID, Difficulty: s.Difficulty, Suspects: []string{}}

	start := time.Now()
	registry, err := s.Registry()
	if err != nil {
		result.Error = err.Error()
		return result
	}
	report, err := r.pipeline.Triggers(s.RawRecords(), registry, s.Params.Resolve())
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	for _, stat := range report.Suspects(0) {
		result.Suspects = append(result.Suspects, stat.Item)
	}
	expected := make([]string, len(s.ExpectedSuspects))
	for i, name := range s.ExpectedSuspects {
		expected[i] = utils.CanonicalItemID(name)
	}

	result.RecallAtK = RecallAtK(expected, result.Suspects, r.k)
	result.MRRAtK = MRRAtK(expected, result.Suspects, r.k)
	result.BasalRisk = report.BasalRisk
	result.LowConfidence = report.LowConfidence
	result.InsufficientData = report.InsufficientData
	return result
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.Results = append(s.Results, res)
	s.AvgRecallAtK += res.RecallAtK
	s.AvgMRRAtK += res.MRRAtK
	s.AvgLatency += res.Latency
	if res.Error != "" {
		s.Failed++
	}
	if len(res.Suspects) > 0 {
		s.ScenariosWithSuspects++
	}

	ds, ok := s.ByDifficulty[res.Difficulty]
	if !ok {
		ds = &DifficultySummary{}
		s.ByDifficulty[res.Difficulty] = ds
	}
	ds.Count++
	ds.AvgRecallAtK += res.RecallAtK
	ds.AvgMRRAtK += res.MRRAtK
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalScenarios > 0 {
		n := float64(s.TotalScenarios)
		s.AvgRecallAtK /= n
		s.AvgMRRAtK /= n
		s.AvgLatency /= time.Duration(s.TotalScenarios)
	}

	for _, ds := range s.ByDifficulty {
		if ds.Count > 0 {
			n := float64(ds.Count)
			ds.AvgRecallAtK /= n
			ds.AvgMRRAtK /= n
		}
	}
}
