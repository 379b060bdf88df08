package analysis

import (
	"sort"
	"time"

	"github.com/portoseguro/backend/internal/domain/entities"
)

// TriggerAnalyzer scores candidate items against subsequent crises.
type TriggerAnalyzer struct {
	registry   *entities.Registry
	guardrails *Guardrails
	now        func() time.Time
}

// NewTriggerAnalyzer creates an analyzer for one registry snapshot. A nil
// guardrails uses the defaults.
func NewTriggerAnalyzer(registry *entities.Registry, guardrails *Guardrails) *TriggerAnalyzer {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	return &TriggerAnalyzer{
		registry:   registry,
		guardrails: guardrails,
		now:        time.Now,
	}
}

// Analyze computes the trigger report over entries already labeled by the
// safe-harbor classifier. Only invalid params produce an error; a history
// without baseline or without qualifying items yields InsufficientData.
func (a *TriggerAnalyzer) Analyze(entries []entities.LogEntry, params entities.AnalysisParams) (*entities.TriggerReport, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	rule := params.Rule()

	report := &entities.TriggerReport{
		Params:          params,
		TotalEntries:    len(entries),
		Items:           []entities.TriggerStat{},
		RegistryVersion: a.registry.Version(),
		GeneratedAt:     a.now().UTC(),
	}

	baseDays := make(map[string]struct{})
	crisisBaseDays := make(map[string]struct{})
	// dayStart maps each base date to local midnight of that date.
	dayStart := make(map[string]time.Time)
	var crisisTimes []time.Time

	for i := range entries {
		e := &entries[i]
		isCrisis := rule.Matches(e)
		if isCrisis {
			crisisTimes = append(crisisTimes, e.Timestamp)
		}
		if !e.IsSafeHarbor {
			continue
		}
		report.SafeHarborEntries++
		baseDays[e.Date] = struct{}{}
		if _, ok := dayStart[e.Date]; !ok {
			y, m, d := e.Timestamp.Date()
			dayStart[e.Date] = time.Date(y, m, d, 0, 0, 0, 0, e.Timestamp.Location())
		}
		if isCrisis {
			crisisBaseDays[e.Date] = struct{}{}
		}
	}
	sort.Slice(crisisTimes, func(i, j int) bool { return crisisTimes[i].Before(crisisTimes[j]) })

	report.TotalBaseDays = len(baseDays)
	report.CrisisBaseDays = len(crisisBaseDays)
	if report.TotalBaseDays > 0 {
		report.BasalRisk = float64(report.CrisisBaseDays) / float64(report.TotalBaseDays)
	}

	if report.TotalBaseDays > 0 {
		for _, item := range a.registry.Candidates() {
			stat, ok := a.scoreItem(item, entries, params, dayStart, crisisTimes, report.BasalRisk)
			if ok {
				report.Items = append(report.Items, stat)
			}
		}
	}

	report.InsufficientData = report.TotalBaseDays == 0 || len(report.Items) == 0
	report.LowConfidence = !a.guardrails.ShouldTrust(report)
	return report, nil
}

func (a *TriggerAnalyzer) scoreItem(
	item entities.Item,
	entries []entities.LogEntry,
	params entities.AnalysisParams,
	dayStart map[string]time.Time,
	crisisTimes []time.Time,
	basalRisk float64,
) (entities.TriggerStat, bool) {
	exposed := make(map[string]struct{})
	for i := range entries {
		e := &entries[i]
		if e.IsSafeHarbor && e.Level(item.ID) >= params.MinIntensity {
			exposed[e.Date] = struct{}{}
		}
	}
	exposureDays := len(exposed)
	if exposureDays == 0 || exposureDays < params.MinExposureDays {
		return entities.TriggerStat{}, false
	}

	triggered := 0
	for date := range exposed {
		start := dayStart[date]
		if crisisInWindow(crisisTimes, start, windowEnd(start, params.EffectWindowDays)) {
			triggered++
		}
	}
	if triggered > exposureDays {
		triggered = exposureDays
	}

	stat := entities.TriggerStat{
		Item:          item.ID,
		Kind:          item.Kind,
		ExposureDays:  exposureDays,
		TriggeredDays: triggered,
		TriggerRate:   float64(triggered) / float64(exposureDays),
		SafetyPct:     float64(exposureDays-triggered) * 100 / float64(exposureDays),
	}
	if basalRisk > 0 {
		stat.Impact = stat.TriggerRate / basalRisk
	}
	return stat, true
}

// windowEnd uses wall-clock arithmetic in start's location: a window of 0
// days ends at 23:59 of the exposure day, N days ends at midnight N calendar
// days later.
func windowEnd(start time.Time, days int) time.Time {
	if days == 0 {
		y, m, d := start.Date()
		return time.Date(y, m, d, 23, 59, 0, 0, start.Location())
	}
	return start.AddDate(0, 0, days)
}

// crisisInWindow reports whether any crisis falls in (start, end].
func crisisInWindow(crisisTimes []time.Time, start, end time.Time) bool {
	i := sort.Search(len(crisisTimes), func(i int) bool { return crisisTimes[i].After(start) })
	return i < len(crisisTimes) && !crisisTimes[i].After(end)
}
