package evaluation

import (
	"strings"
	"testing"

	"github.com/portoseguro/backend/internal/domain/entities"
)

const validScenarios = `[
	{
		"id": "s1",
		"records": [{"Data": "01/03/2024", "Hora": "08:00", "FEIJÃO": "2"}],
		"params": {"window_days": 0, "min_exposure_days": 1},
		"expected_suspects": ["FEIJÃO"],
		"difficulty": "easy"
	},
	{
		"id": "s2",
		"records": [{"Data": "01/03/2024", "Hora": "08:00", "PÃO DE QUEIJO": "1"}],
		"catalog": [
			{"id": "QUEIJO", "kind": "base_food"},
			{"id": "LACTOSE", "kind": "tracker"},
			{"id": "PÃO DE QUEIJO", "kind": "composite", "composite": {"main": ["QUEIJO"], "minor": [], "trackers": ["LACTOSE"]}}
		],
		"expected_suspects": ["LACTOSE"],
		"difficulty": "medium"
	}
]`

func TestLoadGoldenScenarios_ValidFile(t *testing.T) {
	scenarios, err := LoadGoldenScenarios(writeTempFile(t, validScenarios))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("expected 2 scenarios, got %d", len(scenarios))
	}
	if err := ValidateGoldenScenarios(scenarios); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	params := scenarios[0].Params.Resolve()
	if params.EffectWindowDays != 0 {
		t.Errorf("expected explicit window 0, got %d", params.EffectWindowDays)
	}
	if params.MinExposureDays != 1 {
		t.Errorf("expected min exposure 1, got %d", params.MinExposureDays)
	}
	if params.MinIntensity != entities.DefaultMinIntensity {
		t.Errorf("expected default intensity, got %d", params.MinIntensity)
	}

	defaults := scenarios[1].Params.Resolve()
	if defaults != entities.DefaultAnalysisParams() {
		t.Errorf("expected default params, got %+v", defaults)
	}

	reg, err := scenarios[1].Registry()
	if err != nil {
		t.Fatalf("unexpected registry error: %v", err)
	}
	if reg.Len() != 3 {
		t.Errorf("expected 3 catalog items, got %d", reg.Len())
	}
}

func TestLoadGoldenScenarios_Errors(t *testing.T) {
	if _, err := LoadGoldenScenarios("/nonexistent/path.json"); err == nil {
		t.Error("expected error for nonexistent file")
	}
	if _, err := LoadGoldenScenarios(writeTempFile(t, `not valid json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestGoldenScenario_RawRecords(t *testing.T) {
	s := GoldenScenario{ID: "s1", Records: []map[string]any{{"Data": "01/03/2024"}, {"Data": "02/03/2024"}}}

	records := s.RawRecords()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].ID != "s1-002" || records[1].Seq != 2 {
		t.Errorf("unexpected record identity %s/%d", records[1].ID, records[1].Seq)
	}
}

func TestValidateGoldenScenarios(t *testing.T) {
	row := []map[string]any{{"Data": "01/03/2024"}}
	valid := func() GoldenScenario {
		return GoldenScenario{ID: "s1", Records: row, ExpectedSuspects: []string{"FEIJÃO"}, Difficulty: DifficultyEasy}
	}

	tests := []struct {
		name    string
		mutate  func(s []GoldenScenario) []GoldenScenario
		wantErr string
	}{
		{"missing id", func(s []GoldenScenario) []GoldenScenario { s[0].ID = ""; return s }, "missing id"},
		{"duplicate id", func(s []GoldenScenario) []GoldenScenario { return append(s, valid()) }, "duplicate id"},
		{"no records", func(s []GoldenScenario) []GoldenScenario { s[0].Records = nil; return s }, "no records"},
		{"no expectations", func(s []GoldenScenario) []GoldenScenario { s[0].ExpectedSuspects = nil; return s }, "expected suspects"},
		{"bad difficulty", func(s []GoldenScenario) []GoldenScenario { s[0].Difficulty = "extreme"; return s }, "invalid difficulty"},
		{"bad window", func(s []GoldenScenario) []GoldenScenario {
			s[0].Params = &ScenarioParams{WindowDays: intPtr(7)}
			return s
		}, "effect window"},
		{"bad crisis mode", func(s []GoldenScenario) []GoldenScenario {
			s[0].Params = &ScenarioParams{Crisis: "chronic"}
			return s
		}, "s1"},
		{"composite without definition", func(s []GoldenScenario) []GoldenScenario {
			s[0].Catalog = []entities.Item{{ID: "PÃO DE QUEIJO", Kind: entities.ItemKindComposite}}
			return s
		}, "invalid catalog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGoldenScenarios(tt.mutate([]GoldenScenario{valid()}))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	if err := ValidateGoldenScenarios([]GoldenScenario{valid()}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGoldenScenariosFile(t *testing.T) {
	scenarios, err := LoadGoldenScenarios("../../config/golden_scenarios.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatal("expected at least one scenario")
	}
	if err := ValidateGoldenScenarios(scenarios); err != nil {
		t.Fatalf("golden scenarios are invalid: %v", err)
	}
}
