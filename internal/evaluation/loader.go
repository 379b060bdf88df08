package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadGoldenScenarios reads and parses a golden scenario set from a JSON file.
func LoadGoldenScenarios(path string) ([]GoldenScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden scenarios file: %w", err)
	}

	var scenarios []GoldenScenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse golden scenarios: %w", err)
	}

	return scenarios, nil
}

// ValidateGoldenScenarios checks that all scenarios have required fields and valid values.
func ValidateGoldenScenarios(scenarios []GoldenScenario) error {
	seen := make(map[string]struct{}, len(scenarios))

	for i := range scenarios {
		s := &scenarios[i]
		if s.ID == "" {
			return fmt.Errorf("scenario at index %d: missing id", i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("scenario at index %d: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = struct{}{}

		if len(s.Records) == 0 {
			return fmt.Errorf("scenario %q: no records", s.ID)
		}
		if len(s.ExpectedSuspects) == 0 {
			return fmt.Errorf("scenario %q: missing expected suspects", s.ID)
		}
		if !s.Difficulty.IsValid() {
			return fmt.Errorf("scenario %q: invalid difficulty %q (must be easy/medium/hard)", s.ID, s.Difficulty)
		}
		if err := s.Params.Resolve().Validate(); err != nil {
			return fmt.Errorf("scenario %q: %w", s.ID, err)
		}
		if _, err := s.Registry(); err != nil {
			return fmt.Errorf("scenario %q: invalid catalog: %w", s.ID, err)
		}
	}

	return nil
}
