package evaluation

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"all found", []string{"FEIJÃO", "LEITE"}, []string{"LEITE", "FEIJÃO", "OVO"}, 5, 1.0},
		{"half found", []string{"FEIJÃO", "LEITE", "OVO", "SOJA"}, []string{"FEIJÃO", "OVO", "ARROZ"}, 5, 0.5},
		{"cut by k", []string{"FEIJÃO"}, []string{"ARROZ", "OVO", "FEIJÃO"}, 2, 0.0},
		{"no suspects", []string{"FEIJÃO"}, []string{}, 5, 0.0},
		{"nothing expected", []string{}, []string{"FEIJÃO"}, 5, 0.0},
		{"duplicate expectation", []string{"FEIJÃO", "FEIJÃO"}, []string{"FEIJÃO"}, 5, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecallAtK(tt.relevant, tt.retrieved, tt.k)
			if !almostEqual(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestMRRAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"first", []string{"FEIJÃO"}, []string{"FEIJÃO", "OVO"}, 5, 1.0},
		{"third", []string{"LEITE", "FEIJÃO"}, []string{"ARROZ", "OVO", "FEIJÃO", "LEITE"}, 5, 1.0 / 3.0},
		{"beyond k", []string{"FEIJÃO"}, []string{"ARROZ", "OVO", "FEIJÃO"}, 2, 0.0},
		{"no suspects", []string{"FEIJÃO"}, nil, 5, 0.0},
		{"nothing expected", nil, []string{"FEIJÃO"}, 5, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MRRAtK(tt.relevant, tt.retrieved, tt.k)
			if !almostEqual(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}
