package evaluation

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenarios.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func intPtr(v int) *int { return &v }

// periodicDiary is 28 days of ARROZ every morning; trigger is eaten every
// sixth day from day 4 and followed by a loose stool that evening. Three calm
// days after each crisis keep the next exposure in the baseline.
func periodicDiary(trigger string) []map[string]any {
	var rows []map[string]any
	for day := 1; day <= 28; day++ {
		date := fmt.Sprintf("%02d/03/2024", day)
		morning := map[string]any{"Data": date, "Hora": "08:00", "Escala de Bristol": "4", "ARROZ": "2"}
		exposed := day%6 == 4
		if exposed {
			morning[trigger] = "2"
		}
		rows = append(rows, morning)
		if exposed {
			rows = append(rows, map[string]any{"Data": date, "Hora": "20:00", "Escala de Bristol": "6", "Diarreia": "S"})
		}
	}
	return rows
}
