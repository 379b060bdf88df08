package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/portoseguro/backend/internal/application/services"
	"github.com/portoseguro/backend/internal/domain/entities"
)

func newEntriesCmd(opts *options) *cobra.Command {
	var (
		last       int
		crisisOnly bool
	)

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List the normalized diary with crisis and safe-harbor flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeFn, err := opts.analysisService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := svc.Entries(ctx)
			if err != nil {
				return err
			}
			result.Entries = selectEntries(result.Entries, crisisOnly, last)

			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderEntries(result))
			return err
		},
	}

	cmd.Flags().IntVarP(&last, "last", "n", 0, "Only the most recent N entries (0 = all)")
	cmd.Flags().BoolVar(&crisisOnly, "crisis-only", false, "Only entries flagged as a general crisis")
	return cmd
}

func selectEntries(entries []entities.LogEntry, crisisOnly bool, last int) []entities.LogEntry {
	if crisisOnly {
		kept := entries[:0:0]
		for _, e := range entries {
			if e.IsCrisis {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	if last > 0 && len(entries) > last {
		entries = entries[len(entries)-last:]
	}
	return entries
}

func renderEntries(result *services.EntriesResult) string {
	var sb strings.Builder

	t := newTable("Diary", "Date", "Time", "Bristol", "Crisis", "Safe", "Consumed")
	for _, e := range result.Entries {
		stool := "-"
		if e.Stool != nil {
			stool = fmt.Sprint(*e.Stool)
		}
		crisis := ""
		switch {
		case e.IsAcuteCrisis:
			crisis = alertStyle.Render("acute")
		case e.IsCrisis:
			crisis = warnStyle.Render("yes")
		}
		safe := ""
		if e.IsSafeHarbor {
			safe = "yes"
		}
		t.addRow(e.Date, e.Timestamp.Format("15:04"), stool, crisis, safe, consumed(e))
	}
	sb.WriteString(t.render("No entries."))

	stats := result.Stats
	fmt.Fprintf(&sb, "%d rows read, %d kept, %d dropped\n", stats.Total, stats.Kept, stats.Dropped)
	if len(stats.UnknownColumns) > 0 {
		sb.WriteString(warnStyle.Render("Columns not in the catalog: " + strings.Join(stats.UnknownColumns, ", ")))
		sb.WriteString("\n")
	}
	return sb.String()
}

// consumed lists items as NAME(level), heaviest first.
func consumed(e entities.LogEntry) string {
	names := make([]string, 0, len(e.Consumption))
	for name, level := range e.Consumption {
		if level > entities.LevelNone {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := e.Consumption[names[i]], e.Consumption[names[j]]
		if li != lj {
			return li > lj
		}
		return names[i] < names[j]
	})
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s(%d)", name, e.Consumption[name])
	}
	return strings.Join(parts, ", ")
}
