package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/portoseguro/backend/internal/domain/entities"
)

type triggersOutput struct {
	Report   *entities.TriggerReport `json:"report"`
	Safest   []entities.TriggerStat  `json:"safest"`
	Suspects []entities.TriggerStat  `json:"suspects"`
}

func newTriggersCmd(opts *options) *cobra.Command {
	var (
		window    int
		intensity int
		minDays   int
		threshold int
		crisis    string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "Rank foods by how often a crisis followed them",
		Long: `Runs the trigger analysis over the safe-harbor days of the diary.

Items consumed on a calm day are followed for the effect window; the
trigger rate is compared against the basal risk of the baseline days.`,
		Example: `  portoseguro triggers --csv diario.csv
  portoseguro triggers --csv diario.csv --window 0 --crisis acute --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeFn, err := opts.analysisService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			params := svc.Defaults()
			flags := cmd.Flags()
			if flags.Changed("window") {
				params.EffectWindowDays = window
			}
			if flags.Changed("min-intensity") {
				params.MinIntensity = entities.Level(intensity)
			}
			if flags.Changed("min-days") {
				params.MinExposureDays = minDays
			}
			if flags.Changed("crisis-threshold") {
				params.CrisisThreshold = threshold
			}
			if flags.Changed("crisis") {
				params.Crisis = entities.CrisisMode(strings.ToLower(crisis))
			}

			report, err := svc.Triggers(ctx, params)
			if err != nil {
				return err
			}
			out := triggersOutput{
				Report:   report,
				Safest:   report.Safest(limit),
				Suspects: report.Suspects(limit),
			}

			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderTriggers(out))
			return err
		},
	}

	cmd.Flags().IntVarP(&window, "window", "w", entities.DefaultEffectWindowDays, "Effect window in days (0 = same day, max 3)")
	cmd.Flags().IntVarP(&intensity, "min-intensity", "i", int(entities.DefaultMinIntensity), "Minimum consumption level counted as exposure (1-3)")
	cmd.Flags().IntVarP(&minDays, "min-days", "d", entities.DefaultMinExposureDays, "Minimum distinct exposure days for an item to be scored")
	cmd.Flags().IntVar(&threshold, "crisis-threshold", entities.DefaultCrisisThreshold, "Bristol scale from which an entry is a general crisis")
	cmd.Flags().StringVarP(&crisis, "crisis", "c", string(entities.CrisisGeneral), "Crisis definition: general or acute")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Items listed per ranking (0 = all)")
	return cmd
}

func renderTriggers(out triggersOutput) string {
	r := out.Report
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Trigger analysis"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Window: %d day(s)  Min intensity: %d  Min days: %d  Crisis: %s (>= %d)\n",
		r.Params.EffectWindowDays, r.Params.MinIntensity, r.Params.MinExposureDays, r.Params.Crisis, r.Params.CrisisThreshold)
	fmt.Fprintf(&sb, "Entries: %d  Safe-harbor entries: %d  Base days: %d  Crisis base days: %d\n",
		r.TotalEntries, r.SafeHarborEntries, r.TotalBaseDays, r.CrisisBaseDays)
	fmt.Fprintf(&sb, "Basal risk: %.1f%%\n\n", r.BasalRisk*100)

	if r.InsufficientData {
		sb.WriteString(warnStyle.Render("Not enough safe-harbor days or exposures to score any item."))
		sb.WriteString("\n")
		return sb.String()
	}
	if r.LowConfidence {
		sb.WriteString(warnStyle.Render("Low confidence: the baseline is still small, treat the ranking as a hint."))
		sb.WriteString("\n\n")
	}

	suspects := newTable("Suspects", "Item", "Kind", "Days", "Crises", "Rate", "Impact")
	for _, s := range out.Suspects {
		suspects.addRow(s.Item, string(s.Kind),
			fmt.Sprint(s.ExposureDays), fmt.Sprint(s.TriggeredDays),
			fmt.Sprintf("%.0f%%", s.TriggerRate*100),
			alertStyle.Render(fmt.Sprintf("%.2fx", s.Impact)))
	}
	sb.WriteString(suspects.render("No item raises the risk above the baseline."))

	safest := newTable("Safest", "Item", "Kind", "Days", "Crises", "Safety", "Impact")
	for _, s := range out.Safest {
		safest.addRow(s.Item, string(s.Kind),
			fmt.Sprint(s.ExposureDays), fmt.Sprint(s.TriggeredDays),
			fmt.Sprintf("%.0f%%", s.SafetyPct),
			fmt.Sprintf("%.2fx", s.Impact))
	}
	sb.WriteString(safest.render("No item qualified."))
	return sb.String()
}
