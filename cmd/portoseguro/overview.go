package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/portoseguro/backend/internal/domain/entities"
)

func newOverviewCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Summarize the whole diary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeFn, err := opts.analysisService(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			overview, err := svc.Overview(ctx, limit)
			if err != nil {
				return err
			}
			if opts.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), overview)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderOverview(overview, time.Now()))
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Symptoms listed (0 = all)")
	return cmd
}

func renderOverview(o *entities.Overview, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Diary overview"))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Entries: %s over %s day(s)\n",
		humanize.Comma(int64(o.TotalEntries)), humanize.Comma(int64(o.TotalDays)))
	if o.FirstEntry != nil && o.LastEntry != nil {
		fmt.Fprintf(&sb, "From %s to %s (last entry %s)\n",
			o.FirstEntry.Format("02/01/2006"), o.LastEntry.Format("02/01/2006"),
			humanize.RelTime(*o.LastEntry, now, "ago", "from now"))
	}
	fmt.Fprintf(&sb, "Crisis entries: %d (acute %d)  Safe-harbor entries: %d\n\n",
		o.CrisisEntries, o.AcuteEntries, o.SafeHarborEntries)

	items := newTable("Consumption", "Item", "Kind", "Days")
	for _, it := range o.ItemDays {
		items.addRow(it.Item, string(it.Kind), fmt.Sprint(it.Days))
	}
	sb.WriteString(items.render("Nothing consumed yet."))

	symptoms := newTable("Symptoms", "Symptom", "Count", "Share")
	for _, s := range o.Symptoms {
		symptoms.addRow(s.Tag, fmt.Sprint(s.Count), fmt.Sprintf("%.1f%%", s.Pct))
	}
	sb.WriteString(symptoms.render("No symptoms recorded."))

	if n := len(o.Waist); n > 0 {
		w := o.Waist[n-1]
		fmt.Fprintf(&sb, "Latest waist: %.1f cm (%s, %d measurements)\n",
			w.WaistCm, humanize.RelTime(w.Timestamp, now, "ago", "from now"), n)
	}
	return sb.String()
}
