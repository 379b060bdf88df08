package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/portoseguro/backend/internal/domain/entities"
)

const (
	// DefaultLookbackDays is the crisis-free window required before an entry.
	DefaultLookbackDays = 3
	// minPriorEntries is a positional floor: the first three entries of the
	// history are never safe harbor, however far apart they are.
	minPriorEntries = 3
)

// ErrUnsortedEntries is returned when entries are not in chronological order.
var ErrUnsortedEntries = errors.New("entries are not sorted by timestamp")

// SafeHarborOptions configures the classifier.
type SafeHarborOptions struct {
	LookbackDays int
	Crisis       entities.CrisisRule
}

func (o SafeHarborOptions) withDefaults() SafeHarborOptions {
	if o.LookbackDays <= 0 {
		o.LookbackDays = DefaultLookbackDays
	}
	if o.Crisis.Mode == "" {
		o.Crisis = entities.GeneralCrisis(o.Crisis.Threshold)
	}
	return o
}

// ClassifySafeHarbor labels each entry of a chronologically sorted history.
// flags[i] is true iff i >= 3 and the entries with timestamp in
// [t_i - lookback, t_i) are non-empty and contain no crisis. Only the raw
// crisis status of window members is inspected.
func ClassifySafeHarbor(entries []entities.LogEntry, opts SafeHarborOptions) ([]bool, error) {
	opts = opts.withDefaults()
	if err := checkSorted(entries); err != nil {
		return nil, err
	}

	flags := make([]bool, len(entries))
	if len(entries) == 0 {
		return flags, nil
	}

	// crises[k] is the number of crisis entries in entries[:k].
	crises := make([]int, len(entries)+1)
	for i := range entries {
		crises[i+1] = crises[i]
		if opts.Crisis.Matches(&entries[i]) {
			crises[i+1]++
		}
	}

	// The lookback is measured in calendar days of the entry's location, so
	// a DST change inside the window does not shift it by an hour.
	lo, hi := 0, 0
	for i := range entries {
		t := entries[i].Timestamp
		from := t.AddDate(0, 0, -opts.LookbackDays)
		for lo < i && entries[lo].Timestamp.Before(from) {
			lo++
		}
		for hi < i && entries[hi].Timestamp.Before(t) {
			hi++
		}
		if i < minPriorEntries {
			continue
		}
		if hi-lo == 0 {
			continue
		}
		flags[i] = crises[hi]-crises[lo] == 0
	}
	return flags, nil
}

// ApplySafeHarbor returns copies of entries with IsSafeHarbor set from flags.
func ApplySafeHarbor(entries []entities.LogEntry, flags []bool) []entities.LogEntry {
	out := make([]entities.LogEntry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].IsSafeHarbor = i < len(flags) && flags[i]
	}
	return out
}

// LabelSafeHarbor classifies and applies in one step.
func LabelSafeHarbor(entries []entities.LogEntry, opts SafeHarborOptions) ([]entities.LogEntry, error) {
	flags, err := ClassifySafeHarbor(entries, opts)
	if err != nil {
		return nil, err
	}
	return ApplySafeHarbor(entries, flags), nil
}

func checkSorted(entries []entities.LogEntry) error {
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[i-1].Timestamp) {
			return fmt.Errorf("%w: entry %d (%s) precedes entry %d", ErrUnsortedEntries,
				i, entries[i].Timestamp.Format(time.RFC3339), i-1)
		}
	}
	return nil
}
