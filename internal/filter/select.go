package filter

import (
	"time"

	"github.com/samber/lo"

	"feed_notifier/internal/model"
)

// Selection is an entry chosen for notification together with its identifier.
type Selection struct {
	Entry model.Entry
	ID    string
}

// Select picks the entries of one feed cycle that should be notified.
//
// Entries are walked oldest-first (the reverse of the delivered order).
// Entries without an identifier, already seen, older than MaxAgeDays or
// rejected by the feed's rules are skipped; only selected entries are
// added to the returned seen-set. Once MaxPerCycle entries are selected
// the walk stops and the remaining unseen entries wait for the next cycle.
// The input seen-set is not modified.
func Select(entries []model.Entry, feed model.FeedConfig, seen model.SeenSet, now time.Time) ([]Selection, model.SeenSet) {
	updated := seen.Clone()

	var cutoff time.Time
	if feed.MaxAgeDays > 0 {
		cutoff = now.Add(-time.Duration(feed.MaxAgeDays) * 24 * time.Hour)
	}

	ordered := lo.Reverse(append([]model.Entry(nil), entries...))

	var selected []Selection
	for _, e := range ordered {
		id := e.Identifier()
		if id == "" || updated.Has(id) {
			continue
		}
		if !cutoff.IsZero() {
			if ts := e.Timestamp(); ts != nil && ts.Before(cutoff) {
				continue
			}
		}
		if !Match(e, feed.Rules) {
			continue
		}
		if feed.MaxPerCycle > 0 && len(selected) >= feed.MaxPerCycle {
			break
		}
		selected = append(selected, Selection{Entry: e, ID: id})
		updated.Add(id)
	}

	return selected, updated
}
