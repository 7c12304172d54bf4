// Package model defines the domain types used across the application.
package model

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"feed_notifier/internal/message"
)

// FeedConfig is the fully resolved configuration of a single feed.
// Global and destination-group defaults are already merged in.
type FeedConfig struct {
	URL            string
	Destination    string
	Name           string
	Username       string
	Interval       time.Duration
	Delay          time.Duration
	MaxPerCycle    int
	MaxAgeDays     int
	Template       message.Template
	DisablePreview bool
	Rules          []Rule

	// Extra holds feed-level keys that are not recognized options.
	Extra map[string]any
}

// DisplayName returns the label used as the notification source.
func (f FeedConfig) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.URL
}

// Entry is a single item delivered by a feed source.
type Entry struct {
	ID        string
	Title     string
	Link      string
	Summary   string
	Published *time.Time
	Updated   *time.Time
}

// Identifier returns the entry ID, falling back to its link.
func (e Entry) Identifier() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Link
}

// Timestamp returns the published time, falling back to the updated time.
func (e Entry) Timestamp() *time.Time {
	if e.Published != nil {
		return e.Published
	}
	return e.Updated
}

// SeenSet holds the identifiers of entries already notified for a feed.
type SeenSet map[string]struct{}

// NewSeenSet creates a SeenSet containing ids.
func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Has reports whether id is in the set.
func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s SeenSet) Add(id string) {
	s[id] = struct{}{}
}

// Clone returns an independent copy of the set.
func (s SeenSet) Clone() SeenSet {
	out := make(SeenSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// IDs returns the identifiers in sorted order.
func (s SeenSet) IDs() []string {
	ids := lo.Keys(s)
	slices.Sort(ids)
	return ids
}

// RuleKind defines the type of a keyword rule.
type RuleKind string

// Supported rule kinds.
const (
	RuleInclude   RuleKind = "include"
	RuleExclude   RuleKind = "exclude"
	RuleIncludeRe RuleKind = "include_re"
	RuleExcludeRe RuleKind = "exclude_re"
)

// Rule is a keyword rule matched against an entry's title and summary.
type Rule struct {
	Kind  RuleKind
	Value string
}
