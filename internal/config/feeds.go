package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"feed_notifier/internal/filter"
	"feed_notifier/internal/message"
	"feed_notifier/internal/model"
)

// Defaults for options that are set nowhere in the tree.
const (
	DefaultUsername = "RSS Bot"
	DefaultInterval = 300
)

// Configuration errors.
var (
	ErrMissingURL   = errors.New("url is required")
	ErrDuplicateURL = errors.New("duplicate feed url")
)

// Options are the settings that can be given at global, group and feed level.
// A nil field means "not set at this level".
type Options struct {
	Username        *string  `yaml:"username"`
	Interval        *int     `yaml:"interval"`
	MessageTemplate *string  `yaml:"message_template"`
	DisablePreview  *bool    `yaml:"disable_preview"`
	Delay           *int     `yaml:"delay"`
	MaxPerCycle     *int     `yaml:"max_per_cycle"`
	MaxAgeDays      *int     `yaml:"max_age_days"`
	Include         []string `yaml:"include"`
	Exclude         []string `yaml:"exclude"`
}

// File is the feed configuration tree: global options and destination groups.
type File struct {
	Options `yaml:",inline"`

	Webhooks []Group `yaml:"webhooks"`
}

// Group is a destination with its option overrides and feeds.
type Group struct {
	Options `yaml:",inline"`

	URL   string      `yaml:"url"`
	Feeds []FeedEntry `yaml:"feeds"`
}

// FeedEntry is a single feed as written in the configuration file.
type FeedEntry struct {
	Options `yaml:",inline"`

	URL   string         `yaml:"url"`
	Name  string         `yaml:"name"`
	Extra map[string]any `yaml:",inline"`
}

// LoadFile reads and flattens the feed configuration at path.
func LoadFile(path string) ([]model.FeedConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML feed tree and flattens it.
func Parse(data []byte) ([]model.FeedConfig, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return Flatten(f)
}

// Flatten resolves every feed's options against its group and the global
// defaults. Feeds are returned in declaration order.
func Flatten(f File) ([]model.FeedConfig, error) {
	global := builtinDefaults().merge(f.Options)

	var feeds []model.FeedConfig
	for gi, g := range f.Webhooks {
		if g.URL == "" {
			return nil, fmt.Errorf("webhook %d: %w", gi+1, ErrMissingURL)
		}
		if err := ValidateDestination(g.URL); err != nil {
			return nil, fmt.Errorf("webhook %d: %w", gi+1, err)
		}
		group := global.merge(g.Options)

		for fi, fe := range g.Feeds {
			if fe.URL == "" {
				return nil, fmt.Errorf("webhook %d, feed %d: %w", gi+1, fi+1, ErrMissingURL)
			}
			fc, err := resolve(group.merge(fe.Options), g.URL, fe)
			if err != nil {
				return nil, fmt.Errorf("feed %s: %w", fe.URL, err)
			}
			feeds = append(feeds, fc)
		}
	}

	if dups := lo.FindDuplicatesBy(feeds, func(fc model.FeedConfig) string { return fc.URL }); len(dups) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateURL, dups[0].URL)
	}
	return feeds, nil
}

func builtinDefaults() Options {
	return Options{
		Username:        lo.ToPtr(DefaultUsername),
		Interval:        lo.ToPtr(DefaultInterval),
		MessageTemplate: lo.ToPtr(message.DefaultTemplate),
		DisablePreview:  lo.ToPtr(false),
		Delay:           lo.ToPtr(0),
		MaxPerCycle:     lo.ToPtr(0),
		MaxAgeDays:      lo.ToPtr(0),
	}
}

// merge returns o with every option that over sets replaced.
func (o Options) merge(over Options) Options {
	if over.Username != nil {
		o.Username = over.Username
	}
	if over.Interval != nil {
		o.Interval = over.Interval
	}
	if over.MessageTemplate != nil {
		o.MessageTemplate = over.MessageTemplate
	}
	if over.DisablePreview != nil {
		o.DisablePreview = over.DisablePreview
	}
	if over.Delay != nil {
		o.Delay = over.Delay
	}
	if over.MaxPerCycle != nil {
		o.MaxPerCycle = over.MaxPerCycle
	}
	if over.MaxAgeDays != nil {
		o.MaxAgeDays = over.MaxAgeDays
	}
	if over.Include != nil {
		o.Include = over.Include
	}
	if over.Exclude != nil {
		o.Exclude = over.Exclude
	}
	return o
}

func resolve(o Options, destination string, fe FeedEntry) (model.FeedConfig, error) {
	for name, v := range map[string]int{
		"interval":      *o.Interval,
		"delay":         *o.Delay,
		"max_per_cycle": *o.MaxPerCycle,
		"max_age_days":  *o.MaxAgeDays,
	} {
		if v < 0 {
			return model.FeedConfig{}, fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}

	tmpl, err := message.ParseTemplate(*o.MessageTemplate)
	if err != nil {
		return model.FeedConfig{}, fmt.Errorf("message_template: %w", err)
	}
	rules, err := filter.ParseRules(o.Include, o.Exclude)
	if err != nil {
		return model.FeedConfig{}, err
	}

	return model.FeedConfig{
		URL:            fe.URL,
		Destination:    destination,
		Name:           fe.Name,
		Username:       *o.Username,
		Interval:       time.Duration(*o.Interval) * time.Second,
		Delay:          time.Duration(*o.Delay) * time.Second,
		MaxPerCycle:    *o.MaxPerCycle,
		MaxAgeDays:     *o.MaxAgeDays,
		Template:       tmpl,
		DisablePreview: *o.DisablePreview,
		Rules:          rules,
		Extra:          fe.Extra,
	}, nil
}
