// Package rules loads the transcription rule sets from a directory of YAML
// documents. One file is one rule set; rule order inside a file is the
// precedence order the engine uses. The store is loaded exactly once at
// startup and is immutable afterwards — editing rule files requires a
// process restart.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is one pattern → output template pair. Pattern is RE2; Output may
// reference capture groups with $1, $name, etc.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Output  string `yaml:"output"`

	// re is the pattern compiled with a start anchor, so a match can only
	// begin exactly at the scan position.
	re *regexp.Regexp
}

// Compiled returns the anchored, compiled pattern.
func (r *Rule) Compiled() *regexp.Regexp { return r.re }

// RuleSet is a named, ordered rule collection parsed from one file.
type RuleSet struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`

	// SourceFile is set by the loader, not by YAML.
	SourceFile string `yaml:"-"`
}

// Store holds every loaded rule set in load order. Read-only after Load.
type Store struct {
	sets []RuleSet
}

// All returns the rule sets in load order.
func (s *Store) All() []RuleSet { return s.sets }

// Count returns the number of loaded rule sets.
func (s *Store) Count() int { return len(s.sets) }

// Load reads every *.yaml / *.yml file in dir, in sorted name order, and
// parses each into a RuleSet. Loading is fail-fast: one malformed file
// aborts the whole load, so the bot never runs on a partial rule store.
func Load(dir string) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rules dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	store := &Store{}
	for _, name := range names {
		set, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		store.sets = append(store.sets, *set)
	}
	return store, nil
}

func loadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if set.Name == "" {
		return nil, fmt.Errorf("rule set has no 'name' field")
	}
	for i := range set.Rules {
		r := &set.Rules[i]
		if r.Pattern == "" {
			return nil, fmt.Errorf("rule set %q: rule %d has an empty pattern", set.Name, i)
		}
		re, err := compileAnchored(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule set %q: rule %d: %w", set.Name, i, err)
		}
		r.re = re
	}
	set.SourceFile = path
	return &set, nil
}

// compileAnchored wraps the pattern so it can only match at the beginning
// of the string handed to it; the engine slices the input at each scan
// position and needs matches pinned there.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`\A(?:`)
	b.WriteString(pattern)
	b.WriteString(`)`)
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return re, nil
}
