// Package engine turns input text into transcription output by applying
// every loaded rule set. Matching is deterministic: the output depends
// only on the rule files and the input, which lets users reproduce and
// debug transcriptions from configuration alone.
package engine

import (
	"strings"

	"github.com/yomikobot/yomiko/pkg/rules"
)

// Engine applies the rule store to input text. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	store *rules.Store
}

// New creates an engine over a loaded rule store.
func New(store *rules.Store) *Engine {
	return &Engine{store: store}
}

// Search scans text with every rule set, in load order, and returns one
// rendered block per rule set that matched anything. An empty slice means
// the text did not parse under any rule set. Search never fails: malformed
// patterns are rejected at load time.
func (e *Engine) Search(text string) []string {
	var blocks []string
	for _, set := range e.store.All() {
		if block, ok := renderSet(set, text); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// SearchJoined is Search with the blocks joined by a blank line, which is
// the shape replies are sent in. Empty string means no match.
func (e *Engine) SearchJoined(text string) string {
	return strings.Join(e.Search(text), "\n\n")
}

// renderSet scans text left to right for non-overlapping matches of set's
// rules. At each position the earliest-declared rule that matches wins —
// first-match, not longest-match — and scanning resumes after the consumed
// input. Rendered matches concatenate in textual order.
func renderSet(set rules.RuleSet, text string) (string, bool) {
	var b strings.Builder
	matched := false

	for i := 0; i < len(text); {
		rule, loc := matchAt(set, text[i:])
		if rule == nil {
			i++
			continue
		}
		matched = true
		b.Write(rule.Compiled().ExpandString(nil, rule.Output, text[i:], loc))
		if loc[1] == 0 {
			// Empty match: advance one byte so the scan always terminates.
			i++
		} else {
			i += loc[1]
		}
	}

	if !matched {
		return "", false
	}
	return b.String(), true
}

// matchAt tries each rule in declared order against the remainder of the
// input and returns the first that matches, with its submatch indices.
func matchAt(set rules.RuleSet, rest string) (*rules.Rule, []int) {
	for i := range set.Rules {
		rule := &set.Rules[i]
		if loc := rule.Compiled().FindStringSubmatchIndex(rest); loc != nil {
			return rule, loc
		}
	}
	return nil, nil
}
