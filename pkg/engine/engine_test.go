package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yomikobot/yomiko/pkg/rules"
)

// loadStore writes the given files into a temp dir and loads them.
// Files load in sorted name order, so callers control rule-set order
// through the names.
func loadStore(t *testing.T, files map[string]string) *rules.Store {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	store, err := rules.Load(dir)
	require.NoError(t, err)
	return store
}

const kanaSet = `name: kana
rules:
  - pattern: kya
    output: "kʲa"
  - pattern: ka
    output: "ka"
  - pattern: n
    output: "ɴ"
`

func TestSearchBasicTranscription(t *testing.T) {
	eng := New(loadStore(t, map[string]string{"10-kana.yaml": kanaSet}))

	out := eng.Search("kankya")
	require.Len(t, out, 1)
	assert.Equal(t, "kaɴkʲa", out[0])
}

func TestSearchFirstDeclaredWins(t *testing.T) {
	// "long" would be the longer match but "lo" is declared first.
	set := `name: order
rules:
  - pattern: lo
    output: "SHORT"
  - pattern: long
    output: "LONG"
`
	eng := New(loadStore(t, map[string]string{"set.yaml": set}))

	out := eng.Search("long")
	require.Len(t, out, 1)
	assert.Equal(t, "SHORT", out[0], "first-declared rule wins over a longer later match")
}

func TestSearchNonOverlapping(t *testing.T) {
	set := `name: set
rules:
  - pattern: aba
    output: "X"
`
	eng := New(loadStore(t, map[string]string{"set.yaml": set}))

	// "ababa" holds two overlapping "aba"s; the scan consumes the first
	// and resumes after it, so only one fires.
	out := eng.Search("ababa")
	require.Len(t, out, 1)
	assert.Equal(t, "X", out[0])
}

func TestSearchRuleSetOrderAndBlocks(t *testing.T) {
	first := "name: first\nrules:\n  - pattern: ka\n    output: \"1\"\n"
	second := "name: second\nrules:\n  - pattern: ka\n    output: \"2\"\n"
	eng := New(loadStore(t, map[string]string{
		"10-first.yaml":  first,
		"20-second.yaml": second,
	}))

	out := eng.Search("ka")
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0])
	assert.Equal(t, "2", out[1])
	assert.Equal(t, "1\n\n2", eng.SearchJoined("ka"), "blocks join with a blank line in load order")
}

func TestSearchNoMatch(t *testing.T) {
	eng := New(loadStore(t, map[string]string{"10-kana.yaml": kanaSet}))

	assert.Empty(t, eng.Search(""))
	assert.Empty(t, eng.Search("zzz"))
	assert.Equal(t, "", eng.SearchJoined("zzz"))
}

func TestSearchSkipsUnmatchedInput(t *testing.T) {
	eng := New(loadStore(t, map[string]string{"10-kana.yaml": kanaSet}))

	// Unmatched bytes between matches are consumed silently.
	out := eng.Search("x ka! n")
	require.Len(t, out, 1)
	assert.Equal(t, "kaɴ", out[0])
}

func TestSearchTemplateGroups(t *testing.T) {
	set := `name: groups
rules:
  - pattern: "([0-9]+)s"
    output: "$1 seconds"
`
	eng := New(loadStore(t, map[string]string{"set.yaml": set}))

	out := eng.Search("wait 15s")
	require.Len(t, out, 1)
	assert.Equal(t, "15 seconds", out[0])
}

func TestSearchDeterministicAcrossLoads(t *testing.T) {
	files := map[string]string{
		"10-kana.yaml": kanaSet,
		"20-num.yaml":  "name: num\nrules:\n  - pattern: \"[0-9]\"\n    output: \"N\"\n",
	}
	input := "ka 42 kyan"

	first := New(loadStore(t, files)).SearchJoined(input)
	second := New(loadStore(t, files)).SearchJoined(input)
	assert.Equal(t, first, second, "two fresh loads of the same rule dir must render identically")
	assert.NotEmpty(t, first)
}
