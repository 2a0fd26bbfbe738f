package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTerm_LiteralAndPrefix(t *testing.T) {
	variants := expandTerm("milk", nil, 0.4)

	assert.Equal(t, []string{`"milk"`, `"milk"*`}, variants)
}

func TestExpandTerm_ZeroThresholdDisablesFuzzy(t *testing.T) {
	variants := expandTerm("milk", []string{"milky", "milks"}, 0)

	assert.Equal(t, []string{`"milk"`, `"milk"*`}, variants)
}

func TestExpandTerm_VocabularyVariants(t *testing.T) {
	variants := expandTerm("milk", []string{"milky", "notebook"}, 0.4)

	assert.Contains(t, variants, `"milky"`)
	assert.NotContains(t, variants, `"notebook"`, "unrelated vocabulary must not expand")
}

func TestExpandTerm_SelfMatchExcluded(t *testing.T) {
	variants := expandTerm("milk", []string{"milk", "MILK"}, 0.9)

	// The literal variant already covers the term itself
	assert.Equal(t, []string{`"milk"`, `"milk"*`}, variants)
}

func TestExpandTerm_CapsVariants(t *testing.T) {
	vocab := []string{"milka", "milkb", "milkc", "milkd", "milke"}
	variants := expandTerm("milk", vocab, 0.1)

	// literal + prefix + at most maxFuzzyVariants
	assert.LessOrEqual(t, len(variants), 2+maxFuzzyVariants)
}

func TestExpandTerm_EscapesQuotes(t *testing.T) {
	assert.Equal(t, `"mi""lk"`, quoteFTS(`mi"lk`))
}

func TestBuildMatchExpression(t *testing.T) {
	q := Query{Terms: []string{"milk"}, TitleTerms: []string{"groceries"}}
	expr := buildMatchExpression(q, nil, 0)

	assert.Equal(t, `("milk" OR "milk"*) AND (title:"groceries" OR title:"groceries"*)`, expr)
}

func TestBuildMatchExpression_Empty(t *testing.T) {
	assert.Equal(t, "", buildMatchExpression(Query{}, nil, 0.4))
	assert.Equal(t, "", buildMatchExpression(Query{Terms: []string{"  "}}, nil, 0.4))
}

func TestDedupeSorted(t *testing.T) {
	out := dedupeSorted([]string{"milk", "Milk", "milky", "eggs"})

	require.Len(t, out, 3)
	// Longest first so nested matches highlight the longer term
	assert.Equal(t, "milky", out[0])
}
