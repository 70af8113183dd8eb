package oppex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// fakeElement implements Element directly for synthesis tests.
type fakeElement struct {
	tag     string
	id      string
	classes []string
	parent  *fakeElement
	index   int
	total   int
}

func (f *fakeElement) Tag() string       { return f.tag }
func (f *fakeElement) ID() string        { return f.id }
func (f *fakeElement) Classes() []string { return f.classes }
func (f *fakeElement) Parent() Element {
	if f.parent == nil {
		return nil
	}
	return f.parent
}
func (f *fakeElement) SameTagPosition() (int, int) {
	if f.total == 0 {
		return 1, 1
	}
	return f.index, f.total
}

// TestSynthesize_IDStopsWalk verifies that an ancestor with an id anchors
// the path and ends the walk.
func TestSynthesize_IDStopsWalk(t *testing.T) {
	root := &fakeElement{tag: "body"}
	section := &fakeElement{tag: "section", id: "listings", parent: root}
	item := &fakeElement{tag: "div", classes: []string{"job"}, parent: section}
	link := &fakeElement{tag: "a", parent: item}

	got := Synthesize(link)
	assert.Equal(t, "section#listings > div.job > a", got)
	assert.NotContains(t, got, "body", "walk should stop at the id")
}

// TestSynthesize_ClassCapAndNthChild keeps at most two class tokens and adds
// a positional hint when same-tag siblings exist.
func TestSynthesize_ClassCapAndNthChild(t *testing.T) {
	parent := &fakeElement{tag: "ul"}
	item := &fakeElement{
		tag:     "li",
		classes: []string{"card", "featured", "highlight", "promoted"},
		parent:  parent,
		index:   2,
		total:   5,
	}

	got := Synthesize(item)
	assert.Equal(t, "ul > li.card.featured:nth-child(2)", got)
}

// TestSynthesize_DepthCap caps the ancestor walk at five levels.
func TestSynthesize_DepthCap(t *testing.T) {
	var current *fakeElement
	for i := 0; i < 8; i++ {
		current = &fakeElement{tag: "div", parent: current}
	}

	got := Synthesize(current)
	assert.Equal(t, 5, strings.Count(got, "div"))
}

// TestSynthesize_Idempotent verifies that synthesizing the same element
// twice yields the same selector.
func TestSynthesize_Idempotent(t *testing.T) {
	parent := &fakeElement{tag: "div", classes: []string{"list"}}
	el := &fakeElement{tag: "h2", parent: parent, index: 1, total: 3}

	assert.Equal(t, Synthesize(el), Synthesize(el))
}

// TestNodeElement_AdapterWalk synthesizes from a parsed HTML tree.
func TestNodeElement_AdapterWalk(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<html><body><div class="list"><h2>a</h2><h2>b</h2></div></body></html>`))
	require.NoError(t, err)

	// Find the second h2.
	var target *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "h2" {
			target = n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	require.NotNil(t, target)

	got := Synthesize(NodeElement(target))
	assert.Contains(t, got, "div.list")
	assert.Contains(t, got, "h2:nth-child(2)")
}

// TestValidateSelector distinguishes broken syntax from valid selectors.
func TestValidateSelector(t *testing.T) {
	assert.NoError(t, ValidateSelector("h2 > a"))
	assert.NoError(t, ValidateSelector(`[id="172831"] h2 a`))

	err := ValidateSelector("")
	require.Error(t, err)
	assert.True(t, IsSelectorSyntax(err))

	err = ValidateSelector("h2 >")
	require.Error(t, err)
	assert.True(t, IsSelectorSyntax(err))

	var se *SelectorSyntaxError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, "h2 >", se.Selector)
}

// TestSyntaxSuggestions_EscapedDigit verifies that a selector containing the
// CSS-escaped leading digit gets the unescaped form as the first suggestion.
func TestSyntaxSuggestions_EscapedDigit(t *testing.T) {
	got := SyntaxSuggestions(`#\31 72831 h2 a`)
	require.NotEmpty(t, got)
	assert.Equal(t, "#172831 h2 a", got[0])
}

// TestSyntaxSuggestions_NumericID rewrites a numeric id into attribute form.
func TestSyntaxSuggestions_NumericID(t *testing.T) {
	got := SyntaxSuggestions("#172831 h2 a")
	require.NotEmpty(t, got)
	assert.Equal(t, `[id="172831"] h2 a`, got[0])
}

// TestNoMatchSuggestions_DistinctFromSyntax verifies the zero-match path
// proposes the attribute form for numeric ids and broad selectors otherwise.
func TestNoMatchSuggestions_DistinctFromSyntax(t *testing.T) {
	got := NoMatchSuggestions("#172831 h2 a")
	assert.Contains(t, got, `[id="172831"] h2 a`)

	broad := NoMatchSuggestions(".missing-class")
	assert.Equal(t, []string{"h2", "a", ".title"}, broad)
}
