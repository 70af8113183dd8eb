package oppex

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Element is the minimal tree view the selector synthesizer needs. It keeps
// the synthesizer independent of any particular DOM implementation; the
// html.Node adapter below covers parsed documents, and tests can implement
// it directly.
type Element interface {
	// Tag is the lower-cased element name.
	Tag() string
	// ID is the element's id attribute, "" when absent.
	ID() string
	// Classes are the element's class tokens in document order.
	Classes() []string
	// Parent is the parent element, nil at the document root.
	Parent() Element
	// SameTagPosition returns the 1-based position of this element among
	// siblings sharing its tag, and how many such siblings exist.
	SameTagPosition() (index, total int)
}

// maxSynthesisDepth caps the ancestor walk. Five levels of context is
// enough to generalize without pinning the selector to one page region.
const maxSynthesisDepth = 5

// Synthesize builds a CSS selector path from one clicked element. At each
// level it emits the tag name; an id ends the walk immediately (ids are
// treated as globally unique and sufficient), otherwise up to two class
// tokens are appended, plus :nth-child when siblings share the tag. The
// result is deliberately a generalizing selector -- tag, a couple of
// classes, positional hint -- not a maximally specific path, so that one
// clicked element captures all its structural siblings.
func Synthesize(el Element) string {
	var path []string

	for current := el; current != nil && len(path) < maxSynthesisDepth; current = current.Parent() {
		fragment := current.Tag()

		if id := current.ID(); id != "" {
			fragment += "#" + id
			path = append([]string{fragment}, path...)
			break
		}

		classes := nonEmpty(current.Classes())
		if len(classes) > 2 {
			classes = classes[:2]
		}
		if len(classes) > 0 {
			fragment += "." + strings.Join(classes, ".")
		}

		if index, total := current.SameTagPosition(); total > 1 {
			fragment += fmt.Sprintf(":nth-child(%d)", index)
		}

		path = append([]string{fragment}, path...)
	}

	return strings.Join(path, " > ")
}

func nonEmpty(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}

// htmlElement adapts *html.Node to Element.
type htmlElement struct {
	node *html.Node
}

// NodeElement wraps a parsed HTML element node for selector synthesis.
// Non-element nodes return nil.
func NodeElement(n *html.Node) Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return htmlElement{node: n}
}

func (e htmlElement) Tag() string {
	return strings.ToLower(e.node.Data)
}

func (e htmlElement) ID() string {
	return attrValue(e.node, "id")
}

func (e htmlElement) Classes() []string {
	return strings.Fields(attrValue(e.node, "class"))
}

func (e htmlElement) Parent() Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	// The body/html boundary still counts as an element level; the walk cap
	// and id rule decide where the path actually stops.
	return htmlElement{node: p}
}

func (e htmlElement) SameTagPosition() (int, int) {
	parent := e.node.Parent
	if parent == nil {
		return 1, 1
	}
	index, total := 0, 0
	for sib := parent.FirstChild; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode || sib.Data != e.node.Data {
			continue
		}
		total++
		if sib == e.node {
			index = total
		}
	}
	if total == 0 {
		return 1, 1
	}
	return index, total
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// ValidateSelector compiles a CSS selector and reports malformed syntax.
// This is how "selector is broken" is told apart from "selector matched
// nothing": goquery silently returns an empty selection for both.
func ValidateSelector(selector string) error {
	if strings.TrimSpace(selector) == "" {
		return &SelectorSyntaxError{Selector: selector, Err: fmt.Errorf("empty selector")}
	}
	if _, err := cascadia.Parse(selector); err != nil {
		return &SelectorSyntaxError{Selector: selector, Err: err}
	}
	return nil
}

var (
	escapedOneRe = regexp.MustCompile(`\\31\s*`)
	numericIDRe  = regexp.MustCompile(`#(\d[\w-]*)`)
)

// SyntaxSuggestions proposes concrete alternatives for a selector that
// failed to compile. The common culprit is CSS escaping of ids that start
// with a digit ("\31 72831" is the escaped form of "172831"); the first
// suggestion always undoes that escaping when present.
func SyntaxSuggestions(selector string) []string {
	var out []string
	if strings.Contains(selector, `\31`) {
		out = append(out, escapedOneRe.ReplaceAllString(selector, "1"))
		out = append(out, "h2 > a")
		out = append(out, ".col-sm-10 h2 a")
		return out
	}
	if numericIDRe.MatchString(selector) {
		out = append(out, numericIDRe.ReplaceAllString(selector, `[id="$1"]`))
		out = append(out, "h2 > a")
		return out
	}
	out = append(out, "h2", "a", ".title")
	return out
}

// NoMatchSuggestions proposes alternatives when a well-formed selector
// matched zero elements. Numeric-id-looking selectors get the attribute
// form, which dodges both escaping and uniqueness problems; everything else
// gets progressively broader selectors to narrow down from.
func NoMatchSuggestions(selector string) []string {
	var out []string
	if strings.Contains(selector, `\31`) || numericIDRe.MatchString(selector) {
		if strings.Contains(selector, `\31`) {
			out = append(out, escapedOneRe.ReplaceAllString(selector, "1"))
		}
		out = append(out, numericIDRe.ReplaceAllString(selector, `[id="$1"]`))
		out = append(out, "h2 > a")
		return out
	}
	out = append(out, "h2", "a", ".title")
	return out
}
