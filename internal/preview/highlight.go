package preview

import (
	"regexp"

	"SPX-VAL/internal/fields"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	attrFieldKey   = "data-field-key"
	attrFieldValue = "data-field-value"

	markStyle     = "background-color: #fef08a; padding: 2px 4px; border-radius: 3px; font-weight: 600; cursor: pointer; transition: all 0.2s;"
	markMouseOver = "this.style.backgroundColor='#fde047'; this.style.boxShadow='0 0 0 2px #fde047'"
	markMouseOut  = "this.style.backgroundColor='#fef08a'; this.style.boxShadow='none'"
)

// ClickFunc receives the field key and new value of a clicked marker.
type ClickFunc func(fieldKey, value string)

// Marker is one highlighted occurrence bound to the edit callback.
type Marker struct {
	Key   string     `json:"key"`
	Value string     `json:"value"`
	Node  *html.Node `json:"-"`

	onClick ClickFunc
}

// Click invokes the bound callback with the marker's key and value.
func (m *Marker) Click() {
	if m.onClick != nil {
		m.onClick(m.Key, m.Value)
	}
}

// Highlight wraps every occurrence of a changed field's original value in a
// <mark> showing the new value, then binds each marker to onClick.
//
// Text nodes are collected once before any rewrite. A rewrite replaces the
// text children of the parent element with fresh nodes, so once a key claims
// a parent the later keys no longer see that text.
func Highlight(root *html.Node, changes fields.ChangeSet, onClick ClickFunc) []*Marker {
	if root == nil {
		return nil
	}

	var textNodes []*html.Node
	collectText(root, &textNodes)

	changes.Range(func(key string, c fields.Change) bool {
		if c.Old == "" || c.New == "" || c.Old == c.New {
			return true
		}
		pattern := regexp.MustCompile(regexp.QuoteMeta(c.Old))

		for _, node := range textNodes {
			parent := node.Parent
			if parent == nil || !pattern.MatchString(node.Data) {
				continue
			}
			rewriteTextChildren(parent, pattern, key, c.New)
		}
		return true
	})

	var markers []*Marker
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.Mark {
			return
		}
		key, value := attr(n, attrFieldKey), attr(n, attrFieldValue)
		if key == "" || value == "" {
			return
		}
		markers = append(markers, &Marker{Key: key, Value: value, Node: n, onClick: onClick})
	})
	return markers
}

func collectText(n *html.Node, out *[]*html.Node) {
	if n.Type == html.TextNode {
		*out = append(*out, n)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, out)
	}
}

// rewriteTextChildren splits every direct text child of parent around the
// matches of pattern. All text children are replaced, matching or not.
func rewriteTextChildren(parent *html.Node, pattern *regexp.Regexp, key, value string) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type != html.TextNode {
			c = next
			continue
		}

		data := c.Data
		last := 0
		for _, loc := range pattern.FindAllStringIndex(data, -1) {
			if loc[0] > last {
				parent.InsertBefore(text(data[last:loc[0]]), c)
			}
			parent.InsertBefore(newMark(key, value), c)
			last = loc[1]
		}
		if last < len(data) {
			parent.InsertBefore(text(data[last:]), c)
		}
		parent.RemoveChild(c)
		c = next
	}
}

func newMark(key, value string) *html.Node {
	mark := element(atom.Mark,
		attrFieldKey, key,
		attrFieldValue, value,
		"style", markStyle,
		"onmouseover", markMouseOver,
		"onmouseout", markMouseOut,
		"title", "Click to edit this field",
		"tabindex", "0",
		"role", "button",
	)
	mark.AppendChild(text(value))
	return mark
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
