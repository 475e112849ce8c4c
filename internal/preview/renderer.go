// Package preview renders a .docx body to HTML and marks the places where
// edited field values will land.
package preview

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"SPX-VAL/internal/processor"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ErrRenderFailed = errors.New("render failed")

// Renderer turns document package bytes into a DOM subtree.
type Renderer interface {
	Render(ctx context.Context, pkg []byte) (*html.Node, error)
}

// DocxRenderer maps paragraphs, runs, breaks and tables of word/document.xml
// onto HTML. Everything else in the body is dropped.
type DocxRenderer struct{}

func NewDocxRenderer() *DocxRenderer {
	return &DocxRenderer{}
}

type frame struct {
	node *html.Node
	// run is set on w:r frames so run properties can style the span.
	run  *html.Node
	skip bool
}

func (r *DocxRenderer) Render(ctx context.Context, pkg []byte) (*html.Node, error) {
	doc, err := processor.OpenPackage(pkg)
	if err != nil {
		return nil, err
	}

	root := element(atom.Div, "class", "docx-preview-container")
	article := element(atom.Article, "class", "docx")
	root.AppendChild(article)

	decoder := xml.NewDecoder(strings.NewReader(doc.Body()))
	stack := []frame{{node: article}}
	inText := false
	inProps := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse document body: %w", err)
		}

		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			if top.skip {
				if inProps {
					applyRunProperty(top.run, t)
				}
				stack = append(stack, frame{node: top.node, run: top.run, skip: true})
				continue
			}

			next := frame{node: top.node, run: top.run}
			switch t.Name.Local {
			case "p":
				next.node = element(atom.P)
				top.node.AppendChild(next.node)
			case "r":
				next.node = element(atom.Span)
				next.run = next.node
				top.node.AppendChild(next.node)
			case "t":
				inText = true
			case "tab":
				top.node.AppendChild(text("\t"))
			case "br", "cr":
				top.node.AppendChild(element(atom.Br))
			case "tbl":
				next.node = element(atom.Table)
				top.node.AppendChild(next.node)
			case "tr":
				next.node = element(atom.Tr)
				top.node.AppendChild(next.node)
			case "tc":
				next.node = element(atom.Td)
				top.node.AppendChild(next.node)
			case "rPr":
				next.skip = true
				inProps = top.run != nil
			case "pPr", "tblPr", "tblGrid", "trPr", "tcPr", "sectPr", "drawing", "pict", "object", "instrText", "delText":
				next.skip = true
			}
			stack = append(stack, next)

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "rPr":
				inProps = false
			}
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if inText && !top.skip {
				top.node.AppendChild(text(string(t)))
			}
		}
	}

	return root, nil
}

func applyRunProperty(run *html.Node, t xml.StartElement) {
	if run == nil || !propertyOn(t) {
		return
	}
	var style string
	switch t.Name.Local {
	case "b":
		style = "font-weight: bold;"
	case "i":
		style = "font-style: italic;"
	case "u":
		style = "text-decoration: underline;"
	case "strike":
		style = "text-decoration: line-through;"
	default:
		return
	}

	for i, a := range run.Attr {
		if a.Key == "style" {
			run.Attr[i].Val += " " + style
			return
		}
	}
	run.Attr = append(run.Attr, html.Attribute{Key: "style", Val: style})
}

// propertyOn handles toggle properties such as <w:b w:val="0"/>.
func propertyOn(t xml.StartElement) bool {
	for _, a := range t.Attr {
		if a.Name.Local != "val" {
			continue
		}
		switch a.Value {
		case "0", "false", "none", "off":
			return false
		}
	}
	return true
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
