// Package snapshot implements a browser-less driver over saved questionnaire pages. It replays a
// directory of HTML files as consecutive pages, which makes classifier and filling behavior testable and
// lets a campaign be dry-run against captured pages.
package snapshot

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/surveypilot/api/schemas"
	"github.com/xkilldash9x/surveypilot/internal/browser/dom"
)

// Page is one parsed HTML document.
type Page struct {
	Name string
	doc  *goquery.Document
	seq  int
}

// ParseFile reads and parses a saved page.
func ParseFile(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &Page{Name: path, doc: doc}, nil
}

// ParseString parses an in-memory page.
func ParseString(name, content string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return &Page{Name: name, doc: doc}, nil
}

// blockAtoms end a line of visible text, the way the rendered page would break it.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true, atom.Td: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Label: true, atom.Button: true, atom.Option: true, atom.Section: true, atom.Form: true,
	atom.Table: true, atom.Fieldset: true, atom.Legend: true,
}

// invisibleAtoms never contribute rendered text.
var invisibleAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Template: true, atom.Head: true,
}

// VisibleText approximates document.body.innerText: hidden subtrees are skipped and block elements end lines.
func (p *Page) VisibleText() string {
	var b strings.Builder
	for _, n := range p.doc.Find("body").Nodes {
		writeText(&b, n)
	}
	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		// Source line breaks inside text are plain whitespace once rendered.
		b.WriteString(strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return ' '
			}
			return r
		}, n.Data))
		return
	case html.ElementNode:
		if invisibleAtoms[n.DataAtom] || isHidden(n) {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if n.Type == html.ElementNode && blockAtoms[n.DataAtom] {
		b.WriteByte('\n')
	}
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

// controls tags and describes every element of kind, mirroring dom.EnumerateScript.
func (p *Page) controls(kind schemas.ControlKind) ([]schemas.ControlHandle, error) {
	selector, err := kind.Selector()
	if err != nil {
		return nil, err
	}
	handles := []schemas.ControlHandle{}
	p.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		id, ok := s.Attr(dom.HandleAttr)
		if !ok || id == "" {
			p.seq++
			id = fmt.Sprintf("sp-%d", p.seq)
			s.SetAttr(dom.HandleAttr, id)
		}
		handles = append(handles, schemas.ControlHandle{
			ID:          id,
			Kind:        kind,
			InputType:   strings.ToLower(s.AttrOr("type", "")),
			Placeholder: s.AttrOr("placeholder", ""),
			Text:        ownText(s),
		})
	})
	return handles, nil
}

// ownText mirrors the enumerate script: innerText, then value, then aria-label.
func ownText(s *goquery.Selection) string {
	if t := collapse(s.Text()); t != "" {
		return t
	}
	if v := strings.TrimSpace(s.AttrOr("value", "")); v != "" {
		return v
	}
	return strings.TrimSpace(s.AttrOr("aria-label", ""))
}

// label mirrors dom.LabelScript. ok is false when the handle does not resolve.
func (p *Page) label(id string) (string, bool) {
	el := p.find(id)
	if el.Length() == 0 {
		return "", false
	}
	if t := collapse(el.Parent().Text()); t != "" {
		return t, true
	}
	if elID, has := el.Attr("id"); has && elID != "" {
		if t := collapse(p.doc.Find(fmt.Sprintf(`label[for=%q]`, elID)).First().Text()); t != "" {
			return t, true
		}
	}
	if t := collapse(el.Closest("label").Text()); t != "" {
		return t, true
	}
	return el.AttrOr("aria-label", ""), true
}

func (p *Page) find(id string) *goquery.Selection {
	return p.doc.Find(dom.Selector(id)).First()
}

// advances reports whether clicking the element submits the page.
func advances(el *goquery.Selection) bool {
	if _, ok := el.Attr("data-advance"); ok {
		return true
	}
	typ := strings.ToLower(el.AttrOr("type", ""))
	switch goquery.NodeName(el) {
	case "button":
		return typ == "" || typ == "submit"
	case "input":
		return typ == "submit"
	}
	return false
}

// check applies a click on a radio or checkbox.
func (p *Page) check(el *goquery.Selection) {
	switch strings.ToLower(el.AttrOr("type", "")) {
	case "radio":
		if name, ok := el.Attr("name"); ok && name != "" {
			p.doc.Find(fmt.Sprintf(`input[type="radio"][name=%q]`, name)).RemoveAttr("checked")
		}
		el.SetAttr("checked", "checked")
	case "checkbox":
		if _, on := el.Attr("checked"); on {
			el.RemoveAttr("checked")
		} else {
			el.SetAttr("checked", "checked")
		}
	}
}

// Checked reports whether the element behind id carries the checked attribute.
func (p *Page) Checked(id string) bool {
	_, ok := p.find(id).Attr("checked")
	return ok
}

// Value returns the current value of a field.
func (p *Page) Value(id string) string {
	el := p.find(id)
	if goquery.NodeName(el) == "textarea" {
		return el.Text()
	}
	return el.AttrOr("value", "")
}

func (p *Page) setValue(el *goquery.Selection, value string) {
	if goquery.NodeName(el) == "textarea" {
		el.SetText(value)
		return
	}
	el.SetAttr("value", value)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
