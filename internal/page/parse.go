package page

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Parse builds a static snapshot from raw HTML
func Parse(htmlContent, sourceURL string) (*Document, error) {
	return build(htmlContent, sourceURL, KindStatic, nil)
}

// NewRendered builds a rendered snapshot from serialized DOM and browser measurements
func NewRendered(htmlContent, sourceURL string, probe *Probe) (*Document, error) {
	if probe == nil {
		probe = &Probe{}
	}
	return build(htmlContent, sourceURL, KindRendered, probe)
}

func build(htmlContent, sourceURL string, kind Kind, probe *Probe) (*Document, error) {
	root, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &Document{
		kind:  kind,
		url:   sourceURL,
		html:  htmlContent,
		meta:  make(map[string]string),
		ids:   make(map[string]int),
		probe: probe,
	}

	// Pass 1: ids and explicit label associations
	byID := make(map[string]*html.Node)
	labelFor := make(map[string]string)
	var index func(*html.Node)
	index = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := strings.TrimSpace(attr(n, "id")); id != "" {
				d.ids[id]++
				if _, seen := byID[id]; !seen {
					byID[id] = n
				}
			}
			if n.Data == "label" {
				if target := strings.TrimSpace(attr(n, "for")); target != "" {
					labelFor[target] = textOf(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			index(c)
		}
	}
	index(root)

	w := &walker{doc: d, byID: byID, labelFor: labelFor}
	w.walk(root, false, "")
	return d, nil
}

type walker struct {
	doc      *Document
	byID     map[string]*html.Node
	labelFor map[string]string
}

// walk visits n; hidden propagates from ancestors, label holds the text of an enclosing <label>
func (w *walker) walk(n *html.Node, hidden bool, label string) {
	if n.Type == html.ElementNode {
		if isHidden(n) {
			hidden = true
		}
		if n.Data == "label" {
			label = textOf(n)
		}
		w.visit(n, hidden, label)
		if n.Data == "script" || n.Data == "style" || n.Data == "template" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, hidden, label)
	}
}

func (w *walker) visit(n *html.Node, hidden bool, label string) {
	d := w.doc
	role := strings.ToLower(attr(n, "role"))

	switch n.Data {
	case "html":
		d.lang = strings.TrimSpace(attr(n, "lang"))
		if d.lang == "" {
			d.lang = strings.TrimSpace(attr(n, "xml:lang"))
		}
	case "title":
		if d.title == "" {
			d.title = textOf(n)
		}
	case "meta":
		key := strings.ToLower(attr(n, "name"))
		if key == "" {
			key = strings.ToLower(attr(n, "property"))
		}
		if key != "" {
			content := attr(n, "content")
			d.meta[key] = content
			if key == "viewport" && d.viewport == nil {
				d.viewport = &content
			}
		}
	case "img":
		el := w.element(n, hidden, "")
		el.InLink = insideLink(n)
		d.images = append(d.images, el)
	case "a":
		if _, ok := hasAttr(n, "href"); ok {
			el := w.element(n, hidden, "")
			d.anchors = append(d.anchors, el)
			if href := el.AttrValue("href"); strings.HasPrefix(href, "#") && len(href) > 1 && looksLikeSkip(el.Name) {
				d.landmarks.SkipLink = true
			}
		}
	case "input", "select", "textarea":
		lbl := label
		if id := strings.TrimSpace(attr(n, "id")); id != "" {
			if t, ok := w.labelFor[id]; ok {
				lbl = t
			}
		}
		d.inputs = append(d.inputs, w.element(n, hidden || isHiddenInput(n), lbl))
	case "button":
		d.buttons = append(d.buttons, w.element(n, hidden, ""))
	case "h1", "h2", "h3", "h4", "h5", "h6":
		d.headings = append(d.headings, w.element(n, hidden, ""))
	case "table":
		d.tables = append(d.tables, summarizeTable(n))
	case "video", "audio":
		el := w.element(n, hidden, "")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "track" {
				el.Tracks = append(el.Tracks, strings.ToLower(attr(c, "kind")))
			}
		}
		d.media = append(d.media, el)
	case "iframe":
		d.iframes = append(d.iframes, w.element(n, hidden, ""))
	case "main":
		d.landmarks.Main = true
	case "nav":
		d.landmarks.Nav = true
	case "header":
		d.landmarks.Banner = true
	case "footer":
		d.landmarks.ContentInfo = true
	case "aside":
		d.landmarks.Complementary = true
	case "search":
		d.landmarks.Search = true
	}

	switch role {
	case "main":
		d.landmarks.Main = true
	case "navigation":
		d.landmarks.Nav = true
	case "search":
		d.landmarks.Search = true
	case "banner":
		d.landmarks.Banner = true
	case "contentinfo":
		d.landmarks.ContentInfo = true
	case "complementary":
		d.landmarks.Complementary = true
	case "button", "link", "checkbox", "menuitem", "tab", "switch", "radio", "combobox", "slider":
		if n.Data != "button" && n.Data != "a" && n.Data != "input" && n.Data != "select" && n.Data != "textarea" {
			d.buttons = append(d.buttons, w.element(n, hidden, ""))
		}
	}

	if style := attr(n, "style"); style != "" && strings.Contains(strings.ToLower(style), "color") {
		d.styled = append(d.styled, w.element(n, hidden, ""))
	}
}

func (w *walker) element(n *html.Node, hidden bool, label string) Element {
	el := Element{
		Tag:    n.Data,
		Attrs:  make(map[string]string, len(n.Attr)),
		Text:   textOf(n),
		Label:  label,
		Hidden: hidden,
	}
	for _, a := range n.Attr {
		el.Attrs[strings.ToLower(a.Key)] = a.Val
	}
	el.Name = w.accessibleName(n, el)
	return el
}

// accessibleName approximates the accessible name computation:
// aria-labelledby, aria-label, associated label, content, alt, title.
func (w *walker) accessibleName(n *html.Node, el Element) string {
	if ids := el.AttrValue("aria-labelledby"); ids != "" {
		var parts []string
		for _, id := range strings.Fields(ids) {
			if ref, ok := w.byID[id]; ok {
				if t := textOf(ref); t != "" {
					parts = append(parts, t)
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	if v := el.AttrValue("aria-label"); v != "" {
		return v
	}
	if el.Label != "" {
		return el.Label
	}
	switch n.Data {
	case "img":
		return el.AttrValue("alt")
	case "input":
		switch strings.ToLower(el.AttrValue("type")) {
		case "submit", "button", "reset":
			if v := el.AttrValue("value"); v != "" {
				return v
			}
		case "image":
			if v := el.AttrValue("alt"); v != "" {
				return v
			}
		}
	}
	if el.Text != "" {
		return el.Text
	}
	if alt := descendantAlt(n); alt != "" {
		return alt
	}
	return el.AttrValue("title")
}

func summarizeTable(n *html.Node) Table {
	t := Table{}
	switch strings.ToLower(attr(n, "role")) {
	case "presentation", "none":
		t.Presentation = true
	}
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "table":
				if c != n {
					return // nested tables are summarised separately
				}
			case "tr":
				t.Rows++
			case "th":
				t.HeaderCells++
			case "caption":
				t.HasCaption = true
			}
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return t
}

// textOf returns whitespace-collapsed text below n, skipping script and style
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
			return
		}
		if c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style") {
			return
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func descendantAlt(n *html.Node) string {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if c.Data == "img" {
				if alt := strings.TrimSpace(attr(c, "alt")); alt != "" {
					return alt
				}
			}
			if alt := descendantAlt(c); alt != "" {
				return alt
			}
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	v, _ := hasAttr(n, key)
	return v
}

func hasAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func isHidden(n *html.Node) bool {
	if _, ok := hasAttr(n, "hidden"); ok {
		return true
	}
	if strings.EqualFold(attr(n, "aria-hidden"), "true") {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func insideLink(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "a" {
			if _, ok := hasAttr(p, "href"); ok {
				return true
			}
		}
	}
	return false
}

func isHiddenInput(n *html.Node) bool {
	return n.Data == "input" && strings.EqualFold(attr(n, "type"), "hidden")
}

var skipWords = []string{"skip", "saltar", "ir al contenido", "jump to", "main content", "contenido principal"}

func looksLikeSkip(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range skipWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
