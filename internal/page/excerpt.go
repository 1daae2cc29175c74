package page

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// excerptPolicy keeps document structure and accessibility attributes,
// and drops scripts, styles and event handlers.
var excerptPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"html", "head", "title", "body", "header", "footer", "main", "nav", "aside", "section", "article",
		"h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "span", "ul", "ol", "li", "dl", "dt", "dd",
		"a", "img", "figure", "figcaption", "picture", "source", "video", "audio", "track",
		"table", "caption", "thead", "tbody", "tfoot", "tr", "th", "td",
		"form", "fieldset", "legend", "label", "input", "select", "option", "textarea", "button",
		"strong", "em", "b", "i", "abbr", "blockquote", "code", "pre", "iframe",
	)
	p.AllowAttrs(
		"id", "lang", "role", "title", "alt", "tabindex", "hidden",
		"aria-label", "aria-labelledby", "aria-describedby", "aria-hidden", "aria-live",
		"aria-expanded", "aria-required", "aria-invalid", "aria-current",
	).Globally()
	p.AllowAttrs("type", "name", "for", "autocomplete", "placeholder", "value", "required",
		"scope", "headers", "kind", "srclang").Globally()
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src").OnElements("img", "iframe", "source", "track", "video", "audio")
	p.AllowURLSchemes("http", "https", "mailto", "tel")
	p.AllowRelativeURLs(true)
	return p
}()

// Excerpt sanitizes htmlContent and caps it at maxBytes on a rune boundary
func Excerpt(htmlContent string, maxBytes int) string {
	clean := excerptPolicy.Sanitize(htmlContent)
	return Truncate(clean, maxBytes)
}

// Truncate cuts s to at most maxBytes without splitting a UTF-8 sequence
func Truncate(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// DisplayTitle picks a human label for a page: site name, then <title>, then host
func DisplayTitle(ctx Context) string {
	for _, key := range []string{"og:site_name", "application-name"} {
		if v := strings.TrimSpace(ctx.Meta(key)); v != "" {
			return v
		}
	}
	if t := strings.TrimSpace(ctx.Title()); t != "" {
		return t
	}
	if u, err := url.Parse(ctx.URL()); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return ctx.URL()
}
