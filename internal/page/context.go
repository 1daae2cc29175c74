package page

import "strings"

// Kind distinguishes static markup snapshots from rendered DOM snapshots
type Kind string

const (
	KindStatic   Kind = "static"
	KindRendered Kind = "rendered"
)

// Context is the read interface checks use to inspect a page snapshot.
// Static and rendered snapshots satisfy it alike; only rendered ones carry a Probe.
type Context interface {
	Kind() Kind
	URL() string
	HTML() string
	Title() string
	Lang() string
	Viewport() (content string, ok bool)
	Meta(name string) string

	Images() []Element
	Anchors() []Element
	Inputs() []Element // input, select, textarea
	Buttons() []Element
	Headings() []Element
	Tables() []Table
	Media() []Element // video, audio
	Iframes() []Element
	Styled() []Element // elements carrying inline color declarations

	Landmarks() Landmarks
	IDCounts() map[string]int
	Probe() *Probe // nil for static snapshots
}

// Element is a flattened view of one HTML element
type Element struct {
	Tag    string            `json:"tag"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Text   string            `json:"text,omitempty"`  // Collapsed descendant text
	Name   string            `json:"name,omitempty"`  // Best-effort accessible name
	Label  string            `json:"label,omitempty"` // Associated <label> text for form controls
	Hidden bool              `json:"hidden,omitempty"`
	InLink bool              `json:"in_link,omitempty"` // Descendant of <a href>
	Tracks []string          `json:"tracks,omitempty"`  // <track kind> values for media
}

// Attr returns the attribute value and whether it was present
func (e Element) Attr(key string) (string, bool) {
	v, ok := e.Attrs[key]
	return v, ok
}

// AttrValue returns the trimmed attribute value or ""
func (e Element) AttrValue(key string) string {
	return strings.TrimSpace(e.Attrs[key])
}

// Table summarises one <table>
type Table struct {
	Rows         int  `json:"rows"`
	HeaderCells  int  `json:"header_cells"`
	HasCaption   bool `json:"has_caption"`
	Presentation bool `json:"presentation"` // role=presentation/none layout table
}

// Landmarks records which ARIA landmarks a page exposes
type Landmarks struct {
	Main          bool `json:"main"`
	Nav           bool `json:"nav"`
	Search        bool `json:"search"`
	Banner        bool `json:"banner"`
	ContentInfo   bool `json:"contentinfo"`
	Complementary bool `json:"complementary"`
	SkipLink      bool `json:"skip_link"`
}

// Document is the concrete Context built from parsed HTML
type Document struct {
	kind     Kind
	url      string
	html     string
	title    string
	lang     string
	viewport *string
	meta     map[string]string

	images    []Element
	anchors   []Element
	inputs    []Element
	buttons   []Element
	headings  []Element
	tables    []Table
	media     []Element
	iframes   []Element
	styled    []Element
	landmarks Landmarks
	ids       map[string]int
	probe     *Probe
}

func (d *Document) Kind() Kind               { return d.kind }
func (d *Document) URL() string              { return d.url }
func (d *Document) HTML() string             { return d.html }
func (d *Document) Title() string            { return d.title }
func (d *Document) Lang() string             { return d.lang }
func (d *Document) Images() []Element        { return d.images }
func (d *Document) Anchors() []Element       { return d.anchors }
func (d *Document) Inputs() []Element        { return d.inputs }
func (d *Document) Buttons() []Element       { return d.buttons }
func (d *Document) Headings() []Element      { return d.headings }
func (d *Document) Tables() []Table          { return d.tables }
func (d *Document) Media() []Element         { return d.media }
func (d *Document) Iframes() []Element       { return d.iframes }
func (d *Document) Styled() []Element        { return d.styled }
func (d *Document) Landmarks() Landmarks     { return d.landmarks }
func (d *Document) IDCounts() map[string]int { return d.ids }
func (d *Document) Probe() *Probe            { return d.probe }

func (d *Document) Viewport() (string, bool) {
	if d.viewport == nil {
		return "", false
	}
	return *d.viewport, true
}

// Meta returns the content of <meta name=...> or <meta property=...>, lowercased key
func (d *Document) Meta(name string) string {
	return d.meta[strings.ToLower(name)]
}
