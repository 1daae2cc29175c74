package criteria

import (
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/wcagscan/internal/check"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
)

// NonTextContent is 1.1.1: images need a text alternative unless decorative.
// Linked images with an empty alt fail because the link loses its name.
func NonTextContent() check.Checker {
	return &rule{
		code:    "1.1.1",
		measure: measureAltText,
		ask: &question{
			prompt: "Some images have no usable text alternative. Say which look decorative and suggest short alt texts for the rest. " +
				`Reply as {"suggestions": [{"src": "", "suggestion_alt": "", "decorative": false}], "manual_review": false, "summary": ""}.`,
			when: hasViolations,
		},
	}
}

func measureAltText(pc page.Context) model.Details {
	images := pc.Images()
	total := len(images)
	withAlt, decorative, missing := 0, 0, 0
	var offenders []map[string]any

	for _, img := range images {
		alt, hasAlt := img.Attr("alt")
		role := strings.ToLower(img.AttrValue("role"))

		switch {
		case img.Hidden || role == "presentation" || role == "none":
			decorative++
		case !hasAlt:
			if img.AttrValue("aria-label") != "" || img.AttrValue("aria-labelledby") != "" {
				withAlt++
				continue
			}
			missing++
			offenders = appendOffender(offenders, img, "missing alt attribute")
		case strings.TrimSpace(alt) == "":
			if img.InLink {
				missing++
				offenders = appendOffender(offenders, img, "linked image with empty alt")
				continue
			}
			decorative++
		default:
			withAlt++
		}
	}

	d := counts(total, missing)
	d["images_total"] = total
	d["with_alt"] = withAlt
	d["decorative"] = decorative
	d["missing_alt"] = missing
	if total > 0 {
		d["ok_ratio"] = round4(float64(withAlt+decorative) / float64(total))
	}
	d["offenders"] = offenders
	return d
}

var captionKinds = map[string]bool{"captions": true, "subtitles": true}

var videoHosts = []string{"youtube.com", "youtube-nocookie.com", "youtu.be", "vimeo.com", "dailymotion.com", "wistia"}

// CaptionsPrerecorded is 1.2.2: native video needs a captions or subtitles track.
// Embedded third-party players cannot be inspected and require manual review.
func CaptionsPrerecorded() check.Checker {
	return &rule{
		code:    "1.2.2",
		measure: measureCaptions,
		ask: &question{
			prompt: "Judge whether the page's video content is likely to carry captions, including embedded players. " +
				`Reply as {"manual_review": true, "findings": [""], "summary": ""}.`,
			when: func(d model.Details) bool {
				v, _ := d.Int("videos_total")
				e, _ := d.Int("embedded_players")
				return v+e > 0
			},
		},
	}
}

func measureCaptions(pc page.Context) model.Details {
	videos, captioned := 0, 0
	var offenders []map[string]any
	for _, m := range visible(pc.Media()) {
		if m.Tag != "video" {
			continue
		}
		videos++
		ok := false
		for _, kind := range m.Tracks {
			if captionKinds[kind] {
				ok = true
				break
			}
		}
		if ok {
			captioned++
		} else {
			offenders = appendOffender(offenders, m, "video without captions track")
		}
	}

	embedded := 0
	for _, f := range pc.Iframes() {
		src := strings.ToLower(f.AttrValue("src"))
		for _, host := range videoHosts {
			if strings.Contains(src, host) {
				embedded++
				break
			}
		}
	}

	if videos == 0 {
		d := naDetails("no native video elements")
		d["videos_total"] = 0
		d["embedded_players"] = embedded
		return d
	}
	d := counts(videos, videos-captioned)
	d["videos_total"] = videos
	d["captioned"] = captioned
	d["embedded_players"] = embedded
	d["offenders"] = offenders
	return d
}

// InfoAndRelationships is 1.3.1: structure conveyed visually must be in markup.
// Data tables need header cells, heading levels must not skip, and form
// controls need a programmatic label.
func InfoAndRelationships() check.Checker {
	return &rule{
		code:    "1.3.1",
		measure: measureStructure,
		ask: &question{
			prompt: "Review the structural findings and suggest markup fixes for headings, tables and form labels. " +
				`Reply as {"fixes": [{"issue": "", "fix": ""}], "manual_review": false}.`,
			when: hasViolations,
		},
	}
}

func measureStructure(pc page.Context) model.Details {
	applicable, violations := 0, 0

	dataTables, headerless := 0, 0
	for _, t := range pc.Tables() {
		if t.Presentation || t.Rows < 2 {
			continue
		}
		dataTables++
		if t.HeaderCells == 0 {
			headerless++
		}
	}
	applicable += dataTables
	violations += headerless

	skips := 0
	var offenders []map[string]any
	headings := visible(pc.Headings())
	prev := 0
	for _, h := range headings {
		lvl := headingLevel(h)
		if prev > 0 && lvl > prev+1 {
			skips++
			offenders = appendOffender(offenders, h, "heading level skipped from h"+strconv.Itoa(prev))
		}
		prev = lvl
	}
	if len(headings) > 1 {
		applicable += len(headings) - 1
		violations += skips
	}

	controls, unlabelled := 0, 0
	for _, in := range labelableControls(pc) {
		controls++
		if in.Name == "" {
			unlabelled++
			offenders = appendOffender(offenders, in, "form control without label")
		}
	}
	applicable += controls
	violations += unlabelled

	d := counts(applicable, violations)
	d["tables_total"] = dataTables
	d["tables_without_headers"] = headerless
	d["headings_total"] = len(headings)
	d["heading_level_skips"] = skips
	d["controls_total"] = controls
	d["controls_unlabelled"] = unlabelled
	d["offenders"] = offenders
	return d
}

func headingLevel(h page.Element) int {
	if len(h.Tag) == 2 && h.Tag[0] == 'h' {
		if n, err := strconv.Atoi(h.Tag[1:]); err == nil {
			return n
		}
	}
	return 0
}

// labelableControls returns visible form fields that take user input
func labelableControls(pc page.Context) []page.Element {
	var out []page.Element
	for _, in := range visible(pc.Inputs()) {
		switch strings.ToLower(in.AttrValue("type")) {
		case "submit", "button", "reset", "image", "hidden":
			continue
		}
		out = append(out, in)
	}
	return out
}

// autocompleteFields maps personal-data hints found in name/id to the expected token
var autocompleteFields = []struct {
	hint  string
	token string
}{
	{"email", "email"},
	{"e-mail", "email"},
	{"correo", "email"},
	{"phone", "tel"},
	{"tel", "tel"},
	{"telefono", "tel"},
	{"firstname", "given-name"},
	{"first_name", "given-name"},
	{"given", "given-name"},
	{"lastname", "family-name"},
	{"last_name", "family-name"},
	{"surname", "family-name"},
	{"fullname", "name"},
	{"nombre", "name"},
	{"address", "street-address"},
	{"direccion", "street-address"},
	{"street", "street-address"},
	{"postal", "postal-code"},
	{"zip", "postal-code"},
	{"city", "address-level2"},
	{"ciudad", "address-level2"},
	{"country", "country-name"},
	{"pais", "country-name"},
	{"username", "username"},
	{"organization", "organization"},
	{"company", "organization"},
	{"birthday", "bday"},
	{"cc-number", "cc-number"},
	{"cardnumber", "cc-number"},
}

var typeTokens = map[string]string{"email": "email", "tel": "tel"}

var validAutocomplete = map[string]bool{
	"on": false, "off": false,
	"name": true, "honorific-prefix": true, "given-name": true, "additional-name": true, "family-name": true,
	"honorific-suffix": true, "nickname": true, "username": true, "new-password": true, "current-password": true,
	"one-time-code": true, "organization-title": true, "organization": true, "street-address": true,
	"address-line1": true, "address-line2": true, "address-line3": true, "address-level4": true,
	"address-level3": true, "address-level2": true, "address-level1": true, "country": true, "country-name": true,
	"postal-code": true, "cc-name": true, "cc-given-name": true, "cc-additional-name": true, "cc-family-name": true,
	"cc-number": true, "cc-exp": true, "cc-exp-month": true, "cc-exp-year": true, "cc-csc": true, "cc-type": true,
	"transaction-currency": true, "transaction-amount": true, "language": true, "bday": true, "bday-day": true,
	"bday-month": true, "bday-year": true, "sex": true, "url": true, "photo": true, "tel": true,
	"tel-country-code": true, "tel-national": true, "tel-area-code": true, "tel-local": true,
	"tel-extension": true, "email": true, "impp": true,
}

// IdentifyInputPurpose is 1.3.5: fields collecting personal data declare autocomplete tokens
func IdentifyInputPurpose() check.Checker {
	return &rule{
		code:    "1.3.5",
		measure: measureInputPurpose,
	}
}

func measureInputPurpose(pc page.Context) model.Details {
	candidates, missing, invalid := 0, 0, 0
	var offenders []map[string]any

	for _, in := range labelableControls(pc) {
		expected := expectedToken(in)
		if expected == "" {
			continue
		}
		candidates++
		ac := strings.Fields(strings.ToLower(in.AttrValue("autocomplete")))
		if len(ac) == 0 {
			missing++
			offenders = appendOffender(offenders, in, "missing autocomplete="+expected)
			continue
		}
		if !validAutocomplete[ac[len(ac)-1]] {
			invalid++
			offenders = appendOffender(offenders, in, "autocomplete value is not a purpose token")
		}
	}

	if candidates == 0 {
		d := naDetails("no fields collecting personal data")
		d["candidates"] = 0
		return d
	}
	d := counts(candidates, missing+invalid)
	d["candidates"] = candidates
	d["missing_autocomplete"] = missing
	d["invalid_autocomplete"] = invalid
	d["offenders"] = offenders
	return d
}

func expectedToken(in page.Element) string {
	if tok, ok := typeTokens[strings.ToLower(in.AttrValue("type"))]; ok {
		return tok
	}
	key := strings.ToLower(in.AttrValue("name") + " " + in.AttrValue("id"))
	for _, f := range autocompleteFields {
		if strings.Contains(key, f.hint) {
			return f.token
		}
	}
	return ""
}

// ContrastMinimum is 1.4.3. Static markup only yields samples where an inline
// style sets both text and background colors; a rendered snapshot supplies
// computed contrast for desktop and mobile widths.
func ContrastMinimum() check.Checker {
	return &rule{
		code:     "1.4.3",
		measure:  measureInlineContrast,
		rendered: measureProbeContrast,
		ask: &question{
			prompt: "Suggest color adjustments for the low-contrast samples that keep the design intent. " +
				`Reply as {"suggestions": [{"selector": "", "foreground": "", "background": ""}], "manual_review": false}.`,
			when: hasViolations,
		},
	}
}

func measureInlineContrast(pc page.Context) model.Details {
	var samples []page.ContrastSample
	for _, el := range visible(pc.Styled()) {
		decls := declarations(el.Attrs["style"])
		fg, ok := parseColor(decls["color"])
		if !ok {
			continue
		}
		bg, ok := backgroundColor(decls)
		if !ok {
			continue
		}
		selector := el.Tag
		if id := el.AttrValue("id"); id != "" {
			selector += "#" + id
		}
		samples = append(samples, page.ContrastSample{
			Selector: selector,
			Ratio:    contrastRatio(fg, bg),
			Large:    largeText(decls),
		})
	}
	d := contrastDetails(samples, nil)
	d[model.KeyNote] = "inline style colors only"
	return d
}

func measureProbeContrast(pc page.Context) model.Details {
	probe := pc.Probe()
	if probe == nil {
		return measureInlineContrast(pc)
	}
	return contrastDetails(probe.Contrast, probe.ContrastMobile)
}

func contrastDetails(desktop, mobile []page.ContrastSample) model.Details {
	failsDesktop, offenders, minRatio := contrastFailures(desktop, nil, math.Inf(1))
	failsMobile, offenders, minRatio := contrastFailures(mobile, offenders, minRatio)

	tested := len(desktop) + len(mobile)
	d := counts(tested, failsDesktop+failsMobile)
	d["tested_desktop"] = len(desktop)
	d["tested_mobile"] = len(mobile)
	d["fails_desktop"] = failsDesktop
	d["fails_mobile"] = failsMobile
	if tested > 0 {
		d["min_ratio"] = round4(minRatio)
	}
	d["offenders"] = offenders
	return d
}

func contrastFailures(samples []page.ContrastSample, offenders []map[string]any, minRatio float64) (int, []map[string]any, float64) {
	fails := 0
	for _, s := range samples {
		minRatio = math.Min(minRatio, s.Ratio)
		if s.Ratio+1e-9 < s.Required() {
			fails++
			if len(offenders) < maxOffenders {
				offenders = append(offenders, map[string]any{
					"selector": s.Selector,
					"ratio":    round4(s.Ratio),
					"required": s.Required(),
				})
			}
		}
	}
	return fails, offenders, minRatio
}

// ResizeText is 1.4.4: the viewport must not block zooming to 200%
func ResizeText() check.Checker {
	return &rule{
		code:    "1.4.4",
		measure: measureZoom,
	}
}

func measureZoom(pc page.Context) model.Details {
	content, ok := pc.Viewport()
	params := viewportParams(content)

	blocked := false
	var reasons []string
	if us, has := params["user-scalable"]; has && (us == "no" || us == "0") {
		blocked = true
		reasons = append(reasons, "user-scalable="+us)
	}
	if ms, has := params["maximum-scale"]; has {
		if f, err := strconv.ParseFloat(ms, 64); err == nil && f < 2 {
			blocked = true
			reasons = append(reasons, "maximum-scale="+ms)
		}
	}

	violations := 0
	if blocked {
		violations = 1
	}
	d := counts(1, violations)
	d["viewport_present"] = ok
	d["viewport"] = content
	d["zoom_blocked"] = blocked
	if len(reasons) > 0 {
		d["reasons"] = reasons
	}
	return d
}

// viewportParams splits "width=device-width, initial-scale=1" into lowercase pairs
func viewportParams(content string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.FieldsFunc(content, func(r rune) bool { return r == ',' || r == ';' }) {
		key, value, _ := strings.Cut(part, "=")
		out[strings.ToLower(strings.TrimSpace(key))] = strings.ToLower(strings.TrimSpace(value))
	}
	return out
}

// Reflow is 1.4.10: content must fit a 320 CSS pixel viewport without horizontal
// scrolling. Static markup can only check for a responsive viewport declaration.
func Reflow() check.Checker {
	return &rule{
		code:     "1.4.10",
		measure:  measureViewportReflow,
		rendered: measureOverflow,
	}
}

func measureViewportReflow(pc page.Context) model.Details {
	content, ok := pc.Viewport()
	responsive := ok && viewportParams(content)["width"] == "device-width"
	violations := 0
	if !responsive {
		violations = 1
	}
	d := counts(1, violations)
	d["viewport_present"] = ok
	d["responsive_viewport"] = responsive
	d[model.KeyNote] = "static check of the viewport declaration only"
	return d
}

func measureOverflow(pc page.Context) model.Details {
	probe := pc.Probe()
	if probe == nil || probe.OverflowX == nil {
		return measureViewportReflow(pc)
	}
	violations := 0
	if *probe.OverflowX {
		violations = 1
	}
	d := counts(1, violations)
	d["overflow_x"] = *probe.OverflowX
	d["viewport_width"] = probe.ViewportWidth
	return d
}
