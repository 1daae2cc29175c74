package criteria

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/wcagscan/internal/check"
	"github.com/ppiankov/wcagscan/internal/llm"
	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
)

type fakeAdvisor struct {
	reply   map[string]any
	err     error
	prompts []string
}

func (f *fakeAdvisor) AskJSON(_ context.Context, prompt, _ string) (map[string]any, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func static(t *testing.T, html string) page.Context {
	t.Helper()
	doc, err := page.Parse(html, "https://example.test/")
	require.NoError(t, err)
	return doc
}

func rendered(t *testing.T, html string, probe *page.Probe) page.Context {
	t.Helper()
	doc, err := page.NewRendered(html, "https://example.test/", probe)
	require.NoError(t, err)
	return doc
}

func evalRaw(t *testing.T, c check.Checker, html string) model.Outcome {
	t.Helper()
	out, err := c.Evaluate(context.Background(), check.Input{Mode: model.ModeRaw, Static: static(t, html)})
	require.NoError(t, err)
	return out
}

func TestNonTextContent(t *testing.T) {
	html := `<html><body>
		<img src="a.png" alt="Logo">
		<img src="b.png" alt="">
		<img src="c.png">
		<a href="/home"><img src="d.png" alt=""></a>
		<img src="e.png" role="presentation">
	</body></html>`

	out := evalRaw(t, NonTextContent(), html)
	assert.Equal(t, "1.1.1", out.Code)
	assert.Equal(t, model.VerdictFail, out.Verdict)
	assert.Equal(t, 0, out.Score)
	assert.Equal(t, 5, out.Details["images_total"])
	assert.Equal(t, 2, out.Details["missing_alt"])
	assert.Equal(t, 2, out.Details["decorative"])
	require.NotNil(t, out.ScoreHint)
	assert.InDelta(t, 0.6, *out.ScoreHint, 1e-9)
}

func TestNonTextContent_AllGood(t *testing.T) {
	out := evalRaw(t, NonTextContent(), `<img src="a.png" alt="Chart of sales">`)
	assert.Equal(t, model.VerdictPass, out.Verdict)
	assert.Equal(t, 2, out.Score)
}

func TestNonTextContent_NoImagesIsNA(t *testing.T) {
	out := evalRaw(t, NonTextContent(), `<p>text only</p>`)
	assert.Equal(t, model.VerdictNA, out.Verdict)
	assert.Equal(t, model.NeutralScore, out.Score)
	assert.True(t, out.Details.Bool(model.KeyNA))
	assert.Nil(t, out.ScoreHint)
}

func TestCaptionsPrerecorded(t *testing.T) {
	html := `<video src="a.mp4"><track kind="captions" src="a.vtt"></video>
		<video src="b.mp4"></video>
		<iframe src="https://www.youtube.com/embed/xyz" title="Demo"></iframe>`
	out := evalRaw(t, CaptionsPrerecorded(), html)
	assert.Equal(t, model.VerdictFail, out.Verdict)
	assert.Equal(t, 2, out.Details["videos_total"])
	assert.Equal(t, 1, out.Details["embedded_players"])

	na := evalRaw(t, CaptionsPrerecorded(), `<audio src="a.mp3"></audio>`)
	assert.Equal(t, model.VerdictNA, na.Verdict)
}

func TestInfoAndRelationships(t *testing.T) {
	html := `<h1>Title</h1><h3>Skipped</h3>
		<table><tr><td>a</td></tr><tr><td>b</td></tr></table>
		<label for="q">Search</label><input id="q" type="text">
		<input type="text" name="nolabel">`
	out := evalRaw(t, InfoAndRelationships(), html)
	assert.Equal(t, 1, out.Details["heading_level_skips"])
	assert.Equal(t, 1, out.Details["tables_without_headers"])
	assert.Equal(t, 1, out.Details["controls_unlabelled"])
	// 1 table + 1 heading transition + 2 controls, 3 violations
	assert.Equal(t, 4, out.Details[model.KeyApplicable])
	assert.Equal(t, model.VerdictFail, out.Verdict)
}

func TestIdentifyInputPurpose(t *testing.T) {
	html := `<form>
		<label>Email <input type="email" name="email" autocomplete="email"></label>
		<label>Phone <input type="text" name="phone"></label>
		<label>City <input type="text" name="city" autocomplete="nope"></label>
		<label>Comment <input type="text" name="comment"></label>
	</form>`
	out := evalRaw(t, IdentifyInputPurpose(), html)
	assert.Equal(t, 3, out.Details["candidates"])
	assert.Equal(t, 1, out.Details["missing_autocomplete"])
	assert.Equal(t, 1, out.Details["invalid_autocomplete"])
	assert.Equal(t, model.VerdictFail, out.Verdict)

	none := evalRaw(t, IdentifyInputPurpose(), `<input type="search" name="q">`)
	assert.Equal(t, model.VerdictNA, none.Verdict)
}

func TestContrastMinimum_InlineStyles(t *testing.T) {
	html := `<p style="color: #777; background-color: #fff">low</p>
		<p style="color:black;background:white">high</p>
		<p style="color: rgb(0, 0, 0)">no background</p>`
	out := evalRaw(t, ContrastMinimum(), html)
	assert.Equal(t, 2, out.Details["tested_desktop"])
	assert.Equal(t, 0, out.Details["tested_mobile"])
	assert.Equal(t, 1, out.Details["fails_desktop"])
	assert.Equal(t, model.VerdictFail, out.Verdict)
}

func TestContrastMinimum_RenderedProbe(t *testing.T) {
	probe := &page.Probe{
		Contrast: []page.ContrastSample{
			{Selector: "p", Ratio: 7},
			{Selector: "h1", Ratio: 3.2, Large: true},
			{Selector: "small", Ratio: 3.9},
		},
		ContrastMobile: []page.ContrastSample{{Selector: "p", Ratio: 8}, {Selector: "nav a", Ratio: 12}},
	}
	in := check.Input{
		Mode:     model.ModeRendered,
		Static:   static(t, "<p>x</p>"),
		Rendered: rendered(t, "<p>x</p>", probe),
	}
	out, err := ContrastMinimum().Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Details["tested_desktop"])
	assert.Equal(t, 2, out.Details["tested_mobile"])
	assert.Equal(t, 1, out.Details["fails_desktop"])
	assert.Equal(t, true, out.Details["rendered"])
	// 4 of 5 compliant
	assert.Equal(t, model.VerdictPartial, out.Verdict)
}

func TestContrastMinimum_NoSamplesIsNA(t *testing.T) {
	out := evalRaw(t, ContrastMinimum(), `<p>plain</p>`)
	assert.Equal(t, model.VerdictNA, out.Verdict)
	assert.Equal(t, 0, out.Details["tested_desktop"])
}

func TestResizeText(t *testing.T) {
	blocked := evalRaw(t, ResizeText(), `<head><meta name="viewport" content="width=device-width, maximum-scale=1, user-scalable=no"></head>`)
	assert.Equal(t, model.VerdictFail, blocked.Verdict)
	assert.Equal(t, true, blocked.Details["zoom_blocked"])

	ok := evalRaw(t, ResizeText(), `<head><meta name="viewport" content="width=device-width, initial-scale=1"></head>`)
	assert.Equal(t, model.VerdictPass, ok.Verdict)
}

func TestReflow(t *testing.T) {
	noViewport := evalRaw(t, Reflow(), `<p>x</p>`)
	assert.Equal(t, model.VerdictFail, noViewport.Verdict)

	overflow := true
	in := check.Input{
		Mode:     model.ModeRendered,
		Static:   static(t, "<p>x</p>"),
		Rendered: rendered(t, "<p>x</p>", &page.Probe{OverflowX: &overflow, ViewportWidth: 320}),
	}
	out, err := Reflow().Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictFail, out.Verdict)
	assert.Equal(t, 320, out.Details["viewport_width"])
}

func TestBypassBlocks(t *testing.T) {
	assert.Equal(t, model.VerdictPass, evalRaw(t, BypassBlocks(), `<main><p>x</p></main>`).Verdict)
	assert.Equal(t, model.VerdictPass, evalRaw(t, BypassBlocks(), `<a href="#content">Skip to content</a>`).Verdict)
	assert.Equal(t, model.VerdictFail, evalRaw(t, BypassBlocks(), `<div>nothing</div>`).Verdict)
}

func TestPageTitled(t *testing.T) {
	assert.Equal(t, model.VerdictPass, evalRaw(t, PageTitled(), `<title>Annual report 2025</title>`).Verdict)
	assert.Equal(t, model.VerdictPartial, evalRaw(t, PageTitled(), `<title>Home</title>`).Verdict)
	assert.Equal(t, model.VerdictFail, evalRaw(t, PageTitled(), `<title> </title>`).Verdict)
}

func TestLinkPurpose(t *testing.T) {
	html := `<a href="/a">Annual report</a>
		<a href="/b">Click here</a>
		<a href="/c"></a>
		<a href="/d" aria-label="Download the annual report">Read more</a>
		<a href="/e"><img src="x.png" alt="Home page"></a>`
	out := evalRaw(t, LinkPurpose(), html)
	assert.Equal(t, 5, out.Details["links_total"])
	assert.Equal(t, 1, out.Details["empty_names"])
	assert.Equal(t, 1, out.Details["generic_texts"])
	assert.Equal(t, model.VerdictFail, out.Verdict)
}

func TestFocusVisible(t *testing.T) {
	html := `<style>a:focus { outline: none }</style><a href="/">x</a>`
	out := evalRaw(t, FocusVisible(), html)
	assert.Equal(t, model.VerdictNA, out.Verdict)
	assert.Equal(t, 0, out.Details["tested"])
	assert.Equal(t, 1, out.Details["outline_none_rules"])

	probe := &page.Probe{Focus: []page.FocusSample{{Selector: "a", Visible: true}, {Selector: "button", Visible: false}}}
	in := check.Input{Mode: model.ModeRendered, Static: static(t, html), Rendered: rendered(t, html, probe)}
	r, err := FocusVisible().Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Details["tested"])
	assert.Equal(t, model.VerdictFail, r.Verdict)
}

func TestTargetSize(t *testing.T) {
	assert.Equal(t, model.VerdictNA, evalRaw(t, TargetSize(), `<button>x</button>`).Verdict)

	probe := &page.Probe{Targets: []page.TargetSample{
		{Selector: "button.big", Width: 48, Height: 48},
		{Selector: "a.inline", Width: 20, Height: 16, Inline: true},
	}}
	in := check.Input{Mode: model.ModeRendered, Static: static(t, ""), Rendered: rendered(t, "", probe)}
	out, err := TargetSize().Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.VerdictPass, out.Verdict)
	assert.Equal(t, 1, out.Details["inline_exempt"])
}

func TestLanguageOfPage(t *testing.T) {
	ok := evalRaw(t, LanguageOfPage(), `<html lang="es-PE"><body></body></html>`)
	assert.Equal(t, model.VerdictPass, ok.Verdict)
	assert.Equal(t, "es", ok.Details["base_language"])

	missing := evalRaw(t, LanguageOfPage(), `<html><body></body></html>`)
	assert.Equal(t, model.VerdictFail, missing.Verdict)

	invalid := evalRaw(t, LanguageOfPage(), `<html lang="not a language"><body></body></html>`)
	assert.Equal(t, model.VerdictFail, invalid.Verdict)
}

func TestLabelsOrInstructions(t *testing.T) {
	html := `<label>Name <input type="text" name="n"></label>
		<input type="text" name="q" placeholder="Search">
		<input type="text" name="x">
		<input type="text" name="y" aria-label="Year">
		<input type="submit" value="Send">`
	out := evalRaw(t, LabelsOrInstructions(), html)
	assert.Equal(t, 4, out.Details["controls_total"])
	assert.Equal(t, 1, out.Details["placeholder_only"])
	assert.Equal(t, 1, out.Details["unlabelled"])
	assert.Equal(t, model.VerdictFail, out.Verdict)
}

func TestParsing_LegacyOnly(t *testing.T) {
	c := Parsing()
	_, err := c.Evaluate(context.Background(), check.Input{Mode: model.ModeRaw})
	assert.ErrorIs(t, err, check.ErrModeUnsupported)

	lc, ok := c.(check.LegacyChecker)
	require.True(t, ok)

	doc := static(t, `<div id="a"></div><div id="a"></div><div id="b"></div>
		<input id="c" aria-describedby="b missing">`)
	out, err := lc.EvaluateLegacy(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Details["duplicate_ids"])
	assert.Equal(t, 1, out.Details["broken_references"])
	// 3 ids + 2 references, 2 violations
	assert.Equal(t, model.VerdictFail, out.Verdict)
}

func TestNameRoleValue(t *testing.T) {
	html := `<button>Save</button>
		<button><svg></svg></button>
		<div role="button" aria-label="Close"></div>
		<iframe src="/map"></iframe>
		<label>Age <input type="number"></label>`
	out := evalRaw(t, NameRoleValue(), html)
	assert.Equal(t, 5, out.Details[model.KeyApplicable])
	assert.Equal(t, 2, out.Details["unnamed"])
	assert.Equal(t, model.VerdictFail, out.Verdict)
}

func TestRule_AIMode(t *testing.T) {
	html := `<img src="a.png">`
	advisor := &fakeAdvisor{reply: map[string]any{"manual_review": true, "suggestions": []any{}}}
	in := check.Input{Mode: model.ModeAI, Static: static(t, html), Excerpt: html, Advisor: advisor}

	out, err := NonTextContent().Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.ManualRequired)
	info, ok := out.Details[model.KeyAIInfo].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, info["ai_used"])
	assert.Equal(t, "no rendered snapshot; measured static markup", out.Details["warning"])
	require.Len(t, advisor.prompts, 1)
	assert.Contains(t, advisor.prompts[0], "WCAG 1.1.1")
}

func TestRule_AIModeNothingToReview(t *testing.T) {
	advisor := &fakeAdvisor{}
	in := check.Input{Mode: model.ModeAI, Static: static(t, `<img src="a.png" alt="ok">`), Advisor: advisor}

	out, err := NonTextContent().Evaluate(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, advisor.prompts)
	info := out.Details[model.KeyAIInfo].(map[string]any)
	assert.Equal(t, false, info["ai_used"])
}

func TestRule_AIModeErrors(t *testing.T) {
	in := check.Input{Mode: model.ModeAI, Static: static(t, `<img src="a.png">`)}
	_, err := NonTextContent().Evaluate(context.Background(), in)
	assert.ErrorIs(t, err, llm.ErrDisabled)

	boom := errors.New("advisor down")
	in.Advisor = &fakeAdvisor{err: boom}
	_, err = NonTextContent().Evaluate(context.Background(), in)
	assert.ErrorIs(t, err, boom)
}

func TestRule_RejectsAutoMode(t *testing.T) {
	_, err := PageTitled().Evaluate(context.Background(), check.Input{Mode: model.ModeAuto, Static: static(t, "")})
	assert.ErrorIs(t, err, check.ErrModeUnsupported)
}

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, 16, reg.Len())
	codes := reg.Codes()
	assert.Equal(t, "1.1.1", codes[0])
	assert.Equal(t, "4.1.2", codes[len(codes)-1])
	for _, code := range codes {
		_, known := model.WCAGMeta[code]
		assert.True(t, known, code)
	}
}
