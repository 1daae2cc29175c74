package check

import (
	"context"
	"testing"

	"github.com/ppiankov/wcagscan/internal/model"
	"github.com/ppiankov/wcagscan/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct{ code string }

func (s stubChecker) Code() string { return s.code }
func (s stubChecker) Evaluate(context.Context, Input) (model.Outcome, error) {
	return model.Outcome{Code: s.code}, nil
}

func TestRegistry_OrderAndSelect(t *testing.T) {
	r := NewRegistry().MustRegister(stubChecker{"2.4.2"}, stubChecker{"1.1.1"}, stubChecker{"3.1.1"})

	assert.Equal(t, []string{"2.4.2", "1.1.1", "3.1.1"}, r.Codes())
	assert.Equal(t, 3, r.Len())

	selected, unknown := r.Select([]string{"3.1.1", "9.9.9", "2.4.2", "3.1.1", "9.9.9"})
	assert.Equal(t, []string{"2.4.2", "3.1.1"}, selected, "registration order, deduplicated")
	assert.Equal(t, []string{"9.9.9"}, unknown)

	all, none := r.Select(nil)
	assert.Len(t, all, 3)
	assert.Empty(t, none)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubChecker{"1.1.1"}))
	assert.Error(t, r.Register(stubChecker{"1.1.1"}))
	assert.Error(t, r.Register(stubChecker{""}))
	assert.Panics(t, func() { r.MustRegister(stubChecker{"1.1.1"}) })
}

func TestInput_Richest(t *testing.T) {
	static, err := page.Parse("<html></html>", "https://example.com/")
	require.NoError(t, err)
	rendered, err := page.NewRendered("<html></html>", "https://example.com/", nil)
	require.NoError(t, err)

	assert.Equal(t, page.KindStatic, Input{Static: static}.Richest().Kind())
	assert.Equal(t, page.KindRendered, Input{Static: static, Rendered: rendered}.Richest().Kind())
}
