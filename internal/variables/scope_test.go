package variables

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/position"
	"github.com/taylordaughtry/formie/internal/service"
)

type fakeEvaluator struct{}

func (fakeEvaluator) Evaluate(_ context.Context, tpl string, s *form.Submission, f *form.Form, n *form.Notification) (string, error) {
	parts := []string{tpl}
	if s != nil {
		parts = append(parts, fmt.Sprint("submission ", s.ID))
	}
	if f != nil {
		parts = append(parts, "form "+f.Handle)
	}
	if n != nil {
		parts = append(parts, "notification "+n.Name)
	}
	return strings.Join(parts, "|"), nil
}

func TestScopeOptionsAreOptional(t *testing.T) {
	v, r := newVariables(service.Settings{PluginName: "Forms"})
	s := v.Bind(context.Background())

	out, err := s.RenderForm("contact")
	require.NoError(t, err)
	require.Equal(t, "<form>", out)

	_, err = s.RenderForm("contact", map[string]any{"a": 1})
	require.NoError(t, err)

	out, err = s.RegisterAssets("contact")
	require.NoError(t, err)
	require.Empty(t, out)

	_, err = s.RenderPage("contact")
	require.NoError(t, err)

	require.Equal(t, []string{
		"form contact <nil>",
		"form contact map[a:1]",
		"assets contact",
		"page contact true",
	}, r.calls)
	require.Equal(t, "Forms", s.PluginName())
}

func TestScopeParsedValueSortsReferences(t *testing.T) {
	v := New(&service.Plugin{
		Forms:     fakeForms{"contact": {Handle: "contact"}},
		Evaluator: fakeEvaluator{},
	})
	s := v.Bind(context.Background())

	out, err := s.ParsedValue("Hi {name}", &form.Notification{Name: "Admin"}, "contact", &form.Submission{ID: 7})
	require.NoError(t, err)
	require.Equal(t, "Hi {name}|submission 7|form contact|notification Admin", out)

	out, err = s.ParsedValue("plain", nil)
	require.NoError(t, err)
	require.Equal(t, "plain", out)

	_, err = s.ParsedValue("x", "missing")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestScopePositionsAsKinds(t *testing.T) {
	s := New(&service.Plugin{}).Bind(context.Background())
	email := &form.Field{Handle: "email", Kind: form.KindEmail, LabelPosition: position.LeftInput, Instructions: "Work"}
	f := newForm(t, defaults, email)

	label, err := s.LabelPosition(email, f)
	require.NoError(t, err)
	require.Equal(t, "left-input", label)

	instructions, err := s.InstructionsPosition(email, f)
	require.NoError(t, err)
	require.Equal(t, "below-input", instructions)

	require.Equal(t, "fields[email]", s.FieldNamespaceForScript(email))
}
