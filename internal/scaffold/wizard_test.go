package scaffold

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/formstore"
	"github.com/taylordaughtry/formie/internal/position"
)

// scripted answers prompts in order. Empty input answers take the default.
type scripted struct {
	inputs   []string
	confirms []bool
	selects  []string
	multi    [][]string
}

func (s *scripted) Input(_ context.Context, cfg InputConfig) (string, error) {
	v := s.inputs[0]
	s.inputs = s.inputs[1:]
	if v == "" {
		v = cfg.Default
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (s *scripted) Confirm(context.Context, string, bool) (bool, error) {
	v := s.confirms[0]
	s.confirms = s.confirms[1:]
	return v, nil
}

func (s *scripted) Select(_ context.Context, cfg SelectConfig) (int, error) {
	v := s.selects[0]
	s.selects = s.selects[1:]
	return indexOf(cfg.Options, v), nil
}

func (s *scripted) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	v := s.multi[0]
	s.multi = s.multi[1:]
	var out []int
	for _, o := range v {
		out = append(out, indexOf(cfg.Options, o))
	}
	return out, nil
}

func TestHandle(t *testing.T) {
	require.Equal(t, "emailAddress", Handle("Email Address"))
	require.Equal(t, "yourName", Handle("  your-NAME "))
	require.Equal(t, "f2ndLine", Handle("2nd line"))
}

func TestParseOptions(t *testing.T) {
	require.Equal(t, []formstore.OptionDocument{
		{Label: "Sales", Value: "sales"},
		{Label: "Tech Support", Value: "support"},
	}, parseOptions("Sales, Tech Support=support,,"))
}

func TestRunProducesLoadableForm(t *testing.T) {
	p := &scripted{
		inputs:   []string{"Contact Us", "", "Email Address", "", "Topic", "", "Sales, Support"},
		confirms: []bool{true, true, true, false, false},
		selects:  []string{"Left of Input", "Below Input", "email", "dropdown"},
		multi:    [][]string{{"honeypot"}},
	}
	doc, err := Run(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, "contactUs", doc.Handle)
	require.Equal(t, "left-input", doc.Settings.DefaultLabelPosition)
	require.Equal(t, []string{"honeypot"}, doc.Settings.Captchas)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc))

	forms, err := formstore.LoadFS(context.Background(), fstest.MapFS{"contactUs.yaml": {Data: buf.Bytes()}})
	require.NoError(t, err)
	require.Len(t, forms, 1)
	f := forms[0]
	require.Equal(t, position.BelowInput, f.Settings.DefaultInstructionsPosition)

	email := f.FieldByHandle("emailAddress")
	require.Equal(t, form.KindEmail, email.Kind)
	require.True(t, email.Required)

	topic := f.FieldByHandle("topic")
	require.Equal(t, form.KindDropdown, topic.Kind)
	require.False(t, topic.Required)
	require.Len(t, topic.Options, 2)
}

func TestRunRejectsDuplicateFieldHandle(t *testing.T) {
	p := &scripted{
		inputs:   []string{"Survey", "", "Name", "", "Name", ""},
		confirms: []bool{true, false, true},
		selects:  []string{"Above Input", "Above Input", "singleLineText"},
		multi:    [][]string{nil},
	}
	_, err := Run(context.Background(), p)
	require.ErrorContains(t, err, `handle "name" is already used`)
}

func TestRunPropagatesAbort(t *testing.T) {
	_, err := Run(context.Background(), &abortPrompter{})
	require.ErrorIs(t, err, ErrAborted)
}

type abortPrompter struct{ scripted }

func (abortPrompter) Input(context.Context, InputConfig) (string, error) { return "", ErrAborted }
