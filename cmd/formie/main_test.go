package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taylordaughtry/formie/internal/scaffold"
)

const (
	testConfig = "../../internal/config/testdata/formie.yaml"
	testForms  = "../../internal/formstore/testdata/forms"
)

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"help"}, &out, &bytes.Buffer{}))
	require.Contains(t, out.String(), "compile-sdl")

	out.Reset()
	require.NoError(t, run([]string{"help", "serve"}, &out, &bytes.Buffer{}))
	require.Contains(t, out.String(), "-server.addr")

	require.Error(t, run([]string{"help", "nope"}, &out, &bytes.Buffer{}))
}

func TestUnknownCommand(t *testing.T) {
	var errOut bytes.Buffer
	err := run([]string{"bogus"}, &bytes.Buffer{}, &errOut)
	require.ErrorContains(t, err, `unknown command "bogus"`)
	require.Contains(t, errOut.String(), "USAGE")

	require.ErrorContains(t, run(nil, &bytes.Buffer{}, &errOut), "missing command")
}

func TestCompileSDL(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"compile-sdl", "-config", testConfig, "-forms", testForms}, &out, &bytes.Buffer{})
	require.NoError(t, err)

	sdl := out.String()
	for _, want := range []string{
		"interface FormInterface",
		"interface ElementInterface",
		"type contact_Form",
		"type survey_Form",
		"type Field_Dropdown",
		"type FormieCsrfTokenType",
		"type FormieCaptchaType",
		"formieForm(",
		"templateHtml(",
	} {
		require.Contains(t, sdl, want)
	}
}

func TestCompileSDLToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.graphql")
	err := run([]string{"compile-sdl", "-config", testConfig, "-forms", testForms, "-out", path}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "type contact_Form")
}

func TestCompileSDLWithoutForms(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"compile-sdl", "-config", testConfig, "-forms", filepath.Join(t.TempDir(), "missing")}, &out, &errOut)
	require.NoError(t, err)
	require.Contains(t, out.String(), "interface FormInterface")
	require.Contains(t, errOut.String(), "forms directory does not exist")
}

func TestRender(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{
		"render", "-config", testConfig, "-forms", testForms,
		"-handle", "contact",
		"-options", `{"formClass":"wide"}`,
		"-populate", `{"emailAddress":"ann@example.com"}`,
	}, &out, &bytes.Buffer{})
	require.NoError(t, err)

	html := out.String()
	require.Contains(t, html, `id="fui-contact"`)
	require.Contains(t, html, "wide")
	require.Contains(t, html, "ann@example.com")
}

func TestRenderRequiresHandle(t *testing.T) {
	err := run([]string{"render", "-config", testConfig, "-forms", testForms}, &bytes.Buffer{}, &bytes.Buffer{})
	require.ErrorContains(t, err, "-handle is required")
}

func TestRenderUnknownForm(t *testing.T) {
	err := run([]string{"render", "-config", testConfig, "-forms", testForms, "-handle", "missing"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
}

// defaults answers every prompt with its default and declines to add fields.
type defaults struct {
	inputs []string
}

func (d *defaults) Input(_ context.Context, cfg scaffold.InputConfig) (string, error) {
	if len(d.inputs) > 0 {
		v := d.inputs[0]
		d.inputs = d.inputs[1:]
		if v != "" {
			return v, nil
		}
	}
	return cfg.Default, nil
}

func (d *defaults) Confirm(context.Context, string, bool) (bool, error) { return false, nil }

func (d *defaults) Select(_ context.Context, cfg scaffold.SelectConfig) (int, error) {
	return cfg.Default, nil
}

func (d *defaults) MultiSelect(context.Context, scaffold.SelectConfig) ([]int, error) {
	return nil, nil
}

func TestNewForm(t *testing.T) {
	prev := newPrompter
	newPrompter = func() scaffold.Prompter { return &defaults{inputs: []string{"Customer Feedback"}} }
	t.Cleanup(func() { newPrompter = prev })

	var out bytes.Buffer
	require.NoError(t, run([]string{"new-form"}, &out, &bytes.Buffer{}))
	require.Contains(t, out.String(), "Customer Feedback")
	require.Contains(t, out.String(), "customerFeedback")

	path := filepath.Join(t.TempDir(), "feedback.yaml")
	newPrompter = func() scaffold.Prompter { return &defaults{inputs: []string{"Feedback"}} }
	require.NoError(t, run([]string{"new-form", "-out", path}, &bytes.Buffer{}, &bytes.Buffer{}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), "feedback"))
}
