package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func buildTestSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := BuildFromSDL("forms.graphql", mustReadFile(t, "testdata/forms.graphql"))
	require.NoError(t, err, "failed to build schema from SDL")
	require.NoError(t, s.LoadSDL("extensions.graphql", mustReadFile(t, "testdata/extensions.graphql")))
	return s
}

func TestSchemaSnapshot(t *testing.T) {
	schema := buildTestSchema(t)

	actual, err := json.MarshalIndent(schema, "", "  ")
	require.NoError(t, err, "failed to marshal schema to JSON")

	compareSnapshot(t, filepath.Join("testdata", "schema_snapshot.json"), string(actual))
}

func TestSchemaRenderSnapshot(t *testing.T) {
	schema := buildTestSchema(t)
	compareSnapshot(t, filepath.Join("testdata", "schema_rendered.graphql"), Render(schema))
}

func TestRenderedSchemaParsesBack(t *testing.T) {
	first := Render(buildTestSchema(t))

	reparsed, err := BuildFromSDL("rendered.graphql", first)
	require.NoError(t, err)
	require.Equal(t, first, Render(reparsed))
}

func TestLoadSDLMergesExtensions(t *testing.T) {
	s := buildTestSchema(t)

	form := s.Types["contact_Form"]
	require.NotNil(t, form)
	require.NotNil(t, form.FieldByName("pages"))
	require.Equal(t, "pages", form.Fields[len(form.Fields)-1].Name)

	query := s.GetQueryType()
	require.NotNil(t, query.FieldByName("formieForm"))
	require.NotNil(t, query.FieldByName("formieForms"))
	require.Equal(t, 10, int(query.FieldByName("formieForm").Arguments[1].DefaultValue.(int64)))
}

func TestLoadSDLErrors(t *testing.T) {
	s := buildTestSchema(t)

	err := s.LoadSDL("dup.graphql", `type Page { id: ID }`)
	require.ErrorContains(t, err, "type Page is already defined")

	err = s.LoadSDL("ext.graphql", `extend type Missing { id: ID }`)
	require.ErrorContains(t, err, "cannot extend undefined type Missing")

	err = s.LoadSDL("broken.graphql", `type {`)
	require.Error(t, err)
}

func TestPossibleTypesTrackedInEitherOrder(t *testing.T) {
	s := NewSchema("")
	s.AddType(NewType("contact_Form", TypeKindObject, "").AddInterface("FormInterface"))
	s.AddType(NewType("FormInterface", TypeKindInterface, ""))
	s.AddType(NewType("survey_Form", TypeKindObject, "").AddInterface("FormInterface"))

	require.ElementsMatch(t, []string{"contact_Form", "survey_Form"}, s.Types["FormInterface"].PossibleTypes)
	require.True(t, s.IsPossibleType("FormInterface", "survey_Form"))
	require.True(t, s.IsPossibleType("survey_Form", "survey_Form"))
	require.False(t, s.IsPossibleType("contact_Form", "survey_Form"))
	require.False(t, s.IsPossibleType("Unknown", "survey_Form"))
}

func TestRenderArgumentDescriptions(t *testing.T) {
	s := NewSchema("").AddBuiltins()
	q := NewType("Query", TypeKindObject, "")
	q.AddField(NewField("templateHtml", "The form’s rendered HTML.", NamedType("String")).
		AddArgument(NewInputValue("options", "Rendered with these options.", NamedType("String"))))
	s.AddType(q).SetQueryType("Query")

	out := Render(s)
	require.Contains(t, out, "  \"\"\"\n  The form’s rendered HTML.\n  \"\"\"\n")
	require.Contains(t, out, "  templateHtml(\n    \"\"\"\n    Rendered with these options.\n    \"\"\"\n    options: String\n  ): String\n")
	require.False(t, strings.HasPrefix(out, "schema"))
}

func compareSnapshot(t *testing.T, snapshotPath, actual string) {
	t.Helper()

	// If snapshot doesn't exist, create it
	if _, err := os.Stat(snapshotPath); os.IsNotExist(err) {
		err := os.WriteFile(snapshotPath, []byte(actual), 0644)
		require.NoError(t, err, "failed to write snapshot file")
		t.Logf("Created snapshot file: %s", snapshotPath)
		return
	}

	expected, err := os.ReadFile(snapshotPath)
	require.NoError(t, err, "failed to read snapshot file")

	if diff := cmp.Diff(string(expected), actual); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func mustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)
	return string(content)
}

func TestBuiltinsNotSharedBetweenSchemas(t *testing.T) {
	a := NewSchema("a").AddBuiltins()
	b := NewSchema("b").AddBuiltins()
	require.NotSame(t, a.Types["String"], b.Types["String"])
	require.NotSame(t, a.Directives["skip"], b.Directives["skip"])

	a.Types["String"].Description = "changed"
	require.NotEqual(t, "changed", b.Types["String"].Description)

	require.True(t, IsBuiltinScalar("ID"))
	require.False(t, IsBuiltinScalar("DateTime"))
	require.True(t, IsBuiltinDirective("include"))

	sdl := Render(a)
	require.NotContains(t, sdl, "scalar String")
	require.NotContains(t, sdl, "directive @skip")
}
