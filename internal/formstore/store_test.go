package formstore

import (
	"context"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/taylordaughtry/formie/internal/form"
	"github.com/taylordaughtry/formie/internal/position"
	"github.com/taylordaughtry/formie/internal/service"
	"github.com/taylordaughtry/formie/internal/variables"
)

func loadTestForms(t *testing.T) []*form.Form {
	t.Helper()
	forms, err := LoadFS(context.Background(), os.DirFS("testdata/forms"))
	require.NoError(t, err)
	return forms
}

func fieldHandles(fields []*form.Field) []string {
	var out []string
	for _, f := range fields {
		out = append(out, f.Handle)
	}
	return out
}

func TestLoadYAML(t *testing.T) {
	forms := loadTestForms(t)
	require.Len(t, forms, 2)

	contact := forms[0]
	require.Equal(t, "contact", contact.Handle)
	require.Equal(t, 1, contact.ID)
	require.NotEmpty(t, contact.UID)
	require.True(t, contact.Enabled)
	require.Equal(t, position.AboveInput, contact.Settings.DefaultLabelPosition)
	require.Equal(t, []string{"honeypot", "javascript"}, contact.Settings.Captchas)
	require.Equal(t, []string{"yourName", "emailAddress", "topic", "source", "message"}, fieldHandles(contact.Fields()))
	require.Equal(t, "page1", contact.Pages[0].ID)
	require.Equal(t, "page1-row2", contact.Rows()[1].ID)

	topic := contact.FieldByHandle("topic")
	require.Equal(t, []form.Option{{Label: "Sales", Value: "sales"}, {Label: "Support", Value: "support", IsDefault: true}}, topic.Options)
	require.True(t, contact.FieldByHandle("source").IsHidden())
	require.Equal(t, "website", contact.Value("source"))

	require.Len(t, contact.Notifications, 1)
	require.True(t, contact.Notifications[0].Enabled)
}

func TestLoadHCL(t *testing.T) {
	survey := loadTestForms(t)[1]
	require.Equal(t, "survey", survey.Handle)
	// Numbered after the highest explicit id.
	require.Equal(t, 2, survey.ID)
	require.True(t, survey.Settings.DisplayPageTabs)

	want := []string{"intro", "details"}
	var got []string
	for _, p := range survey.Pages {
		got = append(got, p.ID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pages (-want +got):\n%s", diff)
	}

	company := survey.FieldByHandle("company")
	require.True(t, company.HasNestedRows())
	require.Equal(t, []string{"companyName", "vat"}, fieldHandles(company.NestedFields()))
	vat := company.NestedFields()[1]
	require.Equal(t, company, vat.Parent())
	require.Equal(t, "GB123", vat.Placeholder)

	rating := survey.FieldByHandle("rating")
	require.Equal(t, "good", rating.Options[0].Value)
	require.True(t, rating.Options[0].IsDefault)

	require.False(t, survey.Notifications[0].Enabled)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	_, err := LoadFS(ctx, fstest.MapFS{
		"a.yaml": {Data: []byte("handle: dup\ntitle: A\nsettings: {defaultLabelPosition: above-input, defaultInstructionsPosition: above-input}\n")},
		"b.yaml": {Data: []byte("handle: dup\ntitle: B\nsettings: {defaultLabelPosition: above-input, defaultInstructionsPosition: above-input}\n")},
	})
	require.ErrorContains(t, err, `form handle "dup" already defined in a.yaml`)

	_, err = LoadFS(ctx, fstest.MapFS{
		"a.yaml": {Data: []byte("handle: a\nsettings: {defaultLabelPosition: sideways}\n")},
	})
	require.ErrorIs(t, err, position.ErrUnknownPosition)

	_, err = LoadFS(ctx, fstest.MapFS{
		"a.yaml": {Data: []byte("handle: a\npages:\n- rows:\n  - fields:\n    - {handle: x, type: singleLineText}\n")},
	})
	require.ErrorIs(t, err, variables.ErrNoDefaultPosition)

	_, err = LoadFS(ctx, fstest.MapFS{
		"a.hcl": {Data: []byte(`form "a" { title = }`)},
	})
	require.ErrorContains(t, err, "formstore: parse a.hcl")

	_, err = LoadFS(ctx, fstest.MapFS{
		"a.yaml": {Data: []byte("handle: a\nsettings: {defaultLabelPosition: above-input, defaultInstructionsPosition: above-input}\npages:\n- rows:\n  - fields:\n    - {handle: x, type: slider}\n")},
	})
	require.ErrorIs(t, err, form.ErrUnknownKind)

	forms, err := LoadFS(ctx, fstest.MapFS{"README.md": {Data: []byte("#")}})
	require.NoError(t, err)
	require.Empty(t, forms)
}

func TestStoreReturnsClones(t *testing.T) {
	s, err := New(loadTestForms(t), nil)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := s.Form(ctx, "contact")
	require.NoError(t, err)
	a.PopulateValues(map[string]any{"emailAddress": "a@example.com"}, false)

	b, err := s.Form(ctx, "contact")
	require.NoError(t, err)
	require.Nil(t, b.Value("emailAddress"))
	require.NotSame(t, a, b)

	_, err = s.Form(ctx, "missing")
	require.ErrorIs(t, err, service.ErrNotFound)

	byID, err := s.FormByID(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "survey", byID.Handle)
	_, err = s.FormByID(ctx, 99)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestStoreForms(t *testing.T) {
	s, err := New(loadTestForms(t), nil)
	require.NoError(t, err)
	ctx := context.Background()

	all, err := s.Forms(ctx, form.Criteria{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	some, err := s.Forms(ctx, form.Criteria{Handles: []string{"survey"}})
	require.NoError(t, err)
	require.Len(t, some, 1)
	require.Equal(t, "survey", some[0].Handle)

	limited, err := s.Forms(ctx, form.Criteria{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	_, err = New([]*form.Form{all[0], all[0]}, nil)
	require.Error(t, err)
}

func TestSubmissions(t *testing.T) {
	statuses := []*form.Status{{Handle: "new", IsDefault: true}, {Handle: "spam"}}
	s, err := New(loadTestForms(t), statuses)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	sub := &form.Submission{FormHandle: "contact", Data: map[string]any{"message": "hi"}}
	require.NoError(t, s.SaveSubmission(ctx, sub))
	require.Equal(t, 1, sub.ID)
	require.Equal(t, "new", sub.Status)
	require.NotEmpty(t, sub.UID)
	require.Equal(t, 2024, sub.DateCreated.Year())

	require.NoError(t, s.SaveSubmission(ctx, &form.Submission{FormHandle: "survey", Status: "spam"}))
	require.ErrorIs(t, s.SaveSubmission(ctx, &form.Submission{FormHandle: "nope"}), service.ErrNotFound)

	got, err := s.Submissions(ctx, form.Criteria{FormHandle: "contact"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hi", got[0].Data["message"])

	got, err = s.Submissions(ctx, form.Criteria{Status: "spam"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 2, got[0].ID)

	rel, err := s.SubmissionRelations(ctx, sub)
	require.NoError(t, err)
	require.Equal(t, "contact", rel["form"].(*form.Form).Handle)
	require.Equal(t, statuses[0], rel["status"])
}

func TestStatusesAndTemplates(t *testing.T) {
	st := Statuses{{Handle: "new"}}
	require.Equal(t, "new", st.AllStatuses()[0].Handle)
	tp := Templates{{Handle: "default"}}
	require.Equal(t, "default", tp.AllTemplates()[0].Handle)
}
