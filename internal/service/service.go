// Package service declares the collaborators the schema and template facade
// delegate to, and the Plugin container that carries them.
package service

import (
	"context"

	"github.com/taylordaughtry/formie/internal/form"
)

// Rendering turns forms into markup. Options are whatever the caller
// decoded; implementations use map options and ignore other shapes.
type Rendering interface {
	RenderForm(ctx context.Context, f *form.Form, options any) (string, error)
	RenderPage(ctx context.Context, f *form.Form, page *form.Page, options any) (string, error)
	RenderField(ctx context.Context, f *form.Form, field *form.Field, options any) (string, error)
	RenderFormCSS(ctx context.Context, f *form.Form, options any) (string, error)
	RenderFormJS(ctx context.Context, f *form.Form, options any) (string, error)
	RegisterAssets(ctx context.Context, f *form.Form, options any) error
	PopulateFormValues(f *form.Form, values any, force bool)
}

type Fields interface {
	FieldOptions(field *form.Field, options any) map[string]any
}

type Integrations interface {
	EnabledCaptchasForForm(ctx context.Context, f *form.Form) []CaptchaProvider
}

// CaptchaProvider is one spam-prevention integration.
type CaptchaProvider interface {
	Handle() string
	// GqlHandle names the provider in GraphQL responses.
	GqlHandle() string
	// RefreshJSVariables returns the client-side variables that must be
	// refreshed when a cached form is shown. A nil or empty map means the
	// provider has none.
	RefreshJSVariables(ctx context.Context, f *form.Form) (map[string]string, error)
}

type Relations interface {
	SubmissionRelations(ctx context.Context, s *form.Submission) (map[string]any, error)
}

// CSRF exposes the request's CSRF state.
type CSRF interface {
	Enabled() bool
	ParamName() string
	CurrentToken(ctx context.Context) string
}

type Forms interface {
	Forms(ctx context.Context, criteria form.Criteria) ([]*form.Form, error)
	// Form returns the form with handle, or an error wrapping ErrNotFound.
	Form(ctx context.Context, handle string) (*form.Form, error)
	FormByID(ctx context.Context, id int) (*form.Form, error)
}

type Submissions interface {
	Submissions(ctx context.Context, criteria form.Criteria) ([]*form.Submission, error)
	SaveSubmission(ctx context.Context, s *form.Submission) error
}

type Statuses interface {
	AllStatuses() []*form.Status
}

type Templates interface {
	AllTemplates() []*form.Template
}

// ValueEvaluator renders object templates such as notification subjects
// against a submission.
type ValueEvaluator interface {
	Evaluate(ctx context.Context, template string, s *form.Submission, f *form.Form, n *form.Notification) (string, error)
}
