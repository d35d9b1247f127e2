// Package csrf exposes the request's CSRF token to templates and GraphQL.
//
// The HTTP layer forwards request headers into incoming gRPC metadata; the
// provider reads the token the client sent from the configured header or,
// failing that, from the CSRF cookie. Requests without either get a token
// minted once per request by NewContext.
package csrf

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/taylordaughtry/formie/internal/service"
)

type tokenKey struct{}

// NewContext stores a freshly minted token in ctx unless one is present.
func NewContext(ctx context.Context) context.Context {
	if _, ok := ctx.Value(tokenKey{}).(string); ok {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, uuid.NewString())
}

type Provider struct {
	enabled bool
	param   string
	header  string
}

var _ service.CSRF = (*Provider)(nil)

// New returns a provider. param names both the form input and the cookie;
// header is the request header carrying the token.
func New(enabled bool, param, header string) *Provider {
	return &Provider{enabled: enabled, param: param, header: strings.ToLower(header)}
}

func (p *Provider) Enabled() bool     { return p.enabled }
func (p *Provider) ParamName() string { return p.param }

func (p *Provider) CurrentToken(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(p.header); len(v) > 0 && v[0] != "" {
			return v[0]
		}
		for _, line := range md.Get("cookie") {
			cookies, err := http.ParseCookie(line)
			if err != nil {
				continue
			}
			for _, c := range cookies {
				if c.Name == p.param && c.Value != "" {
					return c.Value
				}
			}
		}
	}
	if t, ok := ctx.Value(tokenKey{}).(string); ok {
		return t
	}
	return uuid.NewString()
}
