package csrf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func TestCurrentToken(t *testing.T) {
	p := New(true, "CRAFT_CSRF_TOKEN", "X-CSRF-Token")
	require.True(t, p.Enabled())
	require.Equal(t, "CRAFT_CSRF_TOKEN", p.ParamName())

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-csrf-token", "from-header"))
	require.Equal(t, "from-header", p.CurrentToken(ctx))

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("cookie", "a=1; CRAFT_CSRF_TOKEN=from-cookie"))
	require.Equal(t, "from-cookie", p.CurrentToken(ctx))

	ctx = NewContext(context.Background())
	first := p.CurrentToken(ctx)
	require.NotEmpty(t, first)
	require.Equal(t, first, p.CurrentToken(NewContext(ctx)))

	require.NotEmpty(t, p.CurrentToken(context.Background()))
}
