package language

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQueryReportsLocatedError(t *testing.T) {
	_, err := ParseQuery(`{ formieForm(handle: "contact") { handle `)
	require.Error(t, err)

	var gqlErr *Error
	require.True(t, errors.As(err, &gqlErr))
	require.NotEmpty(t, gqlErr.Locations)
}

func TestParseSchemaKeepsSourceName(t *testing.T) {
	doc, err := ParseSchema("element.graphql", `interface ElementInterface { id: ID }`)
	require.NoError(t, err)
	require.Len(t, doc.Definitions, 1)
	require.Equal(t, Interface, doc.Definitions[0].Kind)
	require.Equal(t, "element.graphql", doc.Definitions[0].Position.Src.Name)
}
