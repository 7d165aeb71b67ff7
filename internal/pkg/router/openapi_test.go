package router

import (
	"regexp"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openAPIFile = "../../../docs/openapi.yml"

var pathParam = regexp.MustCompile(`\{([^}]+)\}`)

func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openAPIFile)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(loader.Context))
}

func TestOpenAPIOperationsAreRouted(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openAPIFile)
	require.NoError(t, err)

	s := newTestServer(t)
	routed := map[string]bool{}
	for _, r := range s.app.GetRoutes(true) {
		routed[r.Method+" "+r.Path] = true
	}

	for path, item := range doc.Paths.Map() {
		fiberPath := pathParam.ReplaceAllString(path, ":$1")
		for method := range item.Operations() {
			assert.True(t, routed[method+" "+fiberPath], "%s %s is documented but not routed", method, fiberPath)
		}
	}
}
