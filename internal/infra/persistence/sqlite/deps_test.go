package sqlite

import (
	"strings"
	"testing"

	"stepgen/testutil"
)

// History stores depend on the domain model and the shared SQL helpers only.
func TestImportsAreDomainOrExternal(t *testing.T) {
	allowed := map[string]bool{
		"stepgen/pkg/domain":                            true,
		"stepgen/internal/infra/persistence/historysql": true,
	}
	testutil.AssertNoDirectImports(t, ".", func(path string) bool {
		return strings.HasPrefix(path, "stepgen/") && !allowed[path]
	}, "history stores must not reach into other stepgen packages")
}
