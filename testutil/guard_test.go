package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportsUnder(t *testing.T) {
	match := ImportsUnder("timetracker/internal/workspace", "timetracker/internal/config")
	cases := map[string]bool{
		"timetracker/internal/workspace":       true,
		"timetracker/internal/workspace/extra": true,
		"timetracker/internal/workspaces":      false,
		"timetracker/internal/config":          true,
		"timetracker/internal/core":            false,
	}
	for path, want := range cases {
		assert.Equalf(t, want, match(path), "ImportsUnder(%q)", path)
	}
	assert.True(t, InternalImportForbidden("timetracker/internal/core"))
	assert.False(t, InternalImportForbidden("timetracker/pkg/domain"))
}

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	src := "package tmp\n\nimport (\n\t\"fmt\"\n\t\"timetracker/internal/core\"\n)\n\nvar _ = fmt.Sprint\nvar _ core.Store\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.go"), []byte(src), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x_test.go"), []byte("package tmp\n\nimport _ \"timetracker/internal/workspace\"\n"), 0o600))

	viols, err := directImportViolations(dir, InternalImportForbidden)
	require.NoError(t, err)
	assert.Equal(t, []string{"timetracker/internal/core (in x.go)"}, viols)

	var r recorder
	failIfViolations(&r, "layering", viols)
	assert.Contains(t, r.msg, "layering")
	assert.Contains(t, r.msg, "x.go")

	AssertNoDirectImports(t, dir, ImportsUnder("timetracker/internal/workspace"), "tests are skipped")
}
