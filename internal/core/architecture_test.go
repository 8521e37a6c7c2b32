package core

import (
	"testing"

	"timetracker/testutil"
)

func TestEngineDoesNotDependOnOuterLayers(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ImportsUnder(
		"timetracker/internal/workspace",
		"timetracker/internal/config",
		"timetracker/internal/address",
		"timetracker/internal/blob",
	), "the engine sees storage only through persistence.Backend")
}
