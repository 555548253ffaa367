package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	defer func(v, d string) { Version, BuildDate = v, d }(Version, BuildDate)

	Version, BuildDate = "v1.2.0", "2026-03-01T10:00:00Z"
	assert.Equal(t, "Slashroute v1.2.0 (built 2026-03-01, "+runtime.Version()+")", String())

	BuildDate = "yesterday"
	assert.Contains(t, String(), "built unknown")
}
