// Package version carries build metadata injected with -ldflags:
//
//	go build -ldflags "-X slashroute/internal/version.Version=v1.2.0 -X slashroute/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"fmt"
	"runtime"
	"time"
)

var (
	AppName   = "Slashroute"
	Version   = "dev"
	BuildDate = ""
)

// String is a one-line description for logs and the help footer.
func String() string {
	date := "unknown"
	if t, err := time.Parse(time.RFC3339, BuildDate); err == nil {
		date = t.Format(time.DateOnly)
	}
	return fmt.Sprintf("%s %s (built %s, %s)", AppName, Version, date, runtime.Version())
}
