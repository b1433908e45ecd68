package internal

import "fmt"

// Set at build time with -ldflags "-X github.com/zhengshuai-xiao/HuffPar/internal.revision=...".
var (
	version      = "0.3.0"
	revision     = "unknown"
	revisionDate = ""
)

func Version() string {
	if revisionDate == "" {
		return fmt.Sprintf("%s+%s", version, revision)
	}
	return fmt.Sprintf("%s+%s.%s", version, revisionDate, revision)
}
