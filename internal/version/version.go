// Package version exposes build information stamped in at link time.
//
// Release builds override the defaults with ldflags, e.g.:
//
//	go build -ldflags "\
//	  -X github.com/iamrosada0/paypay-integration-simplified/internal/version.version=1.2.0 \
//	  -X github.com/iamrosada0/paypay-integration-simplified/internal/version.buildDate=2026-08-24T10:00:00Z \
//	  -X github.com/iamrosada0/paypay-integration-simplified/internal/version.gitCommit=abc1234"
package version

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Get returns the build information for the running binary.
func Get() Info {
	return Info{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	}
}
