package buildconfig

import (
	"runtime"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "unknown"
)

func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}

// VersionInfo reports the build together with the scoring weights and rule
// table versions stamped onto every record this binary writes.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":            version,
		"commit":             commit,
		"go_version":         runtime.Version(),
		"weights_version":    domain.WeightsV1.Version,
		"rule_table_version": domain.RuleTableV1.Version,
	}
}
