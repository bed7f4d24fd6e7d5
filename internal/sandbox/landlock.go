package sandbox

import (
	"github.com/codefionn/execguard/internal/fspath"
	"github.com/codefionn/execguard/internal/policy"
)

// LandlockPlan lists the paths a Landlock ruleset should grant for a policy.
// Everything not listed is denied by the kernel once the ruleset applies.
type LandlockPlan struct {
	ReadOnlyDirs  []string `json:"read_only_dirs"`
	ReadWriteDirs []string `json:"read_write_dirs"`
	// ReadWriteFiles are device files commands routinely write to.
	ReadWriteFiles []string `json:"read_write_files"`
}

var deviceFiles = []string{"/dev/null", "/dev/zero"}

// PlanLandlock describes the Landlock restriction enforcing sandboxPolicy in
// cwd: the whole filesystem readable, and only the effective writable roots
// writable. DangerFullAccess needs no sandbox and yields false.
func PlanLandlock(sandboxPolicy policy.SandboxPolicy, cwd fspath.AbsolutePath) (LandlockPlan, bool) {
	plan := LandlockPlan{
		ReadOnlyDirs:   []string{"/"},
		ReadWriteFiles: append([]string(nil), deviceFiles...),
	}

	switch sandboxPolicy.Mode {
	case policy.ModeReadOnly:
		return plan, true
	case policy.ModeWorkspaceWrite:
		plan.ReadWriteDirs = fspath.Strings(sandboxPolicy.WritableRootsWithCwd(cwd))
		return plan, true
	default:
		return LandlockPlan{}, false
	}
}
