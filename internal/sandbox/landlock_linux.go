//go:build linux

package sandbox

import (
	landlock "github.com/landlock-lsm/go-landlock/landlock"
	llsyscall "github.com/landlock-lsm/go-landlock/landlock/syscall"
	"golang.org/x/sys/unix"

	"github.com/codefionn/execguard/internal/logger"
)

// landlockABIVersion asks the kernel which Landlock ABI it implements.
// Kernels without Landlock (< 5.13, or LSM not enabled) return an error.
func landlockABIVersion() (int, error) {
	abi, err := llsyscall.LandlockGetABIVersion()
	if err != nil {
		logger.Debug("sandbox: landlock ABI probe failed on kernel %s: %v", kernelRelease(), err)
		return 0, err
	}
	return abi, nil
}

func kernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "unknown"
	}
	return unix.ByteSliceToString(uts.Release[:])
}

// Rules converts the plan into go-landlock rules, ready for
// landlock.V6.BestEffort().RestrictPaths in the process that will exec the
// command. Landlock rejects directory rights on regular files, hence the
// separate file rules.
func (p LandlockPlan) Rules() []landlock.Rule {
	rules := make([]landlock.Rule, 0, 3)
	if len(p.ReadOnlyDirs) > 0 {
		rules = append(rules, landlock.RODirs(p.ReadOnlyDirs...))
	}
	if len(p.ReadWriteDirs) > 0 {
		rules = append(rules, landlock.RWDirs(p.ReadWriteDirs...))
	}
	if len(p.ReadWriteFiles) > 0 {
		rules = append(rules, landlock.RWFiles(p.ReadWriteFiles...))
	}
	return rules
}

// RuleCount returns how many go-landlock rules the plan expands to.
func (p LandlockPlan) RuleCount() int {
	return len(p.Rules())
}
