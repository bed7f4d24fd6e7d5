//go:build !linux

package sandbox

import "errors"

var errLandlockUnsupported = errors.New("landlock is only available on linux")

func landlockABIVersion() (int, error) {
	return 0, errLandlockUnsupported
}

// RuleCount is always zero where Landlock does not exist.
func (p LandlockPlan) RuleCount() int {
	return 0
}
