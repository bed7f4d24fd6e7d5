// Package sandbox names the OS-enforced confinement technology available on
// the current machine. It never enforces anything itself: the runtime that
// spawns processes consumes the Kind (and, on Linux, the Landlock plan).
//
// Selection is re-evaluated on every call; there is no cached verdict and no
// process-wide toggle. Whether sandboxing is allowed at all is part of the
// Config passed in by the caller.
package sandbox

import (
	"os"
	"runtime"

	"github.com/codefionn/execguard/internal/logger"
)

// Kind identifies a sandbox technology. The zero value means "no sandbox".
type Kind string

const (
	KindNone                   Kind = ""
	KindLandlock               Kind = "linux-landlock"
	KindSeatbelt               Kind = "macos-seatbelt"
	KindWindowsRestrictedToken Kind = "windows-restricted-token"
)

func (k Kind) String() string {
	if k == KindNone {
		return "none"
	}
	return string(k)
}

// DefaultSeatbeltExecutable is the only sandbox-exec trusted on macOS; a
// binary found on PATH could be attacker-controlled.
const DefaultSeatbeltExecutable = "/usr/bin/sandbox-exec"

// Config holds the caller's sandbox switches.
type Config struct {
	// Disabled turns sandbox selection off entirely.
	Disabled bool `json:"disabled" yaml:"disabled"`
	// WindowsSandbox opts in to the restricted-token sandbox on Windows.
	WindowsSandbox bool `json:"windows_sandbox" yaml:"windows_sandbox"`
}

// Selector picks the sandbox technology for the current platform.
// A Selector is immutable and safe for concurrent use.
type Selector struct {
	cfg                Config
	goos               string
	landlockABI        func() (int, error)
	seatbeltExecutable string
}

// NewSelector returns a Selector for the running OS.
func NewSelector(cfg Config) *Selector {
	return &Selector{
		cfg:                cfg,
		goos:               runtime.GOOS,
		landlockABI:        landlockABIVersion,
		seatbeltExecutable: DefaultSeatbeltExecutable,
	}
}

// Select returns the enforceable sandbox for this platform, or false when
// none is implementable or enabled. Callers must not read false as
// permission to run unsandboxed.
func (s *Selector) Select() (Kind, bool) {
	if s.cfg.Disabled {
		logger.Debug("sandbox: selection disabled by configuration")
		return KindNone, false
	}

	switch s.goos {
	case "linux":
		abi, err := s.landlockABI()
		if err != nil || abi < 1 {
			logger.Warn("sandbox: landlock unavailable (abi=%d, err=%v)", abi, err)
			return KindNone, false
		}
		logger.Debug("sandbox: landlock ABI v%d available", abi)
		return KindLandlock, true
	case "darwin":
		if !isExecutableFile(s.seatbeltExecutable) {
			logger.Warn("sandbox: %s not found, seatbelt unavailable", s.seatbeltExecutable)
			return KindNone, false
		}
		return KindSeatbelt, true
	case "windows":
		if !s.cfg.WindowsSandbox {
			logger.Debug("sandbox: windows restricted token not enabled")
			return KindNone, false
		}
		return KindWindowsRestrictedToken, true
	default:
		logger.Debug("sandbox: no sandbox implementation for %s", s.goos)
		return KindNone, false
	}
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
