// Package policy defines the approval and sandbox policies a caller supplies
// with every safety request, and derives the set of writable roots a
// workspace-write sandbox grants.
package policy

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/codefionn/execguard/internal/fspath"
)

var (
	// ErrUnknownApprovalPolicy is returned when parsing an unrecognised approval policy.
	ErrUnknownApprovalPolicy = errors.New("unknown approval policy")
	// ErrUnknownSandboxMode is returned when parsing an unrecognised sandbox mode.
	ErrUnknownSandboxMode = errors.New("unknown sandbox mode")
)

// ApprovalPolicy governs how much containment success is required before an
// action is auto-approved.
type ApprovalPolicy int

const (
	// UnlessTrusted asks the user for everything that reaches the engine.
	UnlessTrusted ApprovalPolicy = iota
	// OnFailure auto-approves inside a sandbox and asks only after a failure.
	OnFailure
	// OnRequest auto-approves contained actions and asks for the rest.
	OnRequest
	// Never never asks: uncontained actions are rejected outright.
	Never
)

// ParseApprovalPolicy accepts "untrusted", "on-failure", "on-request" and
// "never"; underscores may replace dashes.
func ParseApprovalPolicy(s string) (ApprovalPolicy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "untrusted", "unless-trusted":
		return UnlessTrusted, nil
	case "on-failure":
		return OnFailure, nil
	case "on-request":
		return OnRequest, nil
	case "never":
		return Never, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownApprovalPolicy, s)
	}
}

func (a ApprovalPolicy) String() string {
	switch a {
	case UnlessTrusted:
		return "untrusted"
	case OnFailure:
		return "on-failure"
	case OnRequest:
		return "on-request"
	case Never:
		return "never"
	default:
		return fmt.Sprintf("ApprovalPolicy(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a ApprovalPolicy) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ApprovalPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseApprovalPolicy(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// SandboxMode tags the active SandboxPolicy variant.
type SandboxMode int

const (
	// ModeReadOnly permits no writes at all.
	ModeReadOnly SandboxMode = iota
	// ModeWorkspaceWrite permits writes below the working directory and the
	// configured writable roots.
	ModeWorkspaceWrite
	// ModeDangerFullAccess permits everything and bypasses the sandbox.
	ModeDangerFullAccess
)

// ParseSandboxMode accepts "read-only", "workspace-write" and
// "danger-full-access"; underscores may replace dashes.
func ParseSandboxMode(s string) (SandboxMode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "read-only":
		return ModeReadOnly, nil
	case "workspace-write":
		return ModeWorkspaceWrite, nil
	case "danger-full-access", "full-access":
		return ModeDangerFullAccess, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSandboxMode, s)
	}
}

func (m SandboxMode) String() string {
	switch m {
	case ModeReadOnly:
		return "read-only"
	case ModeWorkspaceWrite:
		return "workspace-write"
	case ModeDangerFullAccess:
		return "danger-full-access"
	default:
		return fmt.Sprintf("SandboxMode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m SandboxMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SandboxMode) UnmarshalText(text []byte) error {
	parsed, err := ParseSandboxMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SandboxPolicy describes which writes are permitted at all. Exactly one
// variant is active, selected by Mode; the remaining fields are meaningful
// only for ModeWorkspaceWrite. Values are immutable once built; share freely.
type SandboxPolicy struct {
	Mode SandboxMode `json:"mode"`

	WritableRoots       []fspath.AbsolutePath `json:"writable_roots,omitempty"`
	NetworkAccess       bool                  `json:"network_access,omitempty"`
	ExcludeTmpdirEnvVar bool                  `json:"exclude_tmpdir_env_var,omitempty"`
	ExcludeSlashTmp     bool                  `json:"exclude_slash_tmp,omitempty"`
}

// ReadOnly returns the read-only policy.
func ReadOnly() SandboxPolicy {
	return SandboxPolicy{Mode: ModeReadOnly}
}

// DangerFullAccess returns the unrestricted policy.
func DangerFullAccess() SandboxPolicy {
	return SandboxPolicy{Mode: ModeDangerFullAccess}
}

// WorkspaceWriteOptions carries the workspace-write knobs.
type WorkspaceWriteOptions struct {
	WritableRoots       []fspath.AbsolutePath
	NetworkAccess       bool
	ExcludeTmpdirEnvVar bool
	ExcludeSlashTmp     bool
}

// WorkspaceWrite returns a workspace-write policy. The roots slice is copied.
func WorkspaceWrite(opts WorkspaceWriteOptions) SandboxPolicy {
	return SandboxPolicy{
		Mode:                ModeWorkspaceWrite,
		WritableRoots:       append([]fspath.AbsolutePath(nil), opts.WritableRoots...),
		NetworkAccess:       opts.NetworkAccess,
		ExcludeTmpdirEnvVar: opts.ExcludeTmpdirEnvVar,
		ExcludeSlashTmp:     opts.ExcludeSlashTmp,
	}
}

// HasFullNetworkAccess reports whether commands may use the network.
func (p SandboxPolicy) HasFullNetworkAccess() bool {
	switch p.Mode {
	case ModeDangerFullAccess:
		return true
	case ModeWorkspaceWrite:
		return p.NetworkAccess
	default:
		return false
	}
}

// HasFullDiskWriteAccess reports whether every path is writable.
func (p SandboxPolicy) HasFullDiskWriteAccess() bool {
	return p.Mode == ModeDangerFullAccess
}

// WritableRootsWithCwd returns the effective writable roots for a
// workspace-write policy: cwd followed by the configured roots, minus the
// platform temp directory when ExcludeTmpdirEnvVar is set and minus /tmp on
// Unix when ExcludeSlashTmp is set. Temp directories are never added
// implicitly, so a cwd under /tmp does not make its parent writable.
// Duplicates keep their first position. Other modes have no writable roots
// (full access is not expressed as a root list).
func (p SandboxPolicy) WritableRootsWithCwd(cwd fspath.AbsolutePath) []fspath.AbsolutePath {
	if p.Mode != ModeWorkspaceWrite {
		return nil
	}

	excluded := make(map[string]bool, 2)
	if p.ExcludeTmpdirEnvVar {
		if tmp, ok := platformTempDir(); ok {
			excluded[tmp.String()] = true
		}
	}
	if p.ExcludeSlashTmp && runtime.GOOS != "windows" {
		excluded["/tmp"] = true
	}

	roots := make([]fspath.AbsolutePath, 0, len(p.WritableRoots)+1)
	seen := make(map[string]bool, cap(roots))
	add := func(root fspath.AbsolutePath) {
		if root.IsZero() || seen[root.String()] || excluded[root.String()] {
			return
		}
		seen[root.String()] = true
		roots = append(roots, root)
	}

	add(cwd)
	for _, root := range p.WritableRoots {
		add(root)
	}
	return roots
}

// platformTempDir returns the temp directory named by the environment.
// Unlike os.TempDir there is no hard-coded fallback: unset excludes nothing.
func platformTempDir() (fspath.AbsolutePath, bool) {
	vars := []string{"TMPDIR"}
	if runtime.GOOS == "windows" {
		vars = []string{"TMP", "TEMP"}
	}
	for _, name := range vars {
		value := strings.TrimSpace(os.Getenv(name))
		if value == "" {
			continue
		}
		tmp, err := fspath.New(value)
		if err != nil {
			continue
		}
		return tmp, true
	}
	return fspath.AbsolutePath{}, false
}
