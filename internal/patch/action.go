// Package patch models the file-level effect of a proposed edit and decides
// whether every path it touches stays inside the active writable roots.
package patch

import (
	"fmt"
	"strings"

	"github.com/codefionn/execguard/internal/fspath"
	"github.com/codefionn/execguard/internal/logger"
	"github.com/codefionn/execguard/internal/policy"
)

// ChangeKind tags a FileChange.
type ChangeKind int

const (
	ChangeAdd ChangeKind = iota
	ChangeDelete
	ChangeUpdate
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdd:
		return "add"
	case ChangeDelete:
		return "delete"
	case ChangeUpdate:
		return "update"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ChangeKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "add":
		*k = ChangeAdd
	case "delete":
		*k = ChangeDelete
	case "update":
		*k = ChangeUpdate
	default:
		return fmt.Errorf("unknown change kind %q", string(text))
	}
	return nil
}

// FileChange is one entry of an Action. Path and MovePath may be relative to
// the working directory the action is evaluated against. MovePath is only
// meaningful for ChangeUpdate; empty means the file keeps its name.
type FileChange struct {
	Path     string     `json:"path"`
	Kind     ChangeKind `json:"kind"`
	MovePath string     `json:"move_path,omitempty"`
}

// Action is the ordered list of file changes a patch would perform.
type Action struct {
	Changes []FileChange `json:"changes"`
}

// IsEmpty reports whether the action touches no files.
func (a Action) IsEmpty() bool {
	return len(a.Changes) == 0
}

// Add appends the creation of path.
func (a *Action) Add(path string) {
	a.Changes = append(a.Changes, FileChange{Path: path, Kind: ChangeAdd})
}

// Delete appends the removal of path.
func (a *Action) Delete(path string) {
	a.Changes = append(a.Changes, FileChange{Path: path, Kind: ChangeDelete})
}

// Update appends an in-place edit of path, renaming it to movePath when non-empty.
func (a *Action) Update(path, movePath string) {
	a.Changes = append(a.Changes, FileChange{Path: path, Kind: ChangeUpdate, MovePath: movePath})
}

// TouchedPaths lists every path the change writes: the path itself and, for
// a rename, its destination.
func (c FileChange) TouchedPaths() []string {
	if c.Kind == ChangeUpdate && c.MovePath != "" {
		return []string{c.Path, c.MovePath}
	}
	return []string{c.Path}
}

// IsConstrained reports whether every path touched by action lies within the
// writes sandboxPolicy permits when running in cwd. ReadOnly permits nothing,
// DangerFullAccess permits everything; WorkspaceWrite requires each path (and
// each rename destination) to resolve inside an effective writable root. The
// first failing path ends the check.
func IsConstrained(action Action, sandboxPolicy policy.SandboxPolicy, cwd fspath.AbsolutePath) bool {
	switch sandboxPolicy.Mode {
	case policy.ModeReadOnly:
		return false
	case policy.ModeDangerFullAccess:
		return true
	case policy.ModeWorkspaceWrite:
	default:
		return false
	}

	roots := sandboxPolicy.WritableRootsWithCwd(cwd)
	for _, change := range action.Changes {
		for _, p := range change.TouchedPaths() {
			if !isWritePermitted(p, roots, cwd) {
				logger.Debug("patch: %s of %q leaves the writable roots", change.Kind, p)
				return false
			}
		}
	}
	return true
}

func isWritePermitted(path string, roots []fspath.AbsolutePath, cwd fspath.AbsolutePath) bool {
	resolved, err := fspath.Resolve(&cwd, path)
	if err != nil {
		return false
	}
	return fspath.ContainedInAny(roots, resolved)
}
