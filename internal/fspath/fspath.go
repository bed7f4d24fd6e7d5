// Package fspath provides lexically normalized absolute paths and the
// component-wise containment test used by every policy check.
//
// Normalization never touches the filesystem: it works for paths that do not
// exist yet and it never follows symlinks. A symlink inside a permitted root
// can therefore point outside of it; callers compensate by preferring an OS
// sandbox (or a human) over bare auto-approval.
package fspath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// AbsolutePath is an absolute, lexically normalized path: it contains no "."
// components and no unresolved "..". The zero value is not a valid path; use
// IsZero to detect it.
type AbsolutePath struct {
	path string
}

// CannotResolveRelativePathError is returned when a relative path has to be
// resolved but no working directory was supplied.
type CannotResolveRelativePathError struct {
	File string
}

func (e *CannotResolveRelativePathError) Error() string {
	return fmt.Sprintf("cannot resolve relative path %q without a working directory", e.File)
}

// CannotCanonicalizePathError is returned when a path cannot name a file at all.
type CannotCanonicalizePathError struct {
	File string
	Err  error
}

func (e *CannotCanonicalizePathError) Error() string {
	return fmt.Sprintf("cannot canonicalize path %q: %v", e.File, e.Err)
}

func (e *CannotCanonicalizePathError) Unwrap() error {
	return e.Err
}

var errNulByte = errors.New("path contains a NUL byte")

// New returns the normalized form of an absolute path.
func New(path string) (AbsolutePath, error) {
	return Resolve(nil, path)
}

// MustNew is like New but panics on error. Intended for constants and tests.
func MustNew(path string) AbsolutePath {
	p, err := New(path)
	if err != nil {
		panic(err)
	}
	return p
}

// Resolve normalizes path. Absolute input is normalized in place; relative
// input is joined onto cwd first and fails without one. ".." at the root is
// dropped, so the result never climbs above the filesystem root.
func Resolve(cwd *AbsolutePath, path string) (AbsolutePath, error) {
	if strings.IndexByte(path, 0) >= 0 {
		return AbsolutePath{}, &CannotCanonicalizePathError{File: path, Err: errNulByte}
	}

	if !filepath.IsAbs(path) {
		if cwd == nil || cwd.IsZero() {
			return AbsolutePath{}, &CannotResolveRelativePathError{File: path}
		}
		path = filepath.Join(cwd.path, path)
	}

	// filepath.Clean performs exactly the lexical walk we need: "." is
	// dropped and ".." pops the previous component, saturating at the root.
	return AbsolutePath{path: filepath.Clean(path)}, nil
}

// String returns the path in the host's native form.
func (p AbsolutePath) String() string {
	return p.path
}

// IsZero reports whether p is the zero value.
func (p AbsolutePath) IsZero() bool {
	return p.path == ""
}

// Equal reports whether p and other name the same normalized path.
func (p AbsolutePath) Equal(other AbsolutePath) bool {
	return p.path == other.path
}

// Components splits p into its volume/root followed by each path element.
// "/a/b" yields ["/", "a", "b"].
func (p AbsolutePath) Components() []string {
	if p.path == "" {
		return nil
	}
	volume := filepath.VolumeName(p.path)
	root := volume + string(filepath.Separator)
	rest := strings.TrimPrefix(p.path[len(volume):], string(filepath.Separator))

	components := []string{root}
	if rest == "" {
		return components
	}
	return append(components, strings.Split(rest, string(filepath.Separator))...)
}

// Join appends elem (which may contain separators, "." or "..") to p.
func (p AbsolutePath) Join(elem ...string) AbsolutePath {
	return AbsolutePath{path: filepath.Clean(filepath.Join(append([]string{p.path}, elem...)...))}
}

// Parent returns the directory containing p, or p itself at the root.
func (p AbsolutePath) Parent() AbsolutePath {
	return AbsolutePath{path: filepath.Dir(p.path)}
}

// Contains reports whether candidate equals p or is nested below it. The
// comparison is component-wise: "/work" does not contain "/workspace/x".
func (p AbsolutePath) Contains(candidate AbsolutePath) bool {
	return Contains(p, candidate)
}

// Contains reports whether candidate equals root or root's components are a
// strict prefix of candidate's.
func Contains(root, candidate AbsolutePath) bool {
	if root.IsZero() || candidate.IsZero() {
		return false
	}
	rootParts := root.Components()
	candidateParts := candidate.Components()
	if len(rootParts) > len(candidateParts) {
		return false
	}
	for i, part := range rootParts {
		if candidateParts[i] != part {
			return false
		}
	}
	return true
}

// ContainedInAny reports whether candidate is contained in at least one root.
func ContainedInAny(roots []AbsolutePath, candidate AbsolutePath) bool {
	for _, root := range roots {
		if Contains(root, candidate) {
			return true
		}
	}
	return false
}

// Strings renders paths for messages and JSON output.
func Strings(paths []AbsolutePath) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.path
	}
	return out
}

// MarshalText implements encoding.TextMarshaler.
func (p AbsolutePath) MarshalText() ([]byte, error) {
	return []byte(p.path), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Only absolute paths are
// accepted; relative values must be resolved by the caller via Resolve.
func (p *AbsolutePath) UnmarshalText(text []byte) error {
	parsed, err := New(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
