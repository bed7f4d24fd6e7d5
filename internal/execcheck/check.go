package execcheck

import (
	"fmt"

	"github.com/codefionn/execguard/internal/fspath"
)

// ReadablePathNotInReadableFoldersError reports a ReadableFile argument that
// resolved outside every readable folder.
type ReadablePathNotInReadableFoldersError struct {
	File    string
	Folders []string
}

func (e *ReadablePathNotInReadableFoldersError) Error() string {
	return fmt.Sprintf("readable file %q is not in the readable folders %v", e.File, e.Folders)
}

// WriteablePathNotInWriteableFoldersError reports a WriteableFile argument
// that resolved outside every writeable folder.
type WriteablePathNotInWriteableFoldersError struct {
	File    string
	Folders []string
}

func (e *WriteablePathNotInWriteableFoldersError) Error() string {
	return fmt.Sprintf("writeable file %q is not in the writeable folders %v", e.File, e.Folders)
}

type fileArg struct {
	typ   ArgType
	value string
}

// fileArgs yields args then opts, in declared order.
func (e ValidExec) fileArgs() []fileArg {
	out := make([]fileArg, 0, len(e.Args)+len(e.Opts))
	for _, a := range e.Args {
		out = append(out, fileArg{typ: a.Type, value: a.Value})
	}
	for _, o := range e.Opts {
		out = append(out, fileArg{typ: o.Type, value: o.Value})
	}
	return out
}

// Check verifies every ReadableFile argument of exec lies in readable and
// every WriteableFile argument in writeable, resolving relative values
// against cwd. On success it returns the executable to run (see
// ResolveExecutable). Path errors from fspath are returned unchanged; the
// first failing argument ends the check.
func Check(exec ValidExec, cwd *fspath.AbsolutePath, readable, writeable []fspath.AbsolutePath) (string, error) {
	for _, arg := range exec.fileArgs() {
		switch arg.typ.Kind {
		case ArgReadableFile:
			file, err := fspath.Resolve(cwd, arg.value)
			if err != nil {
				return "", err
			}
			if !fspath.ContainedInAny(readable, file) {
				return "", &ReadablePathNotInReadableFoldersError{
					File:    file.String(),
					Folders: fspath.Strings(readable),
				}
			}
		case ArgWriteableFile:
			file, err := fspath.Resolve(cwd, arg.value)
			if err != nil {
				return "", err
			}
			if !fspath.ContainedInAny(writeable, file) {
				return "", &WriteablePathNotInWriteableFoldersError{
					File:    file.String(),
					Folders: fspath.Strings(writeable),
				}
			}
		}
	}

	return ResolveExecutable(exec), nil
}

// ResolveExecutable returns the first SystemPath entry that is an executable
// regular file, or Program verbatim when none qualifies.
func ResolveExecutable(exec ValidExec) string {
	for _, candidate := range exec.SystemPath {
		if isExecutableFile(candidate) {
			return candidate
		}
	}
	return exec.Program
}
