//go:build !windows

package execcheck

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/codefionn/execguard/internal/fspath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), mode))
	// WriteFile is subject to umask; force the bits under test.
	require.NoError(t, os.Chmod(path, mode))
}

func TestCheckReadableOutsideFolders(t *testing.T) {
	exec := ValidExec{
		Program: "cat",
		Args:    []MatchedArg{{Index: 0, Type: ReadableFile, Value: "/tmp/x"}},
	}

	_, err := Check(exec, nil, nil, nil)

	var readErr *ReadablePathNotInReadableFoldersError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, "/tmp/x", readErr.File)
	assert.Equal(t, []string{}, readErr.Folders)
}

func TestCheckWriteableOutsideFolders(t *testing.T) {
	cwd := fspath.MustNew("/work/project")
	exec := ValidExec{
		Program: "cp",
		Args: []MatchedArg{
			{Index: 0, Type: ReadableFile, Value: "src.txt"},
			{Index: 1, Type: WriteableFile, Value: "../elsewhere/dst.txt"},
		},
	}
	folders := []fspath.AbsolutePath{cwd}

	_, err := Check(exec, &cwd, folders, folders)

	var writeErr *WriteablePathNotInWriteableFoldersError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "/work/elsewhere/dst.txt", writeErr.File)
	assert.Equal(t, []string{"/work/project"}, writeErr.Folders)
}

func TestCheckRelativeWithoutCwd(t *testing.T) {
	exec := ValidExec{
		Program: "head",
		Opts:    []MatchedOpt{{Name: "-n", Type: PositiveInteger, Value: "10"}},
		Args:    []MatchedArg{{Index: 0, Type: ReadableFile, Value: "notes.txt"}},
	}

	_, err := Check(exec, nil, []fspath.AbsolutePath{fspath.MustNew("/")}, nil)

	var relErr *fspath.CannotResolveRelativePathError
	require.True(t, errors.As(err, &relErr))
	assert.Equal(t, "notes.txt", relErr.File)
}

func TestCheckCannotCanonicalize(t *testing.T) {
	cwd := fspath.MustNew("/work")
	exec := ValidExec{
		Program: "touch",
		Args:    []MatchedArg{{Index: 0, Type: WriteableFile, Value: "bad\x00name"}},
	}

	_, err := Check(exec, &cwd, nil, []fspath.AbsolutePath{cwd})

	var canonErr *fspath.CannotCanonicalizePathError
	assert.True(t, errors.As(err, &canonErr))
}

func TestCheckArgsBeforeOpts(t *testing.T) {
	cwd := fspath.MustNew("/work")
	exec := ValidExec{
		Program: "sed",
		Args:    []MatchedArg{{Index: 0, Type: ReadableFile, Value: "/outside/read"}},
		Opts:    []MatchedOpt{{Name: "-o", Type: WriteableFile, Value: "/outside/write"}},
	}

	_, err := Check(exec, &cwd, nil, nil)

	var readErr *ReadablePathNotInReadableFoldersError
	assert.True(t, errors.As(err, &readErr), "args must be checked before opts, got %v", err)
}

func TestCheckIgnoresNonFileArgs(t *testing.T) {
	exec := ValidExec{
		Program: "sed",
		Args: []MatchedArg{
			{Index: 0, Type: SedCommand, Value: "s/a/b/"},
			{Index: 1, Type: OpaqueNonFile, Value: "/etc/shadow"},
			{Index: 2, Type: Unknown, Value: "/root/.ssh/id_rsa"},
			{Index: 3, Type: Literal("--"), Value: "--"},
		},
		Opts: []MatchedOpt{{Name: "-n", Type: PositiveInteger, Value: "3"}},
	}

	got, err := Check(exec, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "sed", got)
}

func TestCheckInsideFolderResolvesExecutable(t *testing.T) {
	dir := t.TempDir()
	folder := fspath.MustNew(dir)

	notExec := filepath.Join(dir, "not-exec")
	writeFile(t, notExec, 0o644)
	exe := filepath.Join(dir, "cp")
	writeFile(t, exe, 0o755)
	exeDir := filepath.Join(dir, "bin")
	require.NoError(t, os.Mkdir(exeDir, 0o755))

	exec := ValidExec{
		Program: "cp",
		Args: []MatchedArg{
			{Index: 0, Type: ReadableFile, Value: filepath.Join(dir, "src.txt")},
			{Index: 1, Type: WriteableFile, Value: filepath.Join(dir, "dst.txt")},
		},
		SystemPath: []string{filepath.Join(dir, "missing"), exeDir, notExec, exe},
	}

	got, err := Check(exec, nil, []fspath.AbsolutePath{folder}, []fspath.AbsolutePath{folder})
	require.NoError(t, err)
	assert.Equal(t, exe, got)
}

func TestResolveExecutableFallsBackToProgram(t *testing.T) {
	dir := t.TempDir()
	notExec := filepath.Join(dir, "ls")
	writeFile(t, notExec, 0o600)

	exec := ValidExec{Program: "ls", SystemPath: []string{notExec, filepath.Join(dir, "nope")}}
	assert.Equal(t, "ls", ResolveExecutable(exec))
	assert.Equal(t, "./relative-prog", ResolveExecutable(ValidExec{Program: "./relative-prog"}))
}

func TestArgTypeText(t *testing.T) {
	tests := []struct {
		text string
		want ArgType
	}{
		{"ReadableFile", ReadableFile},
		{"writeablefile", WriteableFile},
		{"OpaqueNonFile", OpaqueNonFile},
		{"Unknown", Unknown},
		{"PositiveInteger", PositiveInteger},
		{"SedCommand", SedCommand},
		{"Literal:-n", Literal("-n")},
		{"literal:", Literal("")},
	}
	for _, tt := range tests {
		var got ArgType
		require.NoError(t, got.UnmarshalText([]byte(tt.text)), tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}

	var bad ArgType
	assert.Error(t, bad.UnmarshalText([]byte("Directory")))
	assert.Error(t, bad.UnmarshalText([]byte("Literal")))
	assert.Error(t, bad.UnmarshalText([]byte("ReadableFile:x")))

	assert.Equal(t, "Literal:-n", Literal("-n").String())
	assert.True(t, ReadableFile.IsFile())
	assert.True(t, WriteableFile.IsFile())
	assert.False(t, Literal("x").IsFile())
}

func TestValidExecJSON(t *testing.T) {
	raw := `{
		"program": "cat",
		"args": [{"index": 0, "type": "ReadableFile", "value": "a.txt"}],
		"opts": [{"name": "-n", "type": "Literal:-n", "value": "-n"}],
		"system_path": ["/bin/cat", "/usr/bin/cat"]
	}`

	var exec ValidExec
	require.NoError(t, json.Unmarshal([]byte(raw), &exec))

	assert.Equal(t, "cat", exec.Program)
	require.Len(t, exec.Args, 1)
	assert.Equal(t, ReadableFile, exec.Args[0].Type)
	require.Len(t, exec.Opts, 1)
	assert.Equal(t, Literal("-n"), exec.Opts[0].Type)
	assert.Equal(t, []string{"/bin/cat", "/usr/bin/cat"}, exec.SystemPath)
}
