//go:build !windows

package policy

import (
	"encoding/json"
	"testing"

	"github.com/codefionn/execguard/internal/fspath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApprovalPolicy(t *testing.T) {
	tests := map[string]ApprovalPolicy{
		"untrusted":      UnlessTrusted,
		"unless_trusted": UnlessTrusted,
		"on-failure":     OnFailure,
		"ON_FAILURE":     OnFailure,
		"on-request":     OnRequest,
		" never ":        Never,
	}
	for in, want := range tests {
		got, err := ParseApprovalPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseApprovalPolicy("sometimes")
	assert.ErrorIs(t, err, ErrUnknownApprovalPolicy)
}

func TestParseSandboxMode(t *testing.T) {
	tests := map[string]SandboxMode{
		"read-only":          ModeReadOnly,
		"read_only":          ModeReadOnly,
		"workspace-write":    ModeWorkspaceWrite,
		"danger-full-access": ModeDangerFullAccess,
		"full-access":        ModeDangerFullAccess,
	}
	for in, want := range tests {
		got, err := ParseSandboxMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSandboxMode("container")
	assert.ErrorIs(t, err, ErrUnknownSandboxMode)
}

func TestSandboxPolicyJSON(t *testing.T) {
	var p SandboxPolicy
	raw := `{"mode":"workspace-write","writable_roots":["/data/./cache"],"network_access":true,"exclude_slash_tmp":true}`
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, ModeWorkspaceWrite, p.Mode)
	assert.Equal(t, []string{"/data/cache"}, fspath.Strings(p.WritableRoots))
	assert.True(t, p.HasFullNetworkAccess())
	assert.True(t, p.ExcludeSlashTmp)
	assert.False(t, p.ExcludeTmpdirEnvVar)

	out, err := json.Marshal(ReadOnly())
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"read-only"}`, string(out))
}

func TestNetworkAndDiskAccess(t *testing.T) {
	assert.False(t, ReadOnly().HasFullNetworkAccess())
	assert.False(t, ReadOnly().HasFullDiskWriteAccess())
	assert.True(t, DangerFullAccess().HasFullNetworkAccess())
	assert.True(t, DangerFullAccess().HasFullDiskWriteAccess())
	assert.False(t, WorkspaceWrite(WorkspaceWriteOptions{}).HasFullNetworkAccess())
	assert.False(t, WorkspaceWrite(WorkspaceWriteOptions{}).HasFullDiskWriteAccess())
}

func TestWritableRootsWithCwd(t *testing.T) {
	cwd := fspath.MustNew("/work/project")
	extra := fspath.MustNew("/data/cache")

	t.Run("cwd and configured roots", func(t *testing.T) {
		p := WorkspaceWrite(WorkspaceWriteOptions{WritableRoots: []fspath.AbsolutePath{extra, cwd}})
		assert.Equal(t, []string{"/work/project", "/data/cache"}, fspath.Strings(p.WritableRootsWithCwd(cwd)))
	})

	t.Run("temp dirs are never added", func(t *testing.T) {
		t.Setenv("TMPDIR", "/var/folders/xy/T/")
		p := WorkspaceWrite(WorkspaceWriteOptions{})
		assert.Equal(t, []string{"/work/project"}, fspath.Strings(p.WritableRootsWithCwd(cwd)))
	})

	t.Run("excluded temp dirs are removed", func(t *testing.T) {
		t.Setenv("TMPDIR", "/var/folders/xy/T/")
		roots := []fspath.AbsolutePath{
			fspath.MustNew("/tmp"),
			fspath.MustNew("/var/folders/xy/T"),
			fspath.MustNew("/tmp/build"),
			extra,
		}

		p := WorkspaceWrite(WorkspaceWriteOptions{WritableRoots: roots, ExcludeTmpdirEnvVar: true})
		assert.Equal(t,
			[]string{"/work/project", "/tmp", "/tmp/build", "/data/cache"},
			fspath.Strings(p.WritableRootsWithCwd(cwd)))

		p = WorkspaceWrite(WorkspaceWriteOptions{WritableRoots: roots, ExcludeSlashTmp: true})
		assert.Equal(t,
			[]string{"/work/project", "/var/folders/xy/T", "/tmp/build", "/data/cache"},
			fspath.Strings(p.WritableRootsWithCwd(cwd)))
	})

	t.Run("excluded cwd is removed too", func(t *testing.T) {
		p := WorkspaceWrite(WorkspaceWriteOptions{ExcludeSlashTmp: true})
		assert.Empty(t, p.WritableRootsWithCwd(fspath.MustNew("/tmp")))
	})

	t.Run("unset or relative TMPDIR excludes nothing", func(t *testing.T) {
		p := WorkspaceWrite(WorkspaceWriteOptions{
			WritableRoots:       []fspath.AbsolutePath{fspath.MustNew("/work/project/tmp")},
			ExcludeTmpdirEnvVar: true,
		})

		t.Setenv("TMPDIR", "")
		assert.Equal(t, []string{"/work/project", "/work/project/tmp"}, fspath.Strings(p.WritableRootsWithCwd(cwd)))

		t.Setenv("TMPDIR", "tmp")
		assert.Equal(t, []string{"/work/project", "/work/project/tmp"}, fspath.Strings(p.WritableRootsWithCwd(cwd)))
	})

	t.Run("other modes have no roots", func(t *testing.T) {
		assert.Empty(t, ReadOnly().WritableRootsWithCwd(cwd))
		assert.Empty(t, DangerFullAccess().WritableRootsWithCwd(cwd))
	})
}

func TestWorkspaceWriteCopiesRoots(t *testing.T) {
	roots := []fspath.AbsolutePath{fspath.MustNew("/a")}
	p := WorkspaceWrite(WorkspaceWriteOptions{WritableRoots: roots})
	roots[0] = fspath.MustNew("/b")

	assert.Equal(t, "/a", p.WritableRoots[0].String())
}
