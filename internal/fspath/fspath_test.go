//go:build !windows

package fspath

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAbsolute(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already normalized", "/work/project", "/work/project"},
		{"root", "/", "/"},
		{"drops cur dir", "/work/./project/.", "/work/project"},
		{"pops parent", "/work/project/../other", "/work/other"},
		{"parent at root is a no-op", "/../../etc/passwd", "/etc/passwd"},
		{"duplicate separators", "/work//project///src", "/work/project/src"},
		{"trailing separator", "/work/project/", "/work/project"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(nil, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	for _, in := range []string{"/", "/a", "/a/b/c", "/work/project/src/main.go"} {
		first, err := New(in)
		require.NoError(t, err)
		second, err := Resolve(nil, first.String())
		require.NoError(t, err)
		assert.True(t, first.Equal(second), "resolving %q twice changed it", in)
		assert.Equal(t, in, first.String())
	}
}

func TestResolveRelative(t *testing.T) {
	cwd := MustNew("/work/project")

	tests := []struct {
		in   string
		want string
	}{
		{"a.txt", "/work/project/a.txt"},
		{"./src/../a.txt", "/work/project/a.txt"},
		{"../sibling/b.txt", "/work/sibling/b.txt"},
		{"../../../../../x", "/x"},
		{".", "/work/project"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Resolve(&cwd, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			for _, c := range got.Components()[1:] {
				assert.NotEqual(t, ".", c)
				assert.NotEqual(t, "..", c)
			}
		})
	}
}

func TestResolveRelativeWithoutCwd(t *testing.T) {
	_, err := Resolve(nil, "a.txt")

	var relErr *CannotResolveRelativePathError
	require.True(t, errors.As(err, &relErr))
	assert.Equal(t, "a.txt", relErr.File)

	_, err = Resolve(&AbsolutePath{}, "a.txt")
	assert.True(t, errors.As(err, &relErr))
}

func TestResolveNulByte(t *testing.T) {
	_, err := Resolve(nil, "/work/a\x00b")

	var canonErr *CannotCanonicalizePathError
	require.True(t, errors.As(err, &canonErr))
	assert.Equal(t, "/work/a\x00b", canonErr.File)
	assert.ErrorIs(t, err, errNulByte)
}

func TestContains(t *testing.T) {
	tests := []struct {
		root      string
		candidate string
		want      bool
	}{
		{"/work", "/work", true},
		{"/work", "/work/x", true},
		{"/work", "/work/x/y/z", true},
		{"/work", "/workspace/x", false},
		{"/work", "/workspace", false},
		{"/work/project", "/work", false},
		{"/work/project", "/work/other/file", false},
		{"/", "/anything/at/all", true},
		{"/", "/", true},
	}

	for _, tt := range tests {
		t.Run(tt.root+" "+tt.candidate, func(t *testing.T) {
			root := MustNew(tt.root)
			candidate := MustNew(tt.candidate)
			assert.Equal(t, tt.want, Contains(root, candidate))
			assert.Equal(t, tt.want, root.Contains(candidate))
		})
	}
}

func TestContainsZeroValues(t *testing.T) {
	assert.False(t, Contains(AbsolutePath{}, MustNew("/a")))
	assert.False(t, Contains(MustNew("/a"), AbsolutePath{}))
}

func TestContainedInAny(t *testing.T) {
	roots := []AbsolutePath{MustNew("/work/project"), MustNew("/tmp")}

	assert.True(t, ContainedInAny(roots, MustNew("/tmp/x")))
	assert.True(t, ContainedInAny(roots, MustNew("/work/project/src")))
	assert.False(t, ContainedInAny(roots, MustNew("/work")))
	assert.False(t, ContainedInAny(nil, MustNew("/tmp/x")))
}

func TestComponentsJoinParent(t *testing.T) {
	p := MustNew("/work/project")

	assert.Equal(t, []string{"/", "work", "project"}, p.Components())
	assert.Equal(t, []string{"/"}, MustNew("/").Components())
	assert.Equal(t, "/work/project/src/a.go", p.Join("src", "a.go").String())
	assert.Equal(t, "/work/b", p.Join("../b").String())
	assert.Equal(t, "/work", p.Parent().String())
	assert.Equal(t, "/", MustNew("/").Parent().String())
}

func TestAbsolutePathJSON(t *testing.T) {
	var payload struct {
		Roots []AbsolutePath `json:"roots"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"roots":["/a/./b","/c/../d"]}`), &payload))
	assert.Equal(t, []string{"/a/b", "/d"}, Strings(payload.Roots))

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"roots":["/a/b","/d"]}`, string(out))

	err = json.Unmarshal([]byte(`{"roots":["relative"]}`), &payload)
	assert.Error(t, err)
}
