package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPureDirPathEmptyIsRoot(t *testing.T) {
	d, err := NewPureDirPath("")
	require.NoError(t, err)
	assert.True(t, d.IsRoot())
	assert.Equal(t, RootDirPath, d)
	assert.Equal(t, "", d.String())
}

func TestNewPureDirPathRequiresTrailingSlash(t *testing.T) {
	_, err := NewPureDirPath("a/b")
	assert.Error(t, err)
}

func TestPureDirPathStringRoundTrip(t *testing.T) {
	for _, s := range []string{"a/", "a/b/", "ab/cd/myzarr/"} {
		d, err := NewPureDirPath(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, d.String(), s)

		again, err := NewPureDirPath(d.String())
		require.NoError(t, err, s)
		assert.Equal(t, d, again, s)
	}
}

func TestPureDirPathParentOfRootHasNone(t *testing.T) {
	_, ok := RootDirPath.Parent()
	assert.False(t, ok)
}

func TestPureDirPathParentStripsFinalComponent(t *testing.T) {
	d := mustDirPath(t, "ab/cd/")
	parent, ok := d.Parent()
	require.True(t, ok)
	assert.Equal(t, "ab/", parent.String())
}

func TestPureDirPathJoinDirNestsOneLevel(t *testing.T) {
	d := mustDirPath(t, "ab/")
	nested := d.JoinDir(MustComponent("cd"))
	assert.Equal(t, "ab/cd/", nested.String())
}

func TestPureDirPathJoinYieldsPurePath(t *testing.T) {
	d := mustDirPath(t, "sub-01/")
	p := d.Join(MustComponent("file.nwb"))
	assert.Equal(t, "sub-01/file.nwb", p.String())
}

func TestPureDirPathJoinPathAppendsWholePurePath(t *testing.T) {
	d := mustDirPath(t, "ab/cd/")
	p := mustPurePath(t, "0/0/13")
	joined := d.JoinPath(p)
	assert.Equal(t, "ab/cd/0/0/13", joined.String())
}

func TestPureDirPathIsStrictlyUnder(t *testing.T) {
	cases := []struct {
		d, other string
		want     bool
	}{
		{"foo/bar/quux/", "foo/", true},
		{"foo/bar/quux/", "foo/bar/", true},
		{"foo/", "foo/bar/", false},
		{"bar/quux/", "foo/bar/quux/", false},
		{"foo/bar/", "quux/bar/", false},
	}
	for _, c := range cases {
		d := mustDirPath(t, c.d)
		other := mustDirPath(t, c.other)
		assert.Equal(t, c.want, d.IsStrictlyUnder(other), "%s under %s", c.d, c.other)
	}
}

func TestPureDirPathRelativeTo(t *testing.T) {
	cases := []struct {
		d, other string
		want     string
		ok       bool
	}{
		{"foo/bar/", "foo/", "bar/", true},
		{"foo/bar/quux/", "foo/", "bar/quux/", true},
		{"foo/bar/quux/", "foo/bar/", "quux/", true},
		{"foo/", "foo/bar/", "", false},
		{"bar/quux/", "foo/bar/quux/", "", false},
		{"foo/bar/", "quux/bar/", "", false},
	}
	for _, c := range cases {
		d := mustDirPath(t, c.d)
		other := mustDirPath(t, c.other)
		rel, ok := d.RelativeTo(other)
		require.Equal(t, c.ok, ok, "%s relative to %s", c.d, c.other)
		if c.ok {
			assert.Equal(t, c.want, rel.String())
		}
	}
}

func mustDirPath(t *testing.T, s string) PureDirPath {
	t.Helper()
	d, err := NewPureDirPath(s)
	require.NoError(t, err)
	return d
}
