package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPurePathRejectsEmptyAndLeadingSlash(t *testing.T) {
	_, err := NewPurePath("")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = NewPurePath("/a/b")
	assert.Error(t, err)
}

func TestPurePathStringRoundTrip(t *testing.T) {
	for _, s := range []string{"a", "a/b", "sub-01/file.nwb", "0/0/0/13/8/100"} {
		p, err := NewPurePath(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, p.String(), s)

		again, err := NewPurePath(p.String())
		require.NoError(t, err, s)
		assert.Equal(t, p, again, s)
	}
}

func TestPurePathNameIsFinalComponent(t *testing.T) {
	p := mustPurePath(t, "sub-01/file.nwb")
	assert.Equal(t, "file.nwb", p.Name().String())
}

func TestPurePathParentOfSingleComponentHasNone(t *testing.T) {
	p := mustPurePath(t, "file.nwb")
	_, ok := p.Parent()
	assert.False(t, ok)
}

func TestPurePathParentStripsFinalComponent(t *testing.T) {
	p := mustPurePath(t, "sub-01/ses-01/file.nwb")
	parent, ok := p.Parent()
	require.True(t, ok)
	assert.Equal(t, "sub-01/ses-01/", parent.String())
}

func TestPurePathFromComponentsRejectsEmpty(t *testing.T) {
	_, err := PurePathFromComponents(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPurePathJoinAppendsComponents(t *testing.T) {
	p := mustPurePath(t, "sub-01")
	joined := p.Join(MustComponent("ses-01"), MustComponent("file.nwb"))
	assert.Equal(t, "sub-01/ses-01/file.nwb", joined.String())
}

func TestPurePathIsStrictlyUnder(t *testing.T) {
	cases := []struct {
		p, dir string
		want   bool
	}{
		{"foo/bar/baz", "foo/bar/baz/", false},
		{"foo/bar/baz", "foo/bar/", true},
		{"foo/bar/baz", "foo/", true},
		{"foo/bar", "foo/bar/baz/", false},
		{"foo", "foo/bar/baz/", false},
		{"foobar", "foo/", false},
	}
	for _, c := range cases {
		p := mustPurePath(t, c.p)
		dir := mustDirPath(t, c.dir)
		assert.Equal(t, c.want, p.IsStrictlyUnder(dir), "%s under %s", c.p, c.dir)
	}
}

func TestPurePathRelativeTo(t *testing.T) {
	cases := []struct {
		p, dir string
		want   string
		ok     bool
	}{
		{"foo/bar", "foo/", "bar", true},
		{"foo/bar/quux", "foo/", "bar/quux", true},
		{"foo/bar/quux", "foo/bar/", "quux", true},
		{"foo", "foo/bar/", "", false},
		{"bar/quux", "foo/bar/quux/", "", false},
		{"foo/bar", "quux/bar/", "", false},
	}
	for _, c := range cases {
		p := mustPurePath(t, c.p)
		dir := mustDirPath(t, c.dir)
		rel, ok := p.RelativeTo(dir)
		require.Equal(t, c.ok, ok, "%s relative to %s", c.p, c.dir)
		if c.ok {
			assert.Equal(t, c.want, rel.String())
		}
	}
}

// TestRelativeToIsDefinedWhenStrictlyUnder checks the property that
// relativization and the strictly-under relation agree: for every (dir,
// path) pair, path.IsStrictlyUnder(dir) holds exactly when
// path.RelativeTo(dir) succeeds.
func TestRelativeToIsDefinedWhenStrictlyUnder(t *testing.T) {
	dirs := []string{"", "foo/", "foo/bar/", "quux/"}
	candidates := []string{"foo", "foo/bar", "foo/bar/baz", "quux/glarch", "unrelated"}
	for _, ds := range dirs {
		dir := mustDirPath(t, ds)
		for _, ps := range candidates {
			p := mustPurePath(t, ps)
			_, ok := p.RelativeTo(dir)
			assert.Equal(t, p.IsStrictlyUnder(dir), ok, "path=%s dir=%s", ps, ds)
		}
	}
}

func mustPurePath(t *testing.T, s string) PurePath {
	t.Helper()
	p, err := NewPurePath(s)
	require.NoError(t, err)
	return p
}
