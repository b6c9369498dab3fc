package zarrman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dandidav/dandidav-go/internal/paths"
)

func mustComponents(t *testing.T, ss ...string) []paths.Component {
	t.Helper()
	out := make([]paths.Component, len(ss))
	for i, s := range ss {
		out[i] = paths.MustComponent(s)
	}
	return out
}

func TestParseReqPathEmptyIsManifestRoot(t *testing.T) {
	rp, ok := ParseReqPath(nil)
	require.True(t, ok)
	assert.Equal(t, ReqDir, rp.Kind)
	assert.Equal(t, paths.RootDirPath, rp.Dir)
}

func TestParseReqPathOneAndTwoComponentsAreDirs(t *testing.T) {
	one, ok := ParseReqPath(mustComponents(t, "ab"))
	require.True(t, ok)
	assert.Equal(t, ReqDir, one.Kind)
	assert.Equal(t, "ab/", one.Dir.String())

	two, ok := ParseReqPath(mustComponents(t, "ab", "cd"))
	require.True(t, ok)
	assert.Equal(t, ReqDir, two.Kind)
	assert.Equal(t, "ab/cd/", two.Dir.String())
}

func TestParseReqPathThreeComponentsIsZarrIDDir(t *testing.T) {
	rp, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr"))
	require.True(t, ok)
	assert.Equal(t, ReqDir, rp.Kind)
	assert.Equal(t, "ab/cd/myzarr/", rp.Dir.String())
}

func TestParseReqPathFourComponentsIsManifest(t *testing.T) {
	rp, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", "0123456789abcdef0123456789abcdef.zarr"))
	require.True(t, ok)
	require.Equal(t, ReqManifest, rp.Kind)
	assert.Equal(t, "ab/cd/", rp.ManifestPath.Prefix.String())
	assert.Equal(t, "myzarr", rp.ManifestPath.ZarrID)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", rp.ManifestPath.Checksum)
}

func TestParseReqPathFourComponentsWithoutZarrSuffixFails(t *testing.T) {
	_, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", "notazarr"))
	assert.False(t, ok)
}

func TestParseReqPathBareDotZarrFails(t *testing.T) {
	_, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", ".zarr"))
	assert.False(t, ok)
}

func TestParseReqPathChecksumWithDotFails(t *testing.T) {
	_, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", "abc.def.zarr"))
	assert.False(t, ok)
}

func TestParseReqPathFifthComponentIsInManifest(t *testing.T) {
	rp, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", "deadbeef.zarr", "0", "0", "13", "8", "100"))
	require.True(t, ok)
	require.Equal(t, ReqInManifest, rp.Kind)
	assert.Equal(t, "deadbeef", rp.ManifestPath.Checksum)
	assert.Equal(t, "0/0/13/8/100", rp.EntryPath.String())
}

func TestManifestPathStringRendersTreeLocation(t *testing.T) {
	rp, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", "deadbeef.zarr"))
	require.True(t, ok)
	assert.Equal(t, "ab/cd/myzarr/deadbeef.zarr/", rp.ManifestPath.String())
}
