package zarrman

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReqDirIsWebFolder(t *testing.T) {
	c := New(mustRootURL(t, "http://example.invalid/"), 0, zerolog.Nop())
	reqPath, ok := ParseReqPath(mustComponents(t, "ab", "cd"))
	require.True(t, ok)

	res, err := c.Resolve(context.Background(), reqPath)
	require.NoError(t, err)
	assert.Equal(t, KindWebFolder, res.Kind)
	assert.True(t, res.IsCollection())
	assert.Equal(t, "cd", res.Name())
}

func TestResolveReqManifestIsManifestWithoutFetching(t *testing.T) {
	c := New(mustRootURL(t, "http://example.invalid/"), 0, zerolog.Nop())
	reqPath, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", "deadbeef.zarr"))
	require.True(t, ok)

	res, err := c.Resolve(context.Background(), reqPath)
	require.NoError(t, err)
	assert.Equal(t, KindManifest, res.Kind)
	assert.True(t, res.IsCollection())
	assert.Equal(t, "deadbeef", res.ManifestPath.Checksum)
}

func TestResolveReqInManifestEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestFixture))
	}))
	t.Cleanup(srv.Close)
	c := New(mustRootURL(t, srv.URL+"/"), 64<<20, zerolog.Nop())

	reqPath, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", "deadbeef.zarr", "0", "0", "0", "13", "8", "100"))
	require.True(t, ok)

	res, err := c.Resolve(context.Background(), reqPath)
	require.NoError(t, err)
	assert.Equal(t, KindManEntry, res.Kind)
	assert.False(t, res.IsCollection())
	assert.Equal(t, "100", res.Name())
	assert.Equal(t, int64(1793451), res.Entry.Size)
	require.NotNil(t, res.DownloadURL)
	assert.Equal(t, "https://dandiarchive.s3.amazonaws.com/zarr/myzarr/0/0/0/13/8/100", res.DownloadURL.String())
}

func TestResolveReqInManifestFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestFixture))
	}))
	t.Cleanup(srv.Close)
	c := New(mustRootURL(t, srv.URL+"/"), 64<<20, zerolog.Nop())

	reqPath, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", "deadbeef.zarr", "0", "0", "0", "13", "8"))
	require.True(t, ok)

	res, err := c.Resolve(context.Background(), reqPath)
	require.NoError(t, err)
	assert.Equal(t, KindManFolder, res.Kind)
	assert.True(t, res.IsCollection())
}

func TestResolveReqInManifestMissingEntryIsErrEntryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestFixture))
	}))
	t.Cleanup(srv.Close)
	c := New(mustRootURL(t, srv.URL+"/"), 64<<20, zerolog.Nop())

	reqPath, ok := ParseReqPath(mustComponents(t, "ab", "cd", "myzarr", "deadbeef.zarr", "nonexistent"))
	require.True(t, ok)

	_, err := c.Resolve(context.Background(), reqPath)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestChildrenOfWebFolderSplitsDirsAndManifests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ab/cd/", r.URL.Path)
		w.Write([]byte(`{"files": ["deadbeef.zarr"], "directories": ["ef"]}`))
	}))
	t.Cleanup(srv.Close)
	c := New(mustRootURL(t, srv.URL+"/"), 0, zerolog.Nop())

	dir := requireDirPath(t, "ab/cd/")
	children, err := c.Children(context.Background(), Resource{Kind: KindWebFolder, WebPath: dir})
	require.NoError(t, err)
	require.Len(t, children, 2)

	byName := map[string]Resource{}
	for _, ch := range children {
		byName[ch.Name()] = ch
	}
	require.Contains(t, byName, "ef")
	assert.Equal(t, KindWebFolder, byName["ef"].Kind)
	require.Contains(t, byName, "deadbeef.zarr")
	assert.Equal(t, KindManifest, byName["deadbeef.zarr"].Kind)
	assert.Equal(t, "deadbeef", byName["deadbeef.zarr"].ManifestPath.Checksum)
}

func TestChildrenOfManifestListsTopLevelEntriesSorted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifestFixture))
	}))
	t.Cleanup(srv.Close)
	c := New(mustRootURL(t, srv.URL+"/"), 64<<20, zerolog.Nop())

	mp := ManifestPath{Prefix: requireDirPath(t, "ab/cd/"), ZarrID: "myzarr", Checksum: "deadbeef"}
	res := Resource{Kind: KindManifest, WebPath: manifestWebPath(mp), ManifestPath: mp}

	children, err := c.Children(context.Background(), res)
	require.NoError(t, err)
	require.Len(t, children, 4)
	names := make([]string, len(children))
	for i, ch := range children {
		names[i] = ch.Name()
	}
	// sort.Strings orders "." (0x2e) before "0" (0x30), so the dotfiles sort
	// ahead of the nested numeric folder.
	assert.Equal(t, []string{".zattrs", ".zgroup", ".zmetadata", "0"}, names)
}

func TestChildrenOfNonFolderResourceIsNil(t *testing.T) {
	c := New(mustRootURL(t, "http://example.invalid/"), 0, zerolog.Nop())
	children, err := c.Children(context.Background(), Resource{Kind: KindManEntry})
	require.NoError(t, err)
	assert.Nil(t, children)
}

func mustRootURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}
