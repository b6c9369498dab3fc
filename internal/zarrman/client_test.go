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

	"github.com/dandidav/dandidav-go/internal/paths"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	root, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	return New(root, 64<<20, zerolog.Nop()), srv
}

func TestFetchIndexAtRoot(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"files": [], "directories": ["ab", "cd"]}`))
	})

	idx, err := c.FetchIndex(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "cd"}, idx.Directories)
}

func TestFetchIndexAtNestedDir(t *testing.T) {
	dir := requireDirPath(t, "ab/cd/")

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ab/cd/", r.URL.Path)
		w.Write([]byte(`{"files": ["deadbeef.zarr"], "directories": []}`))
	})

	idx, err := c.FetchIndex(context.Background(), &dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"deadbeef.zarr"}, idx.Files)
}

func TestFetchManifestCachesAcrossCalls(t *testing.T) {
	hits := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ab/cd/myzarr/deadbeef.zarr/", r.URL.Path)
		hits++
		w.Write([]byte(manifestFixture))
	})

	mp := ManifestPath{Prefix: requireDirPath(t, "ab/cd/"), ZarrID: "myzarr", Checksum: "deadbeef"}

	first, err := c.FetchManifest(context.Background(), mp)
	require.NoError(t, err)
	assert.Contains(t, first.Entries, ".zattrs")

	second, err := c.FetchManifest(context.Background(), mp)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, hits, "second fetch should be served from cache")
}

func TestFetchManifestPropagatesNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	mp := ManifestPath{Prefix: requireDirPath(t, "ab/cd/"), ZarrID: "myzarr", Checksum: "deadbeef"}
	_, err := c.FetchManifest(context.Background(), mp)
	assert.Error(t, err)
}

func requireDirPath(t *testing.T, s string) paths.PureDirPath {
	t.Helper()
	d, err := paths.NewPureDirPath(s)
	require.NoError(t, err)
	return d
}
