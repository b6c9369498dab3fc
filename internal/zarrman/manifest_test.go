package zarrman

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dandidav/dandidav-go/internal/paths"
)

// manifestFixture is a nested Zarr manifest document in the manifest tree's
// actual wire shape, grounded on the archive's own test fixture: a
// "schemaVersion"/"fields"/"statistics" envelope around the "entries" tree
// that UnmarshalJSON must pick apart, with leaves several folders deep.
const manifestFixture = `{
	"schemaVersion": 2,
	"fields": ["versionId", "lastModified", "size", "ETag"],
	"statistics": {"0": {"numFiles": 2, "size": 3595243}},
	"entries": {
		".zattrs": ["VwOSu7IVLAQcQHcqOesmlrEDm2sL_Tfs", "2022-06-27T23:07:47+00:00", 8312, "cb32b88f6488d55818aba94746bcc19a"],
		".zgroup": ["9vM0mOc3NbsKMhPZN2Uw2x7Z4ao6G9Nk", "2022-06-27T23:07:47+00:00", 24, "e20297935e73dd0154104d4ea53040ab"],
		".zmetadata": ["nQBXkE69BVfl_0yV7qM1PQdrJAi6h9e0", "2022-06-27T23:07:47+00:00", 18757, "2cd0e8f2a2b1f35ee7a8c0d8f7bca3d7"],
		"0": {
			".zarray": ["rGx6i_6jXp5FV5CniF2a7qT0pHXGx6sZ", "2022-06-27T23:07:47+00:00", 315, "4c2d8e10a9fd9227751e2e65b94b31ad"],
			"0": {
				"0": {
					"13": {
						"8": {
							"100": ["lqNZ6OQ6lKd2QRW8ekWOiVfdZhiicWsh", "2022-06-27T23:09:11+00:00", 1793451, "7b5af4c6c28047c83dd86e4814bc0272"],
							"101": ["ePBo0wEPVj0A5nMZrFo0PIvIufH_vFVm", "2022-06-27T23:09:12+00:00", 1801752, "bf1d7f4a75e4a8f9e05a6f7b62d2c9a8"]
						}
					}
				}
			}
		}
	}
}`

func TestManifestUnmarshalParsesLeavesAndNestedFolders(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(manifestFixture), &m))

	require.Len(t, m.Entries, 4)
	require.Contains(t, m.Entries, ".zattrs")
	require.NotNil(t, m.Entries[".zattrs"].Entry)
	assert.Equal(t, "VwOSu7IVLAQcQHcqOesmlrEDm2sL_Tfs", m.Entries[".zattrs"].Entry.VersionID)
	assert.Equal(t, int64(8312), m.Entries[".zattrs"].Entry.Size)
	assert.Equal(t, "cb32b88f6488d55818aba94746bcc19a", m.Entries[".zattrs"].Entry.ETag)
	assert.Equal(t, time.Date(2022, 6, 27, 23, 7, 47, 0, time.UTC), m.Entries[".zattrs"].Entry.Modified.UTC())

	require.Contains(t, m.Entries, "0")
	top := m.Entries["0"]
	require.NotNil(t, top.Folder)
	require.NotNil(t, (*top.Folder)[".zarray"].Entry)

	deep := (*top.Folder)["0"]
	require.NotNil(t, deep.Folder)
}

func TestManifestGetResolvesLeafEntry(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(manifestFixture), &m))

	path, err := paths.NewPurePath("0/0/0/13/8/100")
	require.NoError(t, err)

	ref, ok := m.Get(path)
	require.True(t, ok)
	require.NotNil(t, ref.Entry)
	assert.Nil(t, ref.Folder)
	assert.Equal(t, "lqNZ6OQ6lKd2QRW8ekWOiVfdZhiicWsh", ref.Entry.VersionID)
	assert.Equal(t, int64(1793451), ref.Entry.Size)
	assert.Equal(t, "7b5af4c6c28047c83dd86e4814bc0272", ref.Entry.ETag)
}

func TestManifestGetResolvesIntermediateFolder(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(manifestFixture), &m))

	path, err := paths.NewPurePath("0/0/0/13/8")
	require.NoError(t, err)

	ref, ok := m.Get(path)
	require.True(t, ok)
	require.NotNil(t, ref.Folder)
	assert.Nil(t, ref.Entry)
	assert.Len(t, *ref.Folder, 2)
	assert.Contains(t, *ref.Folder, "100")
	assert.Contains(t, *ref.Folder, "101")
}

func TestManifestGetTopLevelEntry(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(manifestFixture), &m))

	path, err := paths.NewPurePath(".zgroup")
	require.NoError(t, err)

	ref, ok := m.Get(path)
	require.True(t, ok)
	require.NotNil(t, ref.Entry)
	assert.Equal(t, int64(24), ref.Entry.Size)
}

func TestManifestGetMissingComponentNotFound(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(manifestFixture), &m))

	path, err := paths.NewPurePath("0/0/0/13/8/999")
	require.NoError(t, err)

	_, ok := m.Get(path)
	assert.False(t, ok)
}

func TestManifestGetEntryTreatedAsFolderNotFound(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(manifestFixture), &m))

	// ".zattrs" is a leaf entry; asking for a child beneath it must fail
	// rather than panic or silently resolve.
	path, err := paths.NewPurePath(".zattrs/nonexistent")
	require.NoError(t, err)

	_, ok := m.Get(path)
	assert.False(t, ok)
}

func TestManifestUnmarshalRejectsMalformedEntryTuple(t *testing.T) {
	var m Manifest
	err := json.Unmarshal([]byte(`{"entries": {"bad": ["only", "two"]}}`), &m)
	assert.Error(t, err)
}

func TestManifestUnmarshalRejectsBadTimestamp(t *testing.T) {
	var m Manifest
	err := json.Unmarshal([]byte(`{"entries": {"bad": ["v", "not-a-time", 1, "etag"]}}`), &m)
	assert.Error(t, err)
}

func TestManifestHeapSizeNilIsZero(t *testing.T) {
	var m *Manifest
	assert.Equal(t, int64(0), m.HeapSize())
}

func TestManifestHeapSizePositiveForNonEmpty(t *testing.T) {
	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(manifestFixture), &m))
	assert.Positive(t, m.HeapSize())
}
