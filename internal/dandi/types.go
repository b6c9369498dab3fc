package dandi

import (
	"net/url"
	"time"

	"github.com/dandidav/dandidav-go/internal/objectstore"
	"github.com/dandidav/dandidav-go/internal/paths"
)

// Dandiset is a Dandiset's top-level metadata: its identifier plus its draft
// and (if any) most recently published version.
type Dandiset struct {
	Identifier                  DandisetID
	Created                     time.Time
	Modified                    time.Time
	DraftVersion                DandisetVersion
	MostRecentPublishedVersion  *DandisetVersion
}

// DandisetVersion is one version of a Dandiset: its identifier, size, and
// where to fetch its full metadata.
type DandisetVersion struct {
	Version     VersionSpec
	Size        int64
	Created     time.Time
	Modified    time.Time
	MetadataURL *url.URL
}

// AssetFolder is a directory-like grouping of assets sharing a path prefix;
// it has no metadata of its own beyond its path.
type AssetFolder struct {
	Path paths.PureDirPath
}

// FolderEntry is one item in a directory listing under a Dandiset version:
// either a nested AssetFolder or a pointer to an Asset by path and ID.
type FolderEntry struct {
	Folder *AssetFolder
	// AssetPath and AssetID are set instead of Folder when this entry names
	// an asset directly.
	AssetPath paths.PurePath
	AssetID   string
}

// AssetMetadata is the subset of an asset's DANDI metadata this gateway
// needs: its declared content type, download URL candidates, and digest.
type AssetMetadata struct {
	EncodingFormat string
	ContentURL     []*url.URL
	DandiETag      string
}

// Asset is either a BlobAsset or a ZarrAsset.
type Asset struct {
	Blob *BlobAsset
	Zarr *ZarrAsset
}

// AtAssetPath is the result of resolving a path against a version's asset
// listing: either a folder or a concrete asset.
type AtAssetPath struct {
	Folder *AssetFolder
	Asset  *Asset
}

// BlobAsset is a single-file asset.
type BlobAsset struct {
	AssetID     string
	BlobID      string
	Path        paths.PurePath
	Size        int64
	Created     time.Time
	Modified    time.Time
	Metadata    AssetMetadata
	MetadataURL *url.URL
}

// ContentType returns the asset's declared MIME type, if any.
func (b *BlobAsset) ContentType() string { return b.Metadata.EncodingFormat }

// ETag returns the asset's DANDI digest-derived ETag, if any.
func (b *BlobAsset) ETag() string { return b.Metadata.DandiETag }

// DownloadURL picks the URL dandidav should redirect clients to: a non-S3
// content_url is preferred over an S3-parseable one, since non-S3 URLs are
// assumed to be archive redirects that set Content-Disposition.
func (b *BlobAsset) DownloadURL() *url.URL {
	var firstS3 *url.URL
	for _, u := range b.Metadata.ContentURL {
		if _, err := objectstore.ParseLocation(u); err != nil {
			return u
		} else if firstS3 == nil {
			firstS3 = u
		}
	}
	return firstS3
}

// ZarrAsset is a multi-object Zarr (or NGFF) array asset, backed by a prefix
// of objects in S3.
type ZarrAsset struct {
	AssetID     string
	ZarrID      string
	Path        paths.PurePath
	Size        int64
	Created     time.Time
	Modified    time.Time
	Metadata    AssetMetadata
	MetadataURL *url.URL
}

// S3Location returns the bucket/key prefix backing this Zarr asset, parsed
// from the first content_url that is a recognizable S3 URL.
func (z *ZarrAsset) S3Location() (objectstore.Location, bool) {
	for _, u := range z.Metadata.ContentURL {
		if loc, err := objectstore.ParseLocation(u); err == nil {
			return loc, true
		}
	}
	return objectstore.Location{}, false
}

// ZarrFolder is a directory inside a Zarr asset's object tree.
type ZarrFolder struct {
	ZarrPath paths.PurePath
	Path     paths.PureDirPath
}

// ZarrEntry is a single object inside a Zarr asset's object tree.
type ZarrEntry struct {
	ZarrPath paths.PurePath
	Path     paths.PurePath
	Size     int64
	Modified time.Time
	ETag     string
	URL      string
}
