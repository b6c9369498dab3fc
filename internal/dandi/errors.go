package dandi

import (
	"fmt"

	"github.com/dandidav/dandidav-go/internal/paths"
)

// NotFoundError is returned when no asset or folder exists at a requested
// path within a Dandiset version.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("dandi: no such path: %s", e.Path) }

// DisappearingAssetError is returned when an asset listed under a folder
// vanishes (404s) before its detail record can be fetched — a race between
// the two archive calls needed to list-then-fetch an asset.
type DisappearingAssetError struct {
	AssetID string
	Path    paths.PurePath
}

func (e *DisappearingAssetError) Error() string {
	return fmt.Sprintf("dandi: asset %s at %s disappeared while being fetched", e.AssetID, e.Path)
}

// PathUnderBlobError is returned when a requested path lies underneath a
// path component that turned out to name a blob asset rather than a folder
// or Zarr asset, e.g. requesting "foo.dat/bar" when "foo.dat" is a blob.
type PathUnderBlobError struct {
	Path     string
	BlobPath paths.PurePath
}

func (e *PathUnderBlobError) Error() string {
	return fmt.Sprintf("dandi: path %s lies under blob asset at %s", e.Path, e.BlobPath)
}

// ZarrEntryNotFoundError is returned when a path resolves to a Zarr asset
// but no object or folder exists at the requested entry path within it.
type ZarrEntryNotFoundError struct {
	ZarrPath  paths.PurePath
	EntryPath paths.PurePath
}

func (e *ZarrEntryNotFoundError) Error() string {
	return fmt.Sprintf("dandi: no entry %s in Zarr asset at %s", e.EntryPath, e.ZarrPath)
}

// ZarrLacksS3URLError is returned when a Zarr asset's metadata contains no
// S3-parseable content_url, so its backing bucket cannot be determined.
type ZarrLacksS3URLError struct {
	AssetID string
}

func (e *ZarrLacksS3URLError) Error() string {
	return fmt.Sprintf("dandi: Zarr asset %s has no S3 content_url", e.AssetID)
}
