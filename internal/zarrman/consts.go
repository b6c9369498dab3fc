package zarrman

// DefaultManifestRootURL is the base URL of the manifest tree: a mirror of
// github.com/dandi/zarr-manifests containing pre-computed Zarr manifests.
const DefaultManifestRootURL = "https://datasets.datalad.org/dandi/zarr-manifests/zarr-manifests-v2-sorted/"

// EntryDownloadPrefix is the URL prefix beneath which Zarr entries named in
// the manifests are available for download: a download URL is
// "{EntryDownloadPrefix}{zarr_id}/{entry_path}".
const EntryDownloadPrefix = "https://dandiarchive.s3.amazonaws.com/zarr/"
