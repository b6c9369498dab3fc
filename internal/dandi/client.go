package dandi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/dandidav/dandidav-go/internal/httpclient"
	"github.com/dandidav/dandidav-go/internal/objectstore"
	"github.com/dandidav/dandidav-go/internal/paths"
)

// Client talks to the DANDI Archive REST API and resolves Zarr assets
// against the public S3 buckets they're backed by.
type Client struct {
	http    *httpclient.Client
	apiURL  *url.URL
	objects *objectstore.Client
	log     zerolog.Logger
}

// New builds a Client against apiURL, the DANDI Archive API's base URL
// (e.g. "https://api.dandiarchive.org/api/").
func New(apiURL *url.URL, log zerolog.Logger) *Client {
	return &Client{
		http:    httpclient.New(log),
		apiURL:  apiURL,
		objects: objectstore.New(log),
		log:     log,
	}
}

func (c *Client) endpoint(segments ...string) *url.URL {
	return httpclient.JoinPathSlashed(c.apiURL, segments...)
}

func (c *Client) getJSON(ctx context.Context, u *url.URL, v any) error {
	return c.http.GetJSON(ctx, u, v)
}

// GetAllDandisets streams every Dandiset in the archive.
func (c *Client) GetAllDandisets(ctx context.Context, yield func(Dandiset) (bool, error)) error {
	return httpclient.Paginate(ctx, c.http, c.endpoint("dandisets"), func(raw rawDandiset) (bool, error) {
		return yield(raw.toDandiset(c))
	})
}

// GetDandiset fetches a single Dandiset's top-level metadata.
func (c *Client) GetDandiset(ctx context.Context, id DandisetID) (Dandiset, error) {
	var raw rawDandiset
	if err := c.getJSON(ctx, c.endpoint("dandisets", id.String()), &raw); err != nil {
		return Dandiset{}, err
	}
	return raw.toDandiset(c), nil
}

// GetVersions streams every version (draft and published) of a Dandiset.
func (c *Client) GetVersions(ctx context.Context, id DandisetID, yield func(DandisetVersion) (bool, error)) error {
	u := c.endpoint("dandisets", id.String(), "versions")
	return httpclient.Paginate(ctx, c.http, u, func(raw rawDandisetVersion) (bool, error) {
		spec := DraftVersion()
		if vid, err := NewVersionID(raw.Version); err == nil {
			spec = PublishedVersion(vid)
		}
		return yield(raw.toDandisetVersion(c, id, spec))
	})
}

// GetVersion fetches metadata about one version of a Dandiset (not the full
// version metadata document — see GetVersionMetadataYAML for that).
func (c *Client) GetVersion(ctx context.Context, id DandisetID, version VersionSpec) (DandisetVersion, error) {
	var raw rawDandisetVersion
	u := c.endpoint("dandisets", id.String(), "versions", version.APIVersionSegment(), "info")
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return DandisetVersion{}, err
	}
	return raw.toDandisetVersion(c, id, version), nil
}

// GetVersionMetadataYAML fetches the version's full metadata document and
// re-renders it as YAML, preserving the original JSON key order, for
// service as a synthetic "dandiset.yaml" file.
func (c *Client) GetVersionMetadataYAML(ctx context.Context, id DandisetID, version VersionSpec) ([]byte, error) {
	u := c.endpoint("dandisets", id.String(), "versions", version.APIVersionSegment())
	resp, err := c.http.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("dandi: failed to read version metadata body: %w", err)
	}
	return jsonToYAML(raw)
}

// GetAssetByID fetches full metadata for a single asset by its archive ID.
func (c *Client) GetAssetByID(ctx context.Context, id DandisetID, version VersionSpec, assetID string) (Asset, error) {
	var raw rawAsset
	u := c.endpoint("dandisets", id.String(), "versions", version.APIVersionSegment(), "assets", assetID, "info")
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return Asset{}, err
	}
	return raw.toAsset(c)
}

// GetFolderEntries streams the direct children of dirpath (or the version
// root, when dirpath is the root) as listed by the archive's
// assets/paths endpoint.
func (c *Client) GetFolderEntries(ctx context.Context, id DandisetID, version VersionSpec, dirpath paths.PureDirPath, yield func(FolderEntry) (bool, error)) error {
	u := c.endpoint("dandisets", id.String(), "versions", version.APIVersionSegment(), "assets", "paths")
	if !dirpath.IsRoot() {
		q := u.Query()
		q.Set("path_prefix", dirpath.String())
		u.RawQuery = q.Encode()
	}
	return httpclient.Paginate(ctx, c.http, u, func(raw rawFolderEntry) (bool, error) {
		return yield(raw.toFolderEntry())
	})
}

// GetRootChildren resolves the full DavResource-level children directly
// under dirpath: folders as-is, and asset entries fetched by ID (so callers
// get full asset metadata, not just path+id).
func (c *Client) GetRootChildren(ctx context.Context, id DandisetID, version VersionSpec, dirpath paths.PureDirPath, yield func(FolderEntry, *Asset) (bool, error)) error {
	return c.GetFolderEntries(ctx, id, version, dirpath, func(fe FolderEntry) (bool, error) {
		if fe.Folder != nil {
			return yield(fe, nil)
		}
		asset, err := c.GetAssetByID(ctx, id, version, fe.AssetID)
		if err != nil {
			if _, ok := err.(*httpclient.NotFoundError); ok {
				return false, &DisappearingAssetError{AssetID: fe.AssetID, Path: fe.AssetPath}
			}
			return false, err
		}
		return yield(fe, &asset)
	})
}

// GetPath resolves path to an exact asset or to the folder it names, using
// the archive's own "path" + "order=path" query, exploiting the fact that
// results arrive sorted so the scan can stop at the first result that
// sorts past path's directory form.
func (c *Client) GetPath(ctx context.Context, id DandisetID, version VersionSpec, path paths.PurePath) (AtAssetPath, error) {
	u := c.endpoint("dandisets", id.String(), "versions", version.APIVersionSegment(), "assets")
	q := u.Query()
	q.Set("path", path.String())
	q.Set("metadata", "1")
	q.Set("order", "path")
	u.RawQuery = q.Encode()

	dirForm := path.String() + "/"
	var result AtAssetPath
	found := false
	err := httpclient.Paginate(ctx, c.http, u, func(raw rawAsset) (bool, error) {
		assetPath := raw.Path.String()
		switch {
		case assetPath == path.String():
			asset, err := raw.toAsset(c)
			if err != nil {
				return false, err
			}
			result = AtAssetPath{Asset: &asset}
			found = true
			return false, nil
		case len(assetPath) > len(dirForm) && assetPath[:len(dirForm)] == dirForm:
			dp, _ := paths.NewPureDirPath(dirForm)
			result = AtAssetPath{Folder: &AssetFolder{Path: dp}}
			found = true
			return false, nil
		case assetPath > dirForm:
			return false, nil
		default:
			return true, nil
		}
	})
	if err != nil {
		return AtAssetPath{}, err
	}
	if !found {
		return AtAssetPath{}, &NotFoundError{Path: path.String()}
	}
	return result, nil
}

// GetPrefixedS3Client returns the objectstore view scoped to a Zarr asset's
// backing bucket prefix.
func (c *Client) GetPrefixedS3Client(ctx context.Context, zarr *ZarrAsset) (*objectstore.PrefixedClient, error) {
	loc, ok := zarr.S3Location()
	if !ok {
		return nil, &ZarrLacksS3URLError{AssetID: zarr.AssetID}
	}
	prefix, err := paths.NewPureDirPath(ensureTrailingSlash(loc.Key))
	if err != nil {
		return nil, fmt.Errorf("dandi: Zarr asset %s has malformed S3 key %q: %w", zarr.AssetID, loc.Key, err)
	}
	bc, err := c.objects.BucketClient(ctx, objectstore.BucketSpec{Bucket: loc.Bucket, Region: loc.Region})
	if err != nil {
		return nil, fmt.Errorf("dandi: failed to locate bucket for Zarr asset %s: %w", zarr.AssetID, err)
	}
	return bc.WithPrefix(prefix), nil
}

func ensureTrailingSlash(s string) string {
	if s == "" || s[len(s)-1] == '/' {
		return s
	}
	return s + "/"
}

// --- raw JSON decoding types ---

type rawDandiset struct {
	Identifier                 string               `json:"identifier"`
	Created                    time.Time            `json:"created"`
	Modified                   time.Time            `json:"modified"`
	DraftVersion               rawDandisetVersionRef `json:"draft_version"`
	MostRecentPublishedVersion *rawDandisetVersionRef `json:"most_recent_published_version"`
}

type rawDandisetVersionRef struct {
	Version  string    `json:"version"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

func (r rawDandiset) toDandiset(c *Client) Dandiset {
	id, _ := NewDandisetID(r.Identifier)
	d := Dandiset{
		Identifier: id,
		Created:    r.Created,
		Modified:   r.Modified,
		DraftVersion: DandisetVersion{
			Version:     DraftVersion(),
			Size:        r.DraftVersion.Size,
			Created:     r.DraftVersion.Created,
			Modified:    r.DraftVersion.Modified,
			MetadataURL: c.endpoint("dandisets", id.String(), "versions", DraftVersion().APIVersionSegment()),
		},
	}
	if r.MostRecentPublishedVersion != nil {
		vid, _ := NewVersionID(r.MostRecentPublishedVersion.Version)
		d.MostRecentPublishedVersion = &DandisetVersion{
			Version:     PublishedVersion(vid),
			Size:        r.MostRecentPublishedVersion.Size,
			Created:     r.MostRecentPublishedVersion.Created,
			Modified:    r.MostRecentPublishedVersion.Modified,
			MetadataURL: c.endpoint("dandisets", id.String(), "versions", PublishedVersion(vid).APIVersionSegment()),
		}
	}
	return d
}

type rawDandisetVersion struct {
	Version  string    `json:"version"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

func (r rawDandisetVersion) toDandisetVersion(c *Client, id DandisetID, spec VersionSpec) DandisetVersion {
	return DandisetVersion{
		Version:     spec,
		Size:        r.Size,
		Created:     r.Created,
		Modified:    r.Modified,
		MetadataURL: c.endpoint("dandisets", id.String(), "versions", spec.APIVersionSegment()),
	}
}

type rawFolderEntryAsset struct {
	AssetID string `json:"asset_id"`
}

type rawFolderEntry struct {
	Path  string               `json:"path"`
	Asset *rawFolderEntryAsset `json:"asset"`
}

func (r rawFolderEntry) toFolderEntry() FolderEntry {
	if r.Asset != nil {
		p, _ := paths.NewPurePath(r.Path)
		return FolderEntry{AssetPath: p, AssetID: r.Asset.AssetID}
	}
	dp, _ := paths.NewPureDirPath(r.Path + "/")
	return FolderEntry{Folder: &AssetFolder{Path: dp}}
}

type rawAssetDigest struct {
	DandiETag string `json:"dandi:dandi-etag"`
}

type rawAssetMetadata struct {
	EncodingFormat string         `json:"encodingFormat"`
	ContentURL     []string       `json:"contentUrl"`
	Digest         rawAssetDigest `json:"digest"`
}

type rawAsset struct {
	AssetID  string           `json:"asset_id"`
	Blob     *string          `json:"blob"`
	Zarr     *string          `json:"zarr"`
	Path     paths.PurePath   `json:"-"`
	RawPath  string           `json:"path"`
	Size     int64            `json:"size"`
	Created  time.Time        `json:"created"`
	Modified time.Time        `json:"modified"`
	Metadata rawAssetMetadata `json:"metadata"`
}

func (r *rawAsset) UnmarshalJSON(data []byte) error {
	type alias rawAsset
	a := (*alias)(r)
	if err := json.Unmarshal(data, a); err != nil {
		return err
	}
	p, err := paths.NewPurePath(r.RawPath)
	if err != nil {
		return fmt.Errorf("dandi: invalid asset path %q: %w", r.RawPath, err)
	}
	r.Path = p
	return nil
}

func (r rawAsset) metadataURLs() []*url.URL {
	var out []*url.URL
	for _, s := range r.Metadata.ContentURL {
		if u, err := url.Parse(s); err == nil {
			out = append(out, u)
		}
	}
	return out
}

func (r rawAsset) toAsset(c *Client) (Asset, error) {
	meta := AssetMetadata{
		EncodingFormat: r.Metadata.EncodingFormat,
		ContentURL:     r.metadataURLs(),
		DandiETag:      r.Metadata.Digest.DandiETag,
	}
	metadataURL := c.endpoint("assets", r.AssetID, "info")
	switch {
	case r.Blob != nil && r.Zarr != nil:
		return Asset{}, fmt.Errorf("dandi: asset %s has both a blob and a Zarr id", r.AssetID)
	case r.Blob != nil:
		return Asset{Blob: &BlobAsset{
			AssetID:     r.AssetID,
			BlobID:      *r.Blob,
			Path:        r.Path,
			Size:        r.Size,
			Created:     r.Created,
			Modified:    r.Modified,
			Metadata:    meta,
			MetadataURL: metadataURL,
		}}, nil
	case r.Zarr != nil:
		return Asset{Zarr: &ZarrAsset{
			AssetID:     r.AssetID,
			ZarrID:      *r.Zarr,
			Path:        r.Path,
			Size:        r.Size,
			Created:     r.Created,
			Modified:    r.Modified,
			Metadata:    meta,
			MetadataURL: metadataURL,
		}}, nil
	default:
		return Asset{}, fmt.Errorf("dandi: asset %s is neither a blob nor a Zarr", r.AssetID)
	}
}
