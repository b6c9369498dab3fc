package webdav

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/dandidav/dandidav-go/internal/dandi"
	"github.com/dandidav/dandidav-go/internal/objectstore"
	"github.com/dandidav/dandidav-go/internal/paths"
	"github.com/dandidav/dandidav-go/internal/zarrman"
)

// ResourceKind discriminates the shapes a resolved resource can take.
type ResourceKind int

const (
	ResCollection ResourceKind = iota
	ResInline
	ResRedirect
	ResZarrman
)

// Resource is a fully resolved node of the virtual tree: enough information
// for the dispatcher to serve GET/HEAD/PROPFIND without further lookups,
// plus enough resolution context for Resolver.Children to list its
// children lazily.
type Resource struct {
	Path DavPath

	Kind         ResourceKind
	Name         string
	IsCollection bool
	Size         int64 // -1 when unknown or a collection
	ContentType  string
	ETag         string
	Created      time.Time
	Modified     time.Time
	DownloadURL  *url.URL // ResRedirect
	Inline       []byte   // ResInline
	MetadataURL  *url.URL // auxiliary "metadata" link, nil if none

	// Resolution context consumed only by Resolver.Children.
	dandiset        *dandi.Dandiset
	concreteVersion dandi.VersionSpec
	folderPath      paths.PureDirPath
	zarrAssetPath   paths.PurePath
	zarrPrefixed    *objectstore.PrefixedClient
	zarrman         zarrman.Resource
}

// Resolver implements the routing table of the virtual resource tree,
// turning a DavPath into a Resource and, for collections, its children.
type Resolver struct {
	archive      *dandi.Client
	zarrman      *zarrman.Client
	zarrmanTitle string
}

// NewResolver builds a Resolver. zm may be nil, in which case /zarrs/ is not
// served (KindZarrmanRoot/KindZarrmanPath resolve to ErrNotFound).
func NewResolver(archive *dandi.Client, zm *zarrman.Client) *Resolver {
	return &Resolver{archive: archive, zarrman: zm}
}

// ZarrmanEnabled reports whether this resolver serves /zarrs/.
func (r *Resolver) ZarrmanEnabled() bool { return r.zarrman != nil }

// Resolve turns dp into a Resource.
func (r *Resolver) Resolve(ctx context.Context, dp DavPath) (Resource, error) {
	switch dp.Kind {
	case KindRoot:
		return Resource{Path: dp, Kind: ResCollection, IsCollection: true, Size: -1}, nil

	case KindDandisetIndex:
		return Resource{Path: dp, Kind: ResCollection, IsCollection: true, Size: -1}, nil

	case KindDandiset:
		ds, err := r.archive.GetDandiset(ctx, dp.DandisetID)
		if err != nil {
			return Resource{}, err
		}
		return Resource{
			Path: dp, Kind: ResCollection, IsCollection: true, Size: -1,
			Created: ds.Created, Modified: ds.Modified, dandiset: &ds,
		}, nil

	case KindDandisetReleases:
		return Resource{Path: dp, Kind: ResCollection, IsCollection: true, Size: -1}, nil

	case KindVersion:
		spec, err := r.resolveConcreteVersion(ctx, dp.DandisetID, dp.Version)
		if err != nil {
			return Resource{}, err
		}
		v, err := r.archive.GetVersion(ctx, dp.DandisetID, spec)
		if err != nil {
			return Resource{}, err
		}
		return Resource{
			Path: dp, Kind: ResCollection, IsCollection: true, Size: -1,
			Created: v.Created, Modified: v.Modified, MetadataURL: v.MetadataURL,
			concreteVersion: spec,
		}, nil

	case KindDandisetYaml:
		spec, err := r.resolveConcreteVersion(ctx, dp.DandisetID, dp.Version)
		if err != nil {
			return Resource{}, err
		}
		blob, err := r.archive.GetVersionMetadataYAML(ctx, dp.DandisetID, spec)
		if err != nil {
			return Resource{}, err
		}
		return Resource{
			Path: dp, Kind: ResInline, IsCollection: false, Size: int64(len(blob)),
			ContentType: "text/yaml; charset=utf-8", Inline: blob,
		}, nil

	case KindDandiResource:
		spec, err := r.resolveConcreteVersion(ctx, dp.DandisetID, dp.Version)
		if err != nil {
			return Resource{}, err
		}
		return r.resolveAssetPath(ctx, dp, spec)

	case KindZarrmanRoot, KindZarrmanPath:
		return r.resolveZarrman(ctx, dp)

	default:
		return Resource{}, ErrNotFound
	}
}

func (r *Resolver) resolveConcreteVersion(ctx context.Context, id dandi.DandisetID, spec dandi.VersionSpec) (dandi.VersionSpec, error) {
	if spec.Kind() != dandi.VersionLatest {
		return spec, nil
	}
	ds, err := r.archive.GetDandiset(ctx, id)
	if err != nil {
		return dandi.VersionSpec{}, err
	}
	if ds.MostRecentPublishedVersion == nil {
		return dandi.VersionSpec{}, &NoLatestVersionError{DandisetID: id}
	}
	return ds.MostRecentPublishedVersion.Version, nil
}

// resolveAssetPath implements the asset-or-Zarr-entry resolution algorithm.
func (r *Resolver) resolveAssetPath(ctx context.Context, dp DavPath, spec dandi.VersionSpec) (Resource, error) {
	for _, cand := range dp.AssetPath.SplitZarrCandidates() {
		at, err := r.archive.GetPath(ctx, dp.DandisetID, spec, cand.ZarrPath)
		if err != nil {
			if _, ok := err.(*dandi.NotFoundError); ok {
				continue
			}
			return Resource{}, err
		}
		switch {
		case at.Folder != nil:
			continue
		case at.Asset.Blob != nil:
			return Resource{}, &dandi.PathUnderBlobError{Path: dp.AssetPath.String(), BlobPath: cand.ZarrPath}
		case at.Asset.Zarr != nil:
			return r.resolveZarrEntry(ctx, dp, at.Asset.Zarr, cand.ZarrPath, cand.EntryPath)
		}
	}
	at, err := r.archive.GetPath(ctx, dp.DandisetID, spec, dp.AssetPath)
	if err != nil {
		return Resource{}, err
	}
	switch {
	case at.Folder != nil:
		return Resource{
			Path: dp, Kind: ResCollection, IsCollection: true, Size: -1,
			Name: dp.AssetPath.Name().String(), concreteVersion: spec, folderPath: at.Folder.Path,
		}, nil
	case at.Asset.Blob != nil:
		b := at.Asset.Blob
		return Resource{
			Path: dp, Kind: ResRedirect, IsCollection: false, Size: b.Size,
			Name: b.Path.Name().String(), ContentType: b.ContentType(), ETag: b.ETag(),
			Created: b.Created, Modified: b.Modified, DownloadURL: b.DownloadURL(), MetadataURL: b.MetadataURL,
		}, nil
	case at.Asset.Zarr != nil:
		z := at.Asset.Zarr
		return r.zarrAssetRootResource(ctx, dp, z)
	default:
		return Resource{}, fmt.Errorf("webdav: resolved asset path is neither folder nor asset")
	}
}

func (r *Resolver) resolveZarrEntry(ctx context.Context, dp DavPath, zarr *dandi.ZarrAsset, zarrPath, entryPath paths.PurePath) (Resource, error) {
	pc, err := r.archive.GetPrefixedS3Client(ctx, zarr)
	if err != nil {
		return Resource{}, err
	}
	entry, ok, err := pc.GetPath(ctx, entryPath)
	if err != nil {
		return Resource{}, err
	}
	if !ok {
		return Resource{}, &dandi.ZarrEntryNotFoundError{ZarrPath: zarrPath, EntryPath: entryPath}
	}
	switch {
	case entry.Folder != nil:
		return Resource{
			Path: dp, Kind: ResCollection, IsCollection: true, Size: -1,
			Name: entryPath.Name().String(), zarrAssetPath: zarrPath, zarrPrefixed: pc, folderPath: entry.Folder.KeyPrefix,
		}, nil
	case entry.Object != nil:
		o := entry.Object
		u, _ := url.Parse(o.DownloadURL)
		return Resource{
			Path: dp, Kind: ResRedirect, IsCollection: false, Size: o.Size,
			Name: entryPath.Name().String(), ETag: o.ETag, Modified: o.Modified, DownloadURL: u,
		}, nil
	default:
		return Resource{}, fmt.Errorf("webdav: object-store entry is neither folder nor object")
	}
}

func (r *Resolver) zarrAssetRootResource(ctx context.Context, dp DavPath, zarr *dandi.ZarrAsset) (Resource, error) {
	pc, err := r.archive.GetPrefixedS3Client(ctx, zarr)
	if err != nil {
		return Resource{}, err
	}
	return Resource{
		Path: dp, Kind: ResCollection, IsCollection: true, Size: zarr.Size,
		Name: zarr.Path.Name().String(), Created: zarr.Created, Modified: zarr.Modified,
		MetadataURL: zarr.MetadataURL, zarrAssetPath: zarr.Path, zarrPrefixed: pc, folderPath: paths.RootDirPath,
	}, nil
}

func (r *Resolver) resolveZarrman(ctx context.Context, dp DavPath) (Resource, error) {
	if r.zarrman == nil {
		return Resource{}, ErrNotFound
	}
	var parts []paths.Component
	if dp.Kind == KindZarrmanPath {
		parts = dp.ZarrmanParts
	}
	reqPath, ok := zarrman.ParseReqPath(parts)
	if !ok {
		return Resource{}, ErrNotFound
	}
	zr, err := r.zarrman.Resolve(ctx, reqPath)
	if err != nil {
		return Resource{}, err
	}
	return zarrmanToResource(dp, zr), nil
}

func zarrmanToResource(dp DavPath, zr zarrman.Resource) Resource {
	res := Resource{Path: dp, Kind: ResZarrman, IsCollection: zr.IsCollection(), Name: zr.Name(), zarrman: zr}
	if zr.IsCollection() {
		res.Size = -1
		return res
	}
	res.Size = zr.Entry.Size
	res.Modified = zr.Entry.Modified
	res.ETag = zr.Entry.ETag
	res.DownloadURL = zr.DownloadURL
	res.Kind = ResRedirect
	return res
}
