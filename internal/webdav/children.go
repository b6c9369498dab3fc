package webdav

import (
	"context"
	"net/url"

	"github.com/dandidav/dandidav-go/internal/dandi"
	"github.com/dandidav/dandidav-go/internal/objectstore"
	"github.com/dandidav/dandidav-go/internal/paths"
)

// Children lists r's direct children in upstream order. Non-collection
// resources have no children.
func (r *Resolver) Children(ctx context.Context, res Resource) ([]Resource, error) {
	if !res.IsCollection {
		return nil, nil
	}
	switch res.Path.Kind {
	case KindRoot:
		out := []Resource{{
			Path: DavPath{Kind: KindDandisetIndex}, Kind: ResCollection, IsCollection: true, Size: -1, Name: "dandisets",
		}}
		if r.ZarrmanEnabled() {
			out = append(out, Resource{Path: DavPath{Kind: KindZarrmanRoot}, Kind: ResCollection, IsCollection: true, Size: -1, Name: "zarrs"})
		}
		return out, nil

	case KindDandisetIndex:
		var out []Resource
		err := r.archive.GetAllDandisets(ctx, func(ds dandi.Dandiset) (bool, error) {
			out = append(out, Resource{
				Path: DavPath{Kind: KindDandiset, DandisetID: ds.Identifier}, Kind: ResCollection,
				IsCollection: true, Size: -1, Name: ds.Identifier.String(), Created: ds.Created, Modified: ds.Modified,
			})
			return true, nil
		})
		return out, err

	case KindDandiset:
		ds := res.dandiset
		if ds == nil {
			fetched, err := r.archive.GetDandiset(ctx, res.Path.DandisetID)
			if err != nil {
				return nil, err
			}
			ds = &fetched
		}
		out := []Resource{{
			Path: DavPath{Kind: KindVersion, DandisetID: ds.Identifier, Version: dandi.DraftVersion()},
			Kind: ResCollection, IsCollection: true, Size: -1, Name: "draft",
			Created: ds.DraftVersion.Created, Modified: ds.DraftVersion.Modified, MetadataURL: ds.DraftVersion.MetadataURL,
		}}
		if ds.MostRecentPublishedVersion != nil {
			lv := ds.MostRecentPublishedVersion
			out = append(out,
				Resource{
					Path: DavPath{Kind: KindVersion, DandisetID: ds.Identifier, Version: dandi.LatestVersion()},
					Kind: ResCollection, IsCollection: true, Size: -1, Name: "latest",
					Created: lv.Created, Modified: lv.Modified, MetadataURL: lv.MetadataURL,
				},
				Resource{
					Path: DavPath{Kind: KindDandisetReleases, DandisetID: ds.Identifier},
					Kind: ResCollection, IsCollection: true, Size: -1, Name: "releases",
				},
			)
		}
		return out, nil

	case KindDandisetReleases:
		var out []Resource
		err := r.archive.GetVersions(ctx, res.Path.DandisetID, func(v dandi.DandisetVersion) (bool, error) {
			if v.Version.Kind() != dandi.VersionPublished {
				return true, nil
			}
			out = append(out, Resource{
				Path: DavPath{Kind: KindVersion, DandisetID: res.Path.DandisetID, Version: v.Version},
				Kind: ResCollection, IsCollection: true, Size: -1, Name: v.Version.Published().String(),
				Created: v.Created, Modified: v.Modified, MetadataURL: v.MetadataURL,
			})
			return true, nil
		})
		return out, err

	case KindVersion:
		return r.assetChildren(ctx, res.Path.DandisetID, res.concreteVersion, paths.RootDirPath)

	case KindDandiResource:
		switch {
		case res.zarrPrefixed != nil:
			return r.zarrEntryChildren(ctx, res)
		default:
			return r.assetChildren(ctx, res.Path.DandisetID, res.concreteVersion, res.folderPath)
		}

	case KindZarrmanRoot, KindZarrmanPath:
		return r.zarrmanChildren(ctx, res)

	default:
		return nil, nil
	}
}

func (r *Resolver) assetChildren(ctx context.Context, id dandi.DandisetID, spec dandi.VersionSpec, dirpath paths.PureDirPath) ([]Resource, error) {
	var out []Resource
	err := r.archive.GetRootChildren(ctx, id, spec, dirpath, func(fe dandi.FolderEntry, asset *dandi.Asset) (bool, error) {
		switch {
		case fe.Folder != nil:
			p := dirFormToPurePath(fe.Folder.Path)
			out = append(out, Resource{
				Path: DavPath{Kind: KindDandiResource, DandisetID: id, Version: spec, AssetPath: p},
				Kind: ResCollection, IsCollection: true, Size: -1, Name: p.Name().String(),
			})
		case asset.Blob != nil:
			b := asset.Blob
			out = append(out, Resource{
				Path: DavPath{Kind: KindDandiResource, DandisetID: id, Version: spec, AssetPath: b.Path},
				Kind: ResRedirect, IsCollection: false, Size: b.Size, Name: b.Path.Name().String(),
				ContentType: b.ContentType(), ETag: b.ETag(), Created: b.Created, Modified: b.Modified,
				DownloadURL: b.DownloadURL(), MetadataURL: b.MetadataURL,
			})
		case asset.Zarr != nil:
			z := asset.Zarr
			out = append(out, Resource{
				Path: DavPath{Kind: KindDandiResource, DandisetID: id, Version: spec, AssetPath: z.Path},
				Kind: ResCollection, IsCollection: true, Size: z.Size, Name: z.Path.Name().String(),
				Created: z.Created, Modified: z.Modified, MetadataURL: z.MetadataURL,
			})
		}
		return true, nil
	})
	return out, err
}

func (r *Resolver) zarrEntryChildren(ctx context.Context, res Resource) ([]Resource, error) {
	var out []Resource
	err := res.zarrPrefixed.FolderEntries(ctx, res.folderPath, func(e objectstore.Entry) (bool, error) {
		switch {
		case e.Folder != nil:
			entryPath := res.zarrAssetPath.Join(e.Folder.KeyPrefix.Parts()...)
			out = append(out, Resource{
				Path: DavPath{Kind: KindDandiResource, DandisetID: res.Path.DandisetID, Version: res.Path.Version, AssetPath: entryPath},
				Kind: ResCollection, IsCollection: true, Size: -1, Name: lastDirComponent(e.Folder.KeyPrefix),
				zarrAssetPath: res.zarrAssetPath, zarrPrefixed: res.zarrPrefixed, folderPath: e.Folder.KeyPrefix,
			})
		case e.Object != nil:
			entryPath := res.zarrAssetPath.Join(e.Object.Key.Parts()...)
			out = append(out, Resource{
				Path: DavPath{Kind: KindDandiResource, DandisetID: res.Path.DandisetID, Version: res.Path.Version, AssetPath: entryPath},
				Kind: ResRedirect, IsCollection: false, Size: e.Object.Size, Name: e.Object.Key.Name().String(),
				ETag: e.Object.ETag, Modified: e.Object.Modified, DownloadURL: parseURLOrNil(e.Object.DownloadURL),
			})
		}
		return true, nil
	})
	return out, err
}

func (r *Resolver) zarrmanChildren(ctx context.Context, res Resource) ([]Resource, error) {
	children, err := r.zarrman.Children(ctx, res.zarrman)
	if err != nil {
		return nil, err
	}
	out := make([]Resource, 0, len(children))
	for _, zc := range children {
		var dp DavPath
		if res.Path.Kind == KindZarrmanRoot {
			dp = DavPath{Kind: KindZarrmanPath, ZarrmanParts: []paths.Component{paths.MustComponent(zc.Name())}}
		} else {
			dp = DavPath{Kind: KindZarrmanPath, ZarrmanParts: append(append([]paths.Component{}, res.Path.ZarrmanParts...), paths.MustComponent(zc.Name()))}
		}
		out = append(out, zarrmanToResource(dp, zc))
	}
	return out, nil
}

func dirFormToPurePath(d paths.PureDirPath) paths.PurePath {
	p, _ := paths.PurePathFromComponents(d.Parts())
	return p
}

func lastDirComponent(d paths.PureDirPath) string {
	parts := d.Parts()
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1].String()
}

func parseURLOrNil(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		return nil
	}
	return u
}
