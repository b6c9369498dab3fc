package zarrman

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/dandidav/dandidav-go/internal/paths"
)

// ResourceKind discriminates the four shapes a resource under /zarrs/ can
// take.
type ResourceKind int

const (
	// KindWebFolder is a directory between the manifest root and the Zarr
	// manifests themselves (a prefix1, prefix1/prefix2, or zarr_id level).
	KindWebFolder ResourceKind = iota
	// KindManifest is a manifest file itself: "{checksum}.zarr/".
	KindManifest
	// KindManFolder is a directory inside a Zarr's own entry tree.
	KindManFolder
	// KindManEntry is a single file-like entry inside a Zarr.
	KindManEntry
)

// Resource is a resolved node of the /zarrs/ virtual tree.
type Resource struct {
	Kind ResourceKind

	WebPath      paths.PureDirPath // Kind in {WebFolder, Manifest, ManFolder}
	EntryWebPath paths.PurePath    // Kind == ManEntry

	ManifestPath ManifestPath // Kind in {Manifest, ManFolder, ManEntry}

	InnerDir   paths.PureDirPath // Kind == ManFolder: path within the manifest's own tree
	InnerEntry paths.PurePath    // Kind == ManEntry: path within the manifest's own tree

	Entry       ManifestEntry // Kind == ManEntry
	DownloadURL *url.URL      // Kind == ManEntry
}

// IsCollection reports whether the resource behaves as a WebDAV collection.
func (r Resource) IsCollection() bool { return r.Kind != KindManEntry }

// Name returns the resource's own final path component, for use as a
// listing row's display name.
func (r Resource) Name() string {
	switch r.Kind {
	case KindManEntry:
		return r.EntryWebPath.Name().String()
	default:
		if r.WebPath.IsRoot() {
			return ""
		}
		parts := r.WebPath.Parts()
		return parts[len(parts)-1].String()
	}
}

// ErrEntryNotFound is returned when a path inside an existent manifest does
// not correspond to any entry.
var ErrEntryNotFound = errors.New("zarrman: no such entry in manifest")

// Resolve interprets reqPath (as produced by ParseReqPath) into a concrete
// Resource, fetching and walking a manifest when necessary.
func (c *Client) Resolve(ctx context.Context, reqPath ReqPath) (Resource, error) {
	switch reqPath.Kind {
	case ReqDir:
		return Resource{Kind: KindWebFolder, WebPath: reqPath.Dir}, nil
	case ReqManifest:
		return Resource{
			Kind:         KindManifest,
			WebPath:      manifestWebPath(reqPath.ManifestPath),
			ManifestPath: reqPath.ManifestPath,
		}, nil
	case ReqInManifest:
		man, err := c.FetchManifest(ctx, reqPath.ManifestPath)
		if err != nil {
			return Resource{}, err
		}
		ref, ok := man.Get(reqPath.EntryPath)
		if !ok {
			return Resource{}, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, reqPath.EntryPath, reqPath.ManifestPath)
		}
		base := manifestWebPath(reqPath.ManifestPath)
		switch {
		case ref.Folder != nil:
			webPath := joinDirPath(base, reqPath.EntryPath)
			return Resource{
				Kind:         KindManFolder,
				WebPath:      webPath,
				ManifestPath: reqPath.ManifestPath,
				InnerDir:     paths.PureDirPathFromComponents(reqPath.EntryPath.Parts()),
			}, nil
		default:
			webPath := base.JoinPath(reqPath.EntryPath)
			downloadURL := entryDownloadURL(reqPath.ManifestPath.ZarrID, reqPath.EntryPath)
			return Resource{
				Kind:         KindManEntry,
				EntryWebPath: webPath,
				ManifestPath: reqPath.ManifestPath,
				InnerEntry:   reqPath.EntryPath,
				Entry:        *ref.Entry,
				DownloadURL:  downloadURL,
			}, nil
		}
	default:
		return Resource{}, fmt.Errorf("zarrman: unrecognized request path kind")
	}
}

// Children lists r's direct children. Manifest folder children are sorted
// by name; web folder children keep the index's order, directories before
// files. Non-folder resources have no children and return nil.
func (c *Client) Children(ctx context.Context, r Resource) ([]Resource, error) {
	switch r.Kind {
	case KindWebFolder:
		return c.webFolderChildren(ctx, r)
	case KindManifest:
		man, err := c.FetchManifest(ctx, r.ManifestPath)
		if err != nil {
			return nil, err
		}
		return manifestFolderChildren(man.Entries, r.ManifestPath, r.WebPath, paths.RootDirPath), nil
	case KindManFolder:
		man, err := c.FetchManifest(ctx, r.ManifestPath)
		if err != nil {
			return nil, err
		}
		folder := man.Entries
		for _, c := range r.InnerDir.Parts() {
			fe, ok := folder[c.String()]
			if !ok || fe.Folder == nil {
				return nil, fmt.Errorf("%w: %s in %s", ErrEntryNotFound, r.InnerDir, r.ManifestPath)
			}
			folder = *fe.Folder
		}
		return manifestFolderChildren(folder, r.ManifestPath, r.WebPath, r.InnerDir), nil
	default:
		return nil, nil
	}
}

func (c *Client) webFolderChildren(ctx context.Context, r Resource) ([]Resource, error) {
	var dirArg *paths.PureDirPath
	if !r.WebPath.IsRoot() {
		dirArg = &r.WebPath
	}
	idx, err := c.FetchIndex(ctx, dirArg)
	if err != nil {
		return nil, err
	}
	out := make([]Resource, 0, len(idx.Directories)+len(idx.Files))
	for _, name := range idx.Directories {
		comp, err := paths.NewComponent(name)
		if err != nil {
			continue
		}
		out = append(out, Resource{Kind: KindWebFolder, WebPath: r.WebPath.JoinDir(comp)})
	}
	for _, name := range idx.Files {
		comp, err := paths.NewComponent(name)
		if err != nil {
			continue
		}
		checksum, ok := splitZarrSuffix(name)
		if !ok {
			continue
		}
		zarrID := ""
		if parts := r.WebPath.Parts(); len(parts) > 0 {
			zarrID = parts[len(parts)-1].String()
		}
		prefix, _ := r.WebPath.Parent()
		mp := ManifestPath{Prefix: prefix, ZarrID: zarrID, Checksum: checksum}
		out = append(out, Resource{Kind: KindManifest, WebPath: r.WebPath.JoinDir(comp), ManifestPath: mp})
	}
	return out, nil
}

func manifestFolderChildren(folder ManifestFolder, mp ManifestPath, webPath paths.PureDirPath, innerDir paths.PureDirPath) []Resource {
	names := make([]string, 0, len(folder))
	for name := range folder {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Resource, 0, len(names))
	for _, name := range names {
		fe := folder[name]
		comp, err := paths.NewComponent(name)
		if err != nil {
			continue
		}
		entryPath := innerDir.Join(comp)
		switch {
		case fe.Folder != nil:
			out = append(out, Resource{
				Kind:         KindManFolder,
				WebPath:      webPath.JoinDir(comp),
				ManifestPath: mp,
				InnerDir:     innerDir.JoinDir(comp),
			})
		case fe.Entry != nil:
			out = append(out, Resource{
				Kind:         KindManEntry,
				EntryWebPath: webPath.Join(comp),
				ManifestPath: mp,
				InnerEntry:   entryPath,
				Entry:        *fe.Entry,
				DownloadURL:  entryDownloadURL(mp.ZarrID, entryPath),
			})
		}
	}
	return out
}

func manifestWebPath(mp ManifestPath) paths.PureDirPath {
	return mp.Prefix.JoinDir(paths.MustComponent(mp.ZarrID)).JoinDir(paths.MustComponent(mp.Checksum + ".zarr"))
}

func joinDirPath(base paths.PureDirPath, p paths.PurePath) paths.PureDirPath {
	d := base
	for _, c := range p.Parts() {
		d = d.JoinDir(c)
	}
	return d
}

func entryDownloadURL(zarrID string, entryPath paths.PurePath) *url.URL {
	u, err := url.Parse(EntryDownloadPrefix)
	if err != nil {
		return nil
	}
	segments := append([]string{zarrID}, componentStrings(entryPath.Parts())...)
	return joinPathEscaped(u, segments...)
}

func joinPathEscaped(base *url.URL, segments ...string) *url.URL {
	u := *base
	path := u.Path
	for _, s := range segments {
		if path != "" && path[len(path)-1] != '/' {
			path += "/"
		}
		path += url.PathEscape(s)
	}
	u.Path = path
	u.RawPath = ""
	return &u
}
