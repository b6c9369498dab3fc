package objectstore

import (
	"context"

	"github.com/dandidav/dandidav-go/internal/paths"
)

// PrefixedClient rebases every path passed to it (and every Entry it
// returns) onto a fixed prefix within one bucket — the view a single Zarr
// asset has of "its" bucket.
type PrefixedClient struct {
	inner  *BucketClient
	prefix paths.PureDirPath
}

// RootEntries streams the entries directly under the prefix.
func (pc *PrefixedClient) RootEntries(ctx context.Context, yield func(Entry) (bool, error)) error {
	return pc.inner.FolderEntries(ctx, pc.prefix, func(e Entry) (bool, error) {
		rel, ok := e.RelativeTo(pc.prefix)
		if !ok {
			return true, nil
		}
		return yield(rel)
	})
}

// FolderEntries streams the entries directly under prefix/dirpath.
func (pc *PrefixedClient) FolderEntries(ctx context.Context, dirpath paths.PureDirPath, yield func(Entry) (bool, error)) error {
	full := joinDir(pc.prefix, dirpath)
	return pc.inner.FolderEntries(ctx, full, func(e Entry) (bool, error) {
		rel, ok := e.RelativeTo(pc.prefix)
		if !ok {
			return true, nil
		}
		return yield(rel)
	})
}

// GetPath performs a point lookup for prefix/path.
func (pc *PrefixedClient) GetPath(ctx context.Context, path paths.PurePath) (Entry, bool, error) {
	full := pc.prefix.JoinPath(path)
	e, ok, err := pc.inner.GetPath(ctx, full)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	rel, ok := e.RelativeTo(pc.prefix)
	if !ok {
		return Entry{}, false, nil
	}
	return rel, true, nil
}

func joinDir(prefix, dirpath paths.PureDirPath) paths.PureDirPath {
	d := prefix
	for _, c := range dirpath.Parts() {
		d = d.JoinDir(c)
	}
	return d
}
