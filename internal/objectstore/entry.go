package objectstore

import (
	"time"

	"github.com/dandidav/dandidav-go/internal/paths"
)

// Entry is either a Folder (an S3 common prefix) or an Object (an S3 key),
// as yielded by a delimiter-scoped listing.
type Entry struct {
	Folder *Folder
	Object *Object
}

// Folder is an S3 common prefix, i.e. everything under a delimiter-bounded
// "directory".
type Folder struct {
	KeyPrefix paths.PureDirPath
}

// Object is a single S3 key.
type Object struct {
	Key         paths.PurePath
	Modified    time.Time
	Size        int64
	ETag        string
	DownloadURL string
}

// RelativeTo rebases e onto dirpath, the way PrefixedClient does for every
// entry it returns, or reports false if e does not lie under dirpath.
func (e Entry) RelativeTo(dirpath paths.PureDirPath) (Entry, bool) {
	switch {
	case e.Folder != nil:
		if e.Folder.KeyPrefix.String() == dirpath.String() {
			return Entry{Folder: &Folder{KeyPrefix: paths.RootDirPath}}, true
		}
		rel, ok := e.Folder.KeyPrefix.RelativeTo(dirpath)
		if !ok {
			return Entry{}, false
		}
		return Entry{Folder: &Folder{KeyPrefix: rel}}, true
	case e.Object != nil:
		rel, ok := e.Object.Key.RelativeTo(dirpath)
		if !ok {
			return Entry{}, false
		}
		o := *e.Object
		o.Key = rel
		return Entry{Object: &o}, true
	default:
		return Entry{}, false
	}
}
