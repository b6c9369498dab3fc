package zarrman

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dandidav/dandidav-go/internal/paths"
)

// ManifestEntry is a single Zarr entry's metadata as of the point in time
// the manifest was generated.
type ManifestEntry struct {
	VersionID string
	Modified  time.Time
	Size      int64
	ETag      string
}

// heapSize approximates the entry's in-memory footprint for cache weighing:
// the struct itself plus its two string fields' backing bytes.
func (e ManifestEntry) heapSize() int64 {
	return int64(len(e.VersionID)+len(e.ETag)) + 64
}

// FolderEntry is either a nested ManifestFolder or a leaf ManifestEntry, the
// two shapes the manifest's "entries" JSON object's values can take.
type FolderEntry struct {
	Folder *ManifestFolder
	Entry  *ManifestEntry
}

// ManifestFolder is a directory within a Zarr manifest: a mapping from child
// component names to their entries.
type ManifestFolder map[string]FolderEntry

func (f ManifestFolder) heapSize() int64 {
	var total int64
	for name, fe := range f {
		total += int64(len(name)) + 32
		switch {
		case fe.Folder != nil:
			total += fe.Folder.heapSize()
		case fe.Entry != nil:
			total += fe.Entry.heapSize()
		}
	}
	return total
}

// Manifest is a parsed Zarr manifest: the full entry tree fetched from the
// manifest tree for one checksum.zarr path.
type Manifest struct {
	Entries ManifestFolder
}

// HeapSize estimates the manifest's in-memory size in bytes, used to weigh
// the manifest cache.
func (m *Manifest) HeapSize() int64 {
	if m == nil {
		return 0
	}
	return m.Entries.heapSize()
}

// EntryRef is what Manifest.Get finds at a path: either a subfolder or a
// leaf entry.
type EntryRef struct {
	Folder *ManifestFolder
	Entry  *ManifestEntry
}

// Get walks path's components against the manifest's tree. Non-final
// components must name folders; the final component may name either a
// folder or an entry. Any mismatch (a non-final component naming an entry,
// or no component of that name at any level) reports ok=false, never an
// error — manifests are internally consistent by construction, so a
// mismatch simply means "not found".
func (m *Manifest) Get(path paths.PurePath) (EntryRef, bool) {
	folder := m.Entries
	parts := path.Parts()
	for i, c := range parts {
		fe, ok := folder[c.String()]
		if !ok {
			return EntryRef{}, false
		}
		last := i == len(parts)-1
		switch {
		case fe.Folder != nil && last:
			return EntryRef{Folder: fe.Folder}, true
		case fe.Folder != nil:
			folder = *fe.Folder
		case fe.Entry != nil && last:
			return EntryRef{Entry: fe.Entry}, true
		default:
			// fe.Entry != nil but this isn't the last component: an entry
			// was asked to behave like a folder.
			return EntryRef{}, false
		}
	}
	return EntryRef{Folder: &folder}, true
}

// rawManifest mirrors the manifest tree's on-the-wire JSON shape: an
// "entries" object whose values are either a 4-element
// [versionId, lastModified, size, etag] array (a leaf) or a nested object
// (a folder).
type rawManifest struct {
	Entries json.RawMessage `json:"entries"`
}

// UnmarshalJSON parses a manifest document, recursively distinguishing leaf
// arrays from folder objects at every level of "entries".
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("zarrman: failed to parse manifest: %w", err)
	}
	folder, err := parseManifestFolder(raw.Entries)
	if err != nil {
		return err
	}
	m.Entries = folder
	return nil
}

func parseManifestFolder(data json.RawMessage) (ManifestFolder, error) {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("zarrman: failed to parse manifest folder: %w", err)
	}
	out := make(ManifestFolder, len(rawMap))
	for name, v := range rawMap {
		fe, err := parseFolderEntry(v)
		if err != nil {
			return nil, fmt.Errorf("zarrman: entry %q: %w", name, err)
		}
		out[name] = fe
	}
	return out, nil
}

func parseFolderEntry(data json.RawMessage) (FolderEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		entry, err := parseManifestEntry(trimmed)
		if err != nil {
			return FolderEntry{}, err
		}
		return FolderEntry{Entry: &entry}, nil
	}
	folder, err := parseManifestFolder(data)
	if err != nil {
		return FolderEntry{}, err
	}
	return FolderEntry{Folder: &folder}, nil
}

func parseManifestEntry(data []byte) (ManifestEntry, error) {
	var tuple [4]json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return ManifestEntry{}, fmt.Errorf("zarrman: malformed entry tuple: %w", err)
	}
	var versionID, etag string
	var modifiedStr string
	var size int64
	if err := json.Unmarshal(tuple[0], &versionID); err != nil {
		return ManifestEntry{}, fmt.Errorf("zarrman: malformed entry version id: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &modifiedStr); err != nil {
		return ManifestEntry{}, fmt.Errorf("zarrman: malformed entry timestamp: %w", err)
	}
	modified, err := time.Parse(time.RFC3339, modifiedStr)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("zarrman: malformed entry timestamp %q: %w", modifiedStr, err)
	}
	if err := json.Unmarshal(tuple[2], &size); err != nil {
		return ManifestEntry{}, fmt.Errorf("zarrman: malformed entry size: %w", err)
	}
	if err := json.Unmarshal(tuple[3], &etag); err != nil {
		return ManifestEntry{}, fmt.Errorf("zarrman: malformed entry etag: %w", err)
	}
	return ManifestEntry{VersionID: versionID, Modified: modified, Size: size, ETag: etag}, nil
}
