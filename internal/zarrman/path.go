package zarrman

import (
	"fmt"
	"strings"

	"github.com/dandidav/dandidav-go/internal/paths"
)

// ManifestPath locates a single Zarr manifest in the manifest tree:
// {prefix}{zarr_id}/{checksum}.zarr/.
type ManifestPath struct {
	Prefix   paths.PureDirPath
	ZarrID   string
	Checksum string
}

// String renders the manifest's location relative to the manifest tree
// root, and doubles as the manifest cache's key.
func (p ManifestPath) String() string {
	return p.Prefix.String() + p.ZarrID + "/" + p.Checksum + ".zarr/"
}

// ReqPathKind discriminates the three shapes a path under /zarrs/ can take.
type ReqPathKind int

const (
	// ReqDir is a directory path between the manifest root and the Zarr
	// manifests themselves: one, two, or three components deep.
	ReqDir ReqPathKind = iota
	// ReqManifest names a manifest file itself (a checksum.zarr path).
	ReqManifest
	// ReqInManifest names a path beneath a manifest, i.e. inside a Zarr.
	ReqInManifest
)

// ReqPath is the parsed form of a path under /zarrs/.
type ReqPath struct {
	Kind ReqPathKind

	Dir          paths.PureDirPath // valid when Kind == ReqDir
	ManifestPath ManifestPath      // valid when Kind == ReqManifest or ReqInManifest
	EntryPath    paths.PurePath    // valid when Kind == ReqInManifest
}

// ParseReqPath interprets components (the path segments following
// "/zarrs/") as a ReqPath. It returns ok=false, never an error, when the
// components do not form a valid manifest-tree path — e.g. a fourth
// component not ending in exactly ".zarr", or a bare ".zarr" with no
// checksum before it.
func ParseReqPath(components []paths.Component) (ReqPath, bool) {
	if len(components) == 0 {
		return ReqPath{Kind: ReqDir, Dir: paths.RootDirPath}, true
	}
	prefix := paths.RootDirPath.JoinDir(components[0])
	if len(components) == 1 {
		return ReqPath{Kind: ReqDir, Dir: prefix}, true
	}
	prefix = prefix.JoinDir(components[1])
	if len(components) == 2 {
		return ReqPath{Kind: ReqDir, Dir: prefix}, true
	}
	zarrID := components[2].String()
	if len(components) == 3 {
		return ReqPath{Kind: ReqDir, Dir: prefix.JoinDir(components[2])}, true
	}
	manifestComponent := components[3].String()
	checksum, ok := splitZarrSuffix(manifestComponent)
	if !ok {
		return ReqPath{}, false
	}
	mp := ManifestPath{Prefix: prefix, ZarrID: zarrID, Checksum: checksum}
	if len(components) == 4 {
		return ReqPath{Kind: ReqManifest, ManifestPath: mp}, true
	}
	entryPath, err := paths.PurePathFromComponents(components[4:])
	if err != nil {
		return ReqPath{}, false
	}
	return ReqPath{Kind: ReqInManifest, ManifestPath: mp, EntryPath: entryPath}, true
}

// ParseManifestPath parses key, a string in the form produced by
// ManifestPath.String (the manifest cache's key), back into a ManifestPath.
// It is the inverse of String, used by the cache's loader to recover which
// manifest a key refers to rather than trusting closure-captured state.
func ParseManifestPath(key string) (ManifestPath, error) {
	trimmed := strings.TrimSuffix(key, "/")
	segs := strings.Split(trimmed, "/")
	if len(segs) < 2 {
		return ManifestPath{}, fmt.Errorf("zarrman: malformed manifest cache key %q", key)
	}
	checksum, ok := splitZarrSuffix(segs[len(segs)-1])
	if !ok {
		return ManifestPath{}, fmt.Errorf("zarrman: malformed manifest cache key %q: missing .zarr suffix", key)
	}
	zarrID := segs[len(segs)-2]
	prefixComponents := make([]paths.Component, 0, len(segs)-2)
	for _, seg := range segs[:len(segs)-2] {
		c, err := paths.NewComponent(seg)
		if err != nil {
			return ManifestPath{}, fmt.Errorf("zarrman: malformed manifest cache key %q: %w", key, err)
		}
		prefixComponents = append(prefixComponents, c)
	}
	return ManifestPath{
		Prefix:   paths.PureDirPathFromComponents(prefixComponents),
		ZarrID:   zarrID,
		Checksum: checksum,
	}, nil
}

// splitZarrSuffix strips an exact ".zarr" suffix and rejects any further
// "." in what remains, matching the manifest tree's naming convention of
// "{checksum}.zarr" where checksum itself never contains a dot.
func splitZarrSuffix(s string) (string, bool) {
	rest, ok := strings.CutSuffix(s, ".zarr")
	if !ok || rest == "" {
		return "", false
	}
	if strings.Contains(rest, ".") {
		return "", false
	}
	return rest, true
}
