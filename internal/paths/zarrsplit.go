package paths

// ZarrCandidate is one candidate split point produced by
// PurePath.SplitZarrCandidates: ZarrPath is a prefix of the original path
// ending in a component with a ".zarr" or ".ngff" extension, and EntryPath
// is everything after it.
type ZarrCandidate struct {
	ZarrPath  PurePath
	EntryPath PurePath
}

// SplitZarrCandidates returns, in left-to-right order, every non-final
// component of p that has a ".zarr" or ".ngff" extension (matched
// case-sensitively, and only when the component has a non-empty stem), paired
// with the path's remainder. Callers query each ZarrPath in turn and stop at
// the first one that resolves to a Zarr asset; a path with no such component
// yields no candidates at all.
func (p PurePath) SplitZarrCandidates() []ZarrCandidate {
	var out []ZarrCandidate
	// The final component can never start a candidate: if the whole path is
	// itself a Zarr asset there is no entry path to split off, and that case
	// is handled by resolving the asset path directly.
	for i := 0; i < len(p.parts)-1; i++ {
		c := p.parts[i]
		if !isZarrLike(c) {
			continue
		}
		zarrPath, err := PurePathFromComponents(p.parts[:i+1])
		if err != nil {
			continue
		}
		entryPath, err := PurePathFromComponents(p.parts[i+1:])
		if err != nil {
			continue
		}
		out = append(out, ZarrCandidate{ZarrPath: zarrPath, EntryPath: entryPath})
	}
	return out
}

func isZarrLike(c Component) bool {
	for _, suffix := range [...]string{".zarr", ".ngff"} {
		if c.HasSuffix(suffix) && len(c.String()) > len(suffix) {
			return true
		}
	}
	return false
}
