package webdav

import (
	"fmt"

	"github.com/dandidav/dandidav-go/internal/dandi"
)

// NoLatestVersionError is returned when a path addresses a Dandiset's
// "latest" version but the Dandiset has no published version at all.
type NoLatestVersionError struct {
	DandisetID dandi.DandisetID
}

func (e *NoLatestVersionError) Error() string {
	return fmt.Sprintf("webdav: dandiset %s has no published version", e.DandisetID)
}
