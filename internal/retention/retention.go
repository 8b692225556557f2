// Package retention decides which versions fall outside the keep window.
package retention

import "github.com/cadre-oss/promptvault/internal/snapshot"

// DefaultKeep is the number of versions kept when no count is configured.
const DefaultKeep = 50

// SelectForDeletion returns the versions beyond the first keep entries of an
// already newest-first slice. It returns nil when nothing exceeds the window.
// A negative keep is treated as zero.
func SelectForDeletion(versions []snapshot.Metadata, keep int) []snapshot.Metadata {
	if keep < 0 {
		keep = 0
	}
	if len(versions) <= keep {
		return nil
	}
	excess := make([]snapshot.Metadata, len(versions)-keep)
	copy(excess, versions[keep:])
	return excess
}
