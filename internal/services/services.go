// package services defines interface Service for reading playback state over HTTP
//
// Spotify (direct), a deployed nowplaying proxy (remote)
package services

import (
	"context"

	"github.com/desertthunder/nowplaying/internal/models"
)

// Service defines a source of normalized playback snapshots.
type Service interface {
	// NowPlaying returns the caller's current playback as a [models.Snapshot].
	//
	// "Nothing playing" is a valid snapshot, not an error.
	NowPlaying(ctx context.Context) (models.Snapshot, error)

	// Name returns the name of the source (e.g., "Spotify")
	Name() string
}
