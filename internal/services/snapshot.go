package services

import (
	"strings"

	"github.com/desertthunder/nowplaying/internal/models"
)

// Normalize maps an upstream currently-playing body onto a [models.Snapshot].
//
// It is total: a nil body or any missing intermediate object yields the field's default.
func Normalize(cp *CurrentlyPlaying) models.Snapshot {
	if cp == nil {
		return models.NotPlaying()
	}

	return models.Snapshot{
		IsPlaying:     cp.IsPlaying,
		Title:         trackTitle(cp.Item),
		Artist:        trackArtists(cp.Item),
		ArtistURL:     albumArtistURL(cp.Item),
		AlbumImageURL: albumImageURL(cp.Item),
		SongURL:       trackURL(cp.Item),
		TimePlayed:    nonNegative(cp.ProgressMS),
		TimeTotal:     trackDuration(cp.Item),
	}
}

func trackTitle(t *SpotifyTrack) *string {
	if t == nil {
		return nil
	}
	return t.Name
}

func trackArtists(t *SpotifyTrack) string {
	if t == nil {
		return ""
	}

	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a == nil {
			names = append(names, "")
			continue
		}
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

func albumArtistURL(t *SpotifyTrack) *string {
	if t == nil || t.Album == nil || len(t.Album.Artists) == 0 {
		return nil
	}
	return spotifyURL(artistURLs(t.Album.Artists[0]))
}

func albumImageURL(t *SpotifyTrack) *string {
	if t == nil || t.Album == nil || len(t.Album.Images) == 0 || t.Album.Images[0] == nil {
		return nil
	}
	return t.Album.Images[0].URL
}

func trackURL(t *SpotifyTrack) *string {
	if t == nil {
		return nil
	}
	return spotifyURL(t.ExternalURLs)
}

func trackDuration(t *SpotifyTrack) int64 {
	if t == nil {
		return 0
	}
	return nonNegative(t.DurationMS)
}

func spotifyURL(u *externalURLs) *string {
	if u == nil {
		return nil
	}
	return u.Spotify
}

func artistURLs(a *SpotifyArtist) *externalURLs {
	if a == nil {
		return nil
	}
	return a.ExternalURLs
}

func nonNegative(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}
