package services

import (
	"encoding/json"
	"math"
)

// fields holds the raw members of a JSON object so each one decodes on its own.
//
// A member that is missing, null, or of an unexpected type falls back to its zero value instead of failing the
// whole body.
type fields map[string]json.RawMessage

func objectFields(data []byte) fields {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	return f
}

func field[T any](f fields, key string) T {
	var v T
	raw, ok := f[key]
	if !ok {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

// millis reads any JSON number, integral or not, truncated to whole milliseconds.
func millis(f fields, key string) int64 {
	n := field[float64](f, key)
	switch {
	case n >= math.MaxInt64:
		return math.MaxInt64
	case n <= math.MinInt64:
		return math.MinInt64
	}
	return int64(n)
}

func (u *externalURLs) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*u = externalURLs{Spotify: field[*string](f, "spotify")}
	return nil
}

func (i *SpotifyImage) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*i = SpotifyImage{
		URL:    field[*string](f, "url"),
		Height: int(millis(f, "height")),
		Width:  int(millis(f, "width")),
	}
	return nil
}

func (a *SpotifyArtist) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*a = SpotifyArtist{
		ID:           field[string](f, "id"),
		Name:         field[string](f, "name"),
		ExternalURLs: field[*externalURLs](f, "external_urls"),
		URI:          field[string](f, "uri"),
	}
	return nil
}

func (a *SpotifyAlbum) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*a = SpotifyAlbum{
		ID:      field[string](f, "id"),
		Name:    field[string](f, "name"),
		Artists: field[[]*SpotifyArtist](f, "artists"),
		Images:  field[[]*SpotifyImage](f, "images"),
		URI:     field[string](f, "uri"),
	}
	return nil
}

func (t *SpotifyTrack) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*t = SpotifyTrack{
		ID:           field[string](f, "id"),
		Name:         field[*string](f, "name"),
		Artists:      field[[]*SpotifyArtist](f, "artists"),
		Album:        field[*SpotifyAlbum](f, "album"),
		DurationMS:   millis(f, "duration_ms"),
		ExternalURLs: field[*externalURLs](f, "external_urls"),
		URI:          field[string](f, "uri"),
	}
	return nil
}

func (cp *CurrentlyPlaying) UnmarshalJSON(data []byte) error {
	f := objectFields(data)
	*cp = CurrentlyPlaying{
		Timestamp:            millis(f, "timestamp"),
		ProgressMS:           millis(f, "progress_ms"),
		IsPlaying:            field[bool](f, "is_playing"),
		CurrentlyPlayingType: field[string](f, "currently_playing_type"),
		Item:                 field[*SpotifyTrack](f, "item"),
	}
	return nil
}
