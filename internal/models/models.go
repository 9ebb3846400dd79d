// package models defines the data model for the now-playing proxy
package models

// Snapshot is the normalized playback status returned to every client regardless of upstream response shape.
//
// Nullable fields are pointers so that "absent" serializes as JSON null.
type Snapshot struct {
	IsPlaying     bool    `json:"isPlaying"`
	Title         *string `json:"title"`
	Artist        string  `json:"artist"`
	ArtistURL     *string `json:"artistUrl"`
	AlbumImageURL *string `json:"albumImageUrl"`
	SongURL       *string `json:"songUrl"`
	TimePlayed    int64   `json:"timePlayed"`
	TimeTotal     int64   `json:"timeTotal"`
}

// NotPlaying returns the default snapshot used for "nothing playing" and for swallowed upstream errors.
func NotPlaying() Snapshot {
	return Snapshot{}
}

// TitleOr returns the title, or fallback when absent.
func (s Snapshot) TitleOr(fallback string) string {
	if s.Title == nil {
		return fallback
	}
	return *s.Title
}

// Progress reports played/total as a ratio in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.TimeTotal <= 0 || s.TimePlayed <= 0 {
		return 0
	}
	if s.TimePlayed >= s.TimeTotal {
		return 1
	}
	return float64(s.TimePlayed) / float64(s.TimeTotal)
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}

// SameTrack reports whether s and o describe the same track, ignoring playback position.
func (s Snapshot) SameTrack(o Snapshot) bool {
	return deref(s.SongURL) == deref(o.SongURL) && deref(s.Title) == deref(o.Title) && s.Artist == o.Artist
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
