// package formatter renders now-playing snapshots as terminal text, Markdown and JSON
package formatter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const (
	nothingPlaying = "Nothing playing"
	unknownTitle   = "Unknown track"
	maxImageSize   = 10 << 20
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1DB954")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Underline(true)
)

// Format names an output format accepted by [Export].
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatMarkdown:
		return f, nil
	case "":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json or markdown)", shared.ErrInvalidArgument, s)
	}
}

// Export renders s in the requested format.
func Export(s models.Snapshot, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(s)
	case FormatMarkdown:
		return ExportToMarkdown(s)
	default:
		return ExportToText(s)
	}
}

// ExportToText renders a short human readable summary.
//
// Styles only apply when the output supports color; piped output is plain text.
func ExportToText(s models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	if !s.IsPlaying && s.Title == nil {
		buf.WriteString(mutedStyle.Render(nothingPlaying) + "\n")
		return buf.Bytes(), nil
	}

	status := "Now playing"
	if !s.IsPlaying {
		status = "Paused"
	}

	buf.WriteString(fmt.Sprintf("%s: %s\n", status, titleStyle.Render(s.TitleOr(unknownTitle))))
	if s.Artist != "" {
		buf.WriteString(fmt.Sprintf("by %s\n", s.Artist))
	}
	buf.WriteString(mutedStyle.Render(FormatProgress(s)) + "\n")
	if s.SongURL != nil {
		buf.WriteString(linkStyle.Render(*s.SongURL) + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders s as a Markdown snippet with optional cover art.
func ExportToMarkdown(s models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	if !s.IsPlaying && s.Title == nil {
		buf.WriteString(fmt.Sprintf("_%s_\n", nothingPlaying))
		return buf.Bytes(), nil
	}

	if s.AlbumImageURL != nil {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", *s.AlbumImageURL))
	}

	title := s.TitleOr(unknownTitle)
	if s.SongURL != nil {
		title = fmt.Sprintf("[%s](%s)", title, *s.SongURL)
	}
	buf.WriteString(fmt.Sprintf("**%s**", title))

	if s.Artist != "" {
		artist := s.Artist
		if s.ArtistURL != nil {
			artist = fmt.Sprintf("[%s](%s)", artist, *s.ArtistURL)
		}
		buf.WriteString(fmt.Sprintf(" by %s", artist))
	}
	buf.WriteString(fmt.Sprintf(" `%s`\n", FormatProgress(s)))

	return buf.Bytes(), nil
}

// ExportToJSON renders the snapshot exactly as the proxy serves it, indented.
func ExportToJSON(s models.Snapshot) ([]byte, error) {
	data, err := shared.MarshalJSON(s, true)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FormatProgress renders elapsed and total time, e.g. "1:23 / 3:20".
func FormatProgress(s models.Snapshot) string {
	return fmt.Sprintf("%s / %s", shared.FormatDuration(s.TimePlayed), shared.FormatDuration(s.TimeTotal))
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteCover saves the album art of s to path.
func WriteCover(ctx context.Context, client *http.Client, s models.Snapshot, path string) error {
	if s.AlbumImageURL == nil {
		return fmt.Errorf("%w: no album image for the current track", shared.ErrInvalidInput)
	}

	imageData, err := DownloadImage(ctx, client, *s.AlbumImageURL)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, imageData, 0644); err != nil {
		return fmt.Errorf("failed to write cover image: %w", err)
	}
	return nil
}
