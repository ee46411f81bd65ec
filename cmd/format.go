package cmd

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/mattn/go-runewidth"

	"github.com/earshot-fm/earshot/internal/store"
	"github.com/earshot-fm/earshot/pkg/scrobbled"
)

// Line is the template context for one printed scrobble.
type Line struct {
	Username string
	Artist   string
	Track    string
	Album    string
	Active   bool // currently playing (scrobble without an end time)
}

// buildLine resolves a scrobble against the entity cache. Metadata that has
// not been fetched yet degrades to the raw track id rather than erroring.
func buildLine(st *store.Store, username string, scrobble scrobbled.Scrobble) Line {
	line := Line{
		Username: username,
		Track:    scrobble.TrackID,
		Active:   scrobble.Active(),
	}

	track, ok := st.TrackByID(scrobble.TrackID)
	if !ok {
		return line
	}
	line.Track = track.Name

	if album, ok := st.AlbumByID(track.AlbumID); ok {
		line.Album = album.Name
	}

	names := make([]string, 0, len(track.Artists))
	for _, id := range track.Artists {
		if artist, ok := st.ArtistByID(id); ok {
			names = append(names, artist.Name)
		}
	}
	line.Artist = strings.Join(names, ", ")

	return line
}

// formatLine applies the configured template to the line data
func formatLine(line Line, templateStr string) (string, error) {
	tmpl, err := template.New("output").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, line); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// padToWidth pads or truncates text to a fixed display width.
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
// If text is shorter than width, pads with spaces.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	currentWidth := runewidth.StringWidth(text)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			return runewidth.Truncate(ellipsis, width, "")
		}

		truncated := runewidth.Truncate(text, width-ellipsisWidth, "")
		result := truncated + ellipsis

		// Truncate counts columns, not runes, so re-check the final width
		resultWidth := runewidth.StringWidth(result)
		if resultWidth < width {
			return result + strings.Repeat(" ", width-resultWidth)
		} else if resultWidth > width {
			return runewidth.Truncate(result, width, "")
		}
		return result
	} else if currentWidth < width {
		return text + strings.Repeat(" ", width-currentWidth)
	}

	return text
}
