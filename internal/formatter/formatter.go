// package formatter renders track lists, playlist results and run history as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
)

// Format is an output format accepted by the CLI.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common alias (txt, md).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (text, markdown, csv, json)", shared.ErrInvalidArgument, s)
}

// Extension is the file extension used when writing the format to disk.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

func year(t models.TrackRequest) string {
	if t.Year == nil {
		return ""
	}
	return strconv.Itoa(*t.Year)
}

// WatchURL returns the YouTube watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// TracksToText lists generated tracks one per line.
func TracksToText(tracks []models.TrackRequest) []byte {
	var buf bytes.Buffer
	for i, t := range tracks {
		fmt.Fprintf(&buf, "%2d. %s\n", i+1, t.String())
	}
	return buf.Bytes()
}

// TracksToCSV writes Name, Artist, Year columns.
func TracksToCSV(tracks []models.TrackRequest) ([]byte, error) {
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{t.Name, t.Artist, year(t)})
	}
	return writeCSV([]string{"Name", "Artist", "Year"}, rows)
}

// TracksToMarkdown renders tracks as a numbered list under title.
func TracksToMarkdown(title string, tracks []models.TrackRequest) []byte {
	var buf bytes.Buffer
	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	for i, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, t.String())
	}
	return buf.Bytes()
}

// RenderTracks renders a generated track list in format.
func RenderTracks(format Format, title string, tracks []models.TrackRequest) ([]byte, error) {
	switch format {
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatJSON:
		return marshalJSON(tracks)
	case FormatMarkdown:
		return TracksToMarkdown(title, tracks), nil
	default:
		return TracksToText(tracks), nil
	}
}

// ResultToCSV writes one row per input track with columns Name, Artist, Year, Status, VideoID, Reason.
// Added tracks come first.
func ResultToCSV(result *models.PlaylistResult) ([]byte, error) {
	rows := make([][]string, 0, result.Stats.Total)
	for _, t := range result.Added {
		rows = append(rows, []string{t.Name, t.Artist, year(t.TrackRequest), "added", t.VideoID, ""})
	}
	for _, t := range result.Failed {
		rows = append(rows, []string{t.Name, t.Artist, year(t.TrackRequest), "failed", "", t.Reason})
	}
	return writeCSV([]string{"Name", "Artist", "Year", "Status", "VideoID", "Reason"}, rows)
}

// ResultToMarkdown renders a playlist result with links to each added video.
func ResultToMarkdown(result *models.PlaylistResult) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", result.Title)
	fmt.Fprintf(&buf, "**Playlist**: [%s](%s)\n", result.PlaylistID, result.PlaylistURL)
	fmt.Fprintf(&buf, "**Tracks**: %d added, %d failed, %d total\n\n", result.Stats.Added, result.Stats.Failed, result.Stats.Total)

	if len(result.Added) > 0 {
		buf.WriteString("## Added\n\n")
		for i, t := range result.Added {
			fmt.Fprintf(&buf, "%d. [%s](%s)\n", i+1, t.String(), WatchURL(t.VideoID))
		}
		buf.WriteString("\n")
	}

	if len(result.Failed) > 0 {
		buf.WriteString("## Failed\n\n")
		for _, t := range result.Failed {
			fmt.Fprintf(&buf, "- %s (%s)\n", t.String(), t.Reason)
		}
		buf.WriteString("\n")
	}

	if result.Quota != nil {
		buf.WriteString("## Quota\n\n")
		buf.WriteString("| Operation | Calls | Units |\n|---|---|---|\n")
		for _, op := range quotaOps(result.Quota) {
			e := result.Quota.Operations[op]
			fmt.Fprintf(&buf, "| %s | %d | %d |\n", op, e.Calls, e.Cost)
		}
		fmt.Fprintf(&buf, "| **total** | | %d |\n", result.Quota.TotalCost)
	}

	return buf.Bytes()
}

// ResultToText renders a short plain-text summary.
func ResultToText(result *models.PlaylistResult) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", result.Title)
	fmt.Fprintf(&buf, "URL: %s\n", result.PlaylistURL)
	fmt.Fprintf(&buf, "Added: %d/%d\n", result.Stats.Added, result.Stats.Total)

	if len(result.Failed) > 0 {
		fmt.Fprintf(&buf, "\nFailed (%d):\n", len(result.Failed))
		for _, t := range result.Failed {
			fmt.Fprintf(&buf, "  ✗ %s [%s]\n", t.String(), t.Reason)
		}
	}
	if result.Quota != nil {
		fmt.Fprintf(&buf, "\nQuota used: %d units\n", result.Quota.TotalCost)
	}

	return buf.Bytes()
}

// RenderResult renders a playlist result in format.
func RenderResult(format Format, result *models.PlaylistResult) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ResultToCSV(result)
	case FormatJSON:
		return marshalJSON(result)
	case FormatMarkdown:
		return ResultToMarkdown(result), nil
	default:
		return ResultToText(result), nil
	}
}

// RunsToText renders run history as aligned columns, newest first as given.
func RunsToText(runs []*models.Run) []byte {
	var buf bytes.Buffer
	if len(runs) == 0 {
		buf.WriteString("No playlists created yet.\n")
		return buf.Bytes()
	}
	for _, r := range runs {
		fmt.Fprintf(&buf, "%s  %-30s  %2d/%-2d  %s\n", r.CreatedAt.Format("2006-01-02 15:04"), truncate(r.Title, 30), r.Added, r.Total, r.URL())
	}
	return buf.Bytes()
}

// RunsToCSV writes one row per run.
func RunsToCSV(runs []*models.Run) ([]byte, error) {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Format(time.RFC3339),
			r.UserEmail,
			r.Title,
			r.PlaylistID,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Added),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.QuotaCost),
		})
	}
	return writeCSV([]string{"ID", "Created", "User", "Title", "PlaylistID", "Total", "Added", "Failed", "QuotaCost"}, rows)
}

// RenderRuns renders run history in format. Markdown falls back to a table.
func RenderRuns(format Format, runs []*models.Run) ([]byte, error) {
	switch format {
	case FormatCSV:
		return RunsToCSV(runs)
	case FormatJSON:
		if runs == nil {
			runs = []*models.Run{}
		}
		return marshalJSON(runs)
	case FormatMarkdown:
		var buf bytes.Buffer
		buf.WriteString("| Created | Title | Added | Playlist |\n|---|---|---|---|\n")
		for _, r := range runs {
			fmt.Fprintf(&buf, "| %s | %s | %d/%d | [%s](%s) |\n", r.CreatedAt.Format("2006-01-02"), r.Title, r.Added, r.Total, r.PlaylistID, r.URL())
		}
		return buf.Bytes(), nil
	default:
		return RunsToText(runs), nil
	}
}

// WriteFile writes rendered output to path, adding the format's extension when path has none.
func WriteFile(path string, format Format, data []byte) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}
	if !strings.Contains(path[strings.LastIndex(path, "/")+1:], ".") {
		path += format.Extension()
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

var opOrder = map[string]int{"search": 0, "videos.list": 1, "playlists.insert": 2, "playlistItems.insert": 3}

// quotaOps returns the operations in call order; unknown operations sort last by name.
func quotaOps(q *models.QuotaSummary) []string {
	ops := make([]string, 0, len(q.Operations))
	for op := range q.Operations {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		ri, iok := opOrder[ops[i]]
		rj, jok := opOrder[ops[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return ops[i] < ops[j]
		}
	})
	return ops
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
