// package formatter renders reconciliation history and engine status for the CLI (CSV, JSON, Markdown, plain text)
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

	"github.com/desertthunder/tubetune/internal/engine"
	"github.com/desertthunder/tubetune/internal/models"
	"github.com/desertthunder/tubetune/internal/quality"
	"github.com/desertthunder/tubetune/internal/shared"
)

// Supported export formats.
const (
	FormatText     = "txt"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Formats lists every accepted format name.
func Formats() []string {
	return []string{FormatText, FormatCSV, FormatJSON, FormatMarkdown}
}

// sessionJSON is the exported shape of a [models.SessionRecord].
type sessionJSON struct {
	ID         string    `json:"id"`
	Sequence   int       `json:"sequence"`
	VideoID    string    `json:"video_id"`
	Outcome    string    `json:"outcome"`
	Quality    string    `json:"quality,omitempty"`
	Desired    string    `json:"desired"`
	Attempts   int       `json:"attempts"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Export renders records in the named format.
func Export(records []*models.SessionRecord, format string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return HistoryToText(records)
	case FormatCSV:
		return HistoryToCSV(records)
	case FormatJSON:
		return HistoryToJSON(records)
	case FormatMarkdown, "md":
		return HistoryToMarkdown(records)
	default:
		return nil, fmt.Errorf("%w: format %q (use one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats(), ", "))
	}
}

// WriteExport renders records and writes them to path.
func WriteExport(records []*models.SessionRecord, format, path string) error {
	data, err := Export(records, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// HistoryToCSV converts session records to CSV with columns: Sequence, Video, Outcome, Quality, Desired, Attempts, Started, Duration
func HistoryToCSV(records []*models.SessionRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Video", "Outcome", "Quality", "Desired", "Attempts", "Started", "DurationMs"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		record := []string{
			strconv.Itoa(r.Sequence),
			r.VideoID,
			string(r.Outcome),
			r.Quality,
			r.Desired,
			strconv.Itoa(r.Attempts),
			r.StartedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(r.Duration().Milliseconds(), 10),
		}
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

// HistoryToJSON converts session records to an indented JSON array.
func HistoryToJSON(records []*models.SessionRecord) ([]byte, error) {
	out := make([]sessionJSON, 0, len(records))
	for _, r := range records {
		out = append(out, sessionJSON{
			ID:         r.ID,
			Sequence:   r.Sequence,
			VideoID:    r.VideoID,
			Outcome:    string(r.Outcome),
			Quality:    r.Quality,
			Desired:    r.Desired,
			Attempts:   r.Attempts,
			StartedAt:  r.StartedAt.UTC(),
			FinishedAt: r.FinishedAt.UTC(),
			DurationMs: r.Duration().Milliseconds(),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}
	return append(data, '\n'), nil
}

// HistoryToMarkdown converts session records to a Markdown table.
func HistoryToMarkdown(records []*models.SessionRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Reconciliation history\n\n")
	buf.WriteString(fmt.Sprintf("**Sessions**: %d\n\n", len(records)))
	buf.WriteString("| # | Video | Outcome | Quality | Desired | Attempts | Duration |\n")
	buf.WriteString("|---|-------|---------|---------|---------|----------|----------|\n")
	for _, r := range records {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %d | %s |\n",
			r.Sequence, r.VideoID, r.Outcome, orDash(r.Quality), r.Desired, r.Attempts, r.Duration().Round(time.Millisecond)))
	}

	return buf.Bytes(), nil
}

// HistoryToText converts session records to aligned plain text.
func HistoryToText(records []*models.SessionRecord) ([]byte, error) {
	var buf bytes.Buffer

	if len(records) == 0 {
		buf.WriteString("No sessions recorded.\n")
		return buf.Bytes(), nil
	}

	buf.WriteString(fmt.Sprintf("%-5s %-12s %-9s %-8s %-8s %8s  %s\n", "#", "VIDEO", "OUTCOME", "QUALITY", "DESIRED", "ATTEMPTS", "STARTED"))
	for _, r := range records {
		buf.WriteString(fmt.Sprintf("%-5d %-12s %-9s %-8s %-8s %8d  %s\n",
			r.Sequence, r.VideoID, r.Outcome, orDash(r.Quality), r.Desired, r.Attempts, r.StartedAt.Local().Format(time.DateTime)))
	}

	return buf.Bytes(), nil
}

// OverridesToText lists manual quality changes, one per line.
func OverridesToText(events []*models.OverrideEvent) string {
	var b strings.Builder
	if len(events) == 0 {
		b.WriteString("No manual overrides recorded.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%-20s %-12s %s\n", "OBSERVED", "VIDEO", "QUALITY")
	for _, ev := range events {
		fmt.Fprintf(&b, "%-20s %-12s %s\n", ev.ObservedAt.Local().Format(time.DateTime), ev.VideoID, ev.Quality)
	}
	return b.String()
}

// SessionToText renders one session in detail.
func SessionToText(r *models.SessionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session:   #%d (%s)\n", r.Sequence, r.ID)
	fmt.Fprintf(&b, "Video:     %s\n", r.VideoID)
	fmt.Fprintf(&b, "Outcome:   %s\n", r.Outcome)
	fmt.Fprintf(&b, "Quality:   %s (wanted %s)\n", orDash(r.Quality), r.Desired)
	fmt.Fprintf(&b, "Attempts:  %d\n", r.Attempts)
	fmt.Fprintf(&b, "Started:   %s\n", r.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(&b, "Duration:  %s\n", r.Duration().Round(time.Millisecond))
	return b.String()
}

// OutcomeSummary renders per-outcome counts in a stable order.
func OutcomeSummary(counts map[models.Outcome]int) string {
	outcomes := make([]string, 0, len(counts))
	total := 0
	for o, n := range counts {
		outcomes = append(outcomes, fmt.Sprintf("%s=%d", o, n))
		total += n
	}
	sort.Strings(outcomes)
	if total == 0 {
		return "total=0"
	}
	return fmt.Sprintf("total=%d %s", total, strings.Join(outcomes, " "))
}

// StatusToText renders an engine snapshot.
func StatusToText(s engine.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Enabled:   %t\n", s.Enabled)
	fmt.Fprintf(&b, "Quality:   %s\n", s.Quality)
	fmt.Fprintf(&b, "Debug:     %t\n", s.Debug)
	fmt.Fprintf(&b, "Attempts:  every %dms, at most %d\n", s.AttemptMs, s.MaxAttempts)
	fmt.Fprintf(&b, "State:     %s\n", s.State)
	if s.VideoID != "" {
		fmt.Fprintf(&b, "Video:     %s (session %s)\n", s.VideoID, s.SessionID)
		fmt.Fprintf(&b, "Current:   %s (attempt %d, applied %t)\n", orDash(s.LastKnown), s.Attempts, s.AppliedInitial)
	}
	if len(s.Overrides) > 0 {
		ids := make([]string, 0, len(s.Overrides))
		for id := range s.Overrides {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		b.WriteString("Overrides:\n")
		for _, id := range ids {
			fmt.Fprintf(&b, "  %s -> %s\n", id, s.Overrides[id])
		}
	}
	return b.String()
}

// QualityTable renders the label, level and rank of every configurable quality.
func QualityTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %-8s %s\n", "LABEL", "LEVEL", "RANK")
	for _, label := range quality.Labels() {
		l := quality.LevelFor(label)
		fmt.Fprintf(&b, "%-8s %-8s %d\n", label, l, l.Rank())
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
