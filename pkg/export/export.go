// Package export persists run outputs: the collected link list as TSV,
// per-item records as incrementally flushed CSV, and a final JSON
// result document.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"igharvest/pkg/config"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
)

// Exporter writes run outputs under a per-profile directory.
type Exporter struct {
	dir    string
	cfg    *config.OutputConfig
	logger logger.Logger
}

// NewExporter creates the profile output directory and returns an
// exporter rooted there.
func NewExporter(cfg *config.Config, username string, log logger.Logger) (*Exporter, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	dir := filepath.Join(cfg.Output.BaseDirectory, username)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Exporter{dir: dir, cfg: &cfg.Output, logger: log}, nil
}

// Dir returns the output directory.
func (e *Exporter) Dir() string { return e.dir }

// WriteLinks writes the collected links as tab-separated url/kind pairs.
// The file is rewritten whole; link collection finishes before any
// record exists, so there is nothing to append to.
func (e *Exporter) WriteLinks(links []models.ContentLink) error {
	path := filepath.Join(e.dir, e.cfg.LinksFile)
	var b strings.Builder
	for _, link := range links {
		b.WriteString(link.URL)
		b.WriteByte('\t')
		b.WriteString(string(link.Kind))
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write links file: %w", err)
	}
	e.logger.InfoWithFields("links written", map[string]interface{}{
		"path":  path,
		"count": len(links),
	})
	return nil
}

// WriteResults writes the final JSON document atomically.
func (e *Exporter) WriteResults(results interface{}) error {
	path := filepath.Join(e.dir, e.cfg.ResultsFile)
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize results: %w", err)
	}
	return nil
}

// timeRounding keeps elapsed durations readable in the CSV.
const timeRounding = 10 * time.Millisecond

// recordHeader is the CSV column layout for content records.
var recordHeader = []string{"url", "kind", "tagged_accounts", "likes", "timestamp", "scraped_at", "elapsed"}

// RecordsWriter appends content records to the CSV file, flushing after
// every row so a crash mid-run loses at most the row in flight.
type RecordsWriter struct {
	file *os.File
	csv  *csv.Writer
}

// OpenRecords opens the records CSV. A fresh run truncates the file and
// writes the header; a resumed run appends, so the rows streamed by the
// interrupted run stay in place.
func (e *Exporter) OpenRecords(resume bool) (*RecordsWriter, error) {
	path := filepath.Join(e.dir, e.cfg.RecordsFile)

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	writeHeader := true
	if resume {
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
			writeHeader = false
		}
	}

	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create records file: %w", err)
	}
	w := &RecordsWriter{file: file, csv: csv.NewWriter(file)}
	if writeHeader {
		if err := w.csv.Write(recordHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write records header: %w", err)
		}
		w.csv.Flush()
	}
	return w, w.csv.Error()
}

// Append writes one record row and flushes it to disk.
func (w *RecordsWriter) Append(r models.ContentRecord) error {
	row := []string{
		r.URL,
		string(r.Kind),
		strings.Join(r.TaggedAccounts, ", "),
		r.Likes.String(),
		r.Timestamp,
		r.ScrapedAt.Format("2006-01-02 15:04:05"),
		r.Elapsed.Round(timeRounding).String(),
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write record row: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes and closes the underlying file.
func (w *RecordsWriter) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
