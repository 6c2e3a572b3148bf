// Package docs reads input documents for the CLI: JSONL batches and single
// text or HTML files.
package docs

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cognicore/rankup/internal/htmltext"
)

// maxLine bounds one JSONL record.
const maxLine = 16 << 20

// Document is one input record.
type Document struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Text        string    `json:"text"`
}

// Body returns the plain text of the document: markup stripped, with the
// title as the first sentence when it is not already part of the text.
func (d Document) Body() string {
	body := htmltext.Extract(d.Text)
	title := htmltext.Extract(d.Title)
	if title == "" || strings.HasPrefix(body, title) {
		return body
	}
	if !strings.ContainsAny(title[len(title)-1:], ".!?") {
		title += "."
	}
	return title + " " + body
}

// LoadJSONL loads documents from a JSONL file. Malformed lines are logged
// and skipped; a file without any valid record is an error.
func LoadJSONL(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ReadJSONL(f, filepath.Base(path))
}

// ReadJSONL reads JSONL records from r. name prefixes generated IDs.
func ReadJSONL(r io.Reader, name string) ([]Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var out []Document
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var d Document
		if err := json.Unmarshal([]byte(text), &d); err != nil {
			slog.Warn("skipping malformed record", "file", name, "line", line, "error", err)
			continue
		}
		if d.ID == "" {
			d.ID = d.URL
		}
		if d.ID == "" {
			d.ID = fmt.Sprintf("%s:%d", name, line)
		}
		out = append(out, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no valid records found in %s", name)
	}
	return out, nil
}

// LoadFile reads a single text or HTML file as one document named after
// the file.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read file %s: %w", path, err)
	}
	text := string(data)
	d := Document{ID: filepath.Base(path), Source: path, Text: text}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		d.Title = htmltext.Title(text)
	}
	return d, nil
}
