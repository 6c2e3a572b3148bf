// Package corpus defines the training corpus that document-frequency
// features are computed against.
package corpus

import (
	"context"
	"strings"
	"time"
)

// Doc is one training document. Stemmed holds the text after stemming and
// is what phrase statistics are counted over.
type Doc struct {
	ID      string
	Title   string
	Source  string
	Text    string
	Stemmed string
	AddedAt time.Time
}

// Provider supplies the training documents.
type Provider interface {
	Docs(ctx context.Context) ([]Doc, error)
}

// Store is a writable corpus.
type Store interface {
	Provider
	Close() error

	UpsertDoc(ctx context.Context, d Doc) error
	GetDoc(ctx context.Context, id string) (Doc, error)
	DeleteDoc(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Stats summarizes a corpus.
type Stats struct {
	Docs      int
	Words     int
	AvgLength float64
}

// Summarize computes corpus-level statistics.
func Summarize(docs []Doc) Stats {
	st := Stats{Docs: len(docs)}
	for _, d := range docs {
		st.Words += len(strings.Fields(d.Text))
	}
	if st.Docs > 0 {
		st.AvgLength = float64(st.Words) / float64(st.Docs)
	}
	return st
}
