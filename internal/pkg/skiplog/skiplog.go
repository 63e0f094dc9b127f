// Package skiplog appends failure records as JSON lines to a rotated file.
package skiplog

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/logging"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

type Writer struct {
	mu  sync.Mutex
	out io.Writer
	enc *json.Encoder
}

// Open returns a writer over a size-rotated file, or nil when no file is configured.
func Open(cfg config.FileLogConfig) *Writer {
	if cfg.File == "" {
		return nil
	}
	return New(logging.NewRotatingWriter(cfg))
}

func New(out io.Writer) *Writer {
	return &Writer{out: out, enc: json.NewEncoder(out)}
}

// Write appends one line per record. A nil writer discards.
func (w *Writer) Write(records []models.FailureRecord) error {
	if w == nil || len(records) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range records {
		if err := w.enc.Encode(&records[i]); err != nil {
			return fmt.Errorf("failed to write skip record: %w", err)
		}
	}
	return nil
}

func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	if c, ok := w.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
