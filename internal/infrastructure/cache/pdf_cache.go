// Package cache holds the filesystem-backed cache for rendered invoice
// PDFs. Documents are immutable once issued, so entries never expire; the
// directory can be wiped at any time without consequence.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// PDFCache stores invoice PDFs on disk, keyed by invoice number. Keys are
// sanitized to a filesystem-safe form, so "INV-2024/42" and "INV-2024_42"
// share an entry; invoice numbers differing only in punctuation do not
// occur within one provider account.
type PDFCache struct {
	dir string
	mu  sync.RWMutex
}

// NewPDFCache creates the cache directory if needed.
func NewPDFCache(dir string) (*PDFCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return &PDFCache{dir: dir}, nil
}

func (c *PDFCache) path(invoiceNumber string) string {
	return filepath.Join(c.dir, unsafeKeyChars.ReplaceAllString(invoiceNumber, "_")+".pdf")
}

// Get returns the cached PDF for an invoice number, if present.
func (c *PDFCache) Get(invoiceNumber string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.path(invoiceNumber))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores a PDF. The write goes through a temp file and rename so a
// crashed writer never leaves a truncated entry behind.
func (c *PDFCache) Put(invoiceNumber string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.path(invoiceNumber)
	tmp, err := os.CreateTemp(c.dir, "pdf-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}
