// Package evidence stores uploaded case documents and searches their text.
package evidence

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/models"
	"github.com/linesmerrill/court-session-api/registry"
)

// MaxUploadSize is the largest evidence file accepted
const MaxUploadSize = 20 << 20

// Service is the evidence manager: uploads are stored whole and, when text can
// be extracted, chunked into the search index.
type Service struct {
	store      *Store
	index      *Index
	extractors []Extractor
	now        func() time.Time
}

// NewService creates an evidence manager. PlainText is always tried last.
func NewService(store *Store, index *Index, extractors ...Extractor) *Service {
	return &Service{
		store:      store,
		index:      index,
		extractors: append(extractors, PlainText{}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CleanLabel reduces an uploaded filename to the label it is stored under
func CleanLabel(filename string) (string, error) {
	label := strings.TrimSpace(filepath.Base(strings.ReplaceAll(filename, "\\", "/")))
	if label == "" || label == "." || label == "/" || len(label) > 255 {
		return "", fmt.Errorf("%w: invalid filename %q", registry.ErrValidation, filename)
	}
	return label, nil
}

func (s *Service) extractor(mimeType string) Extractor {
	for _, e := range s.extractors {
		if e.Supports(mimeType) {
			return e
		}
	}
	return nil
}

// Add stores an upload under its filename. Files without an extractor are
// kept but not searchable. Re-uploading a label replaces it.
func (s *Service) Add(ctx context.Context, filename string, data []byte) (models.EvidenceFile, error) {
	label, err := CleanLabel(filename)
	if err != nil {
		return models.EvidenceFile{}, err
	}
	if len(data) == 0 {
		return models.EvidenceFile{}, fmt.Errorf("%w: %s is empty", registry.ErrValidation, label)
	}
	if len(data) > MaxUploadSize {
		return models.EvidenceFile{}, fmt.Errorf("%w: %s exceeds %d bytes", registry.ErrValidation, label, MaxUploadSize)
	}

	if previous, err := s.store.Meta(label); err == nil {
		if err := s.index.Remove(label, previous.Chunks); err != nil {
			return models.EvidenceFile{}, err
		}
	}

	file := models.EvidenceFile{
		Label:      label,
		MimeType:   mimetype.Detect(data).String(),
		Size:       len(data),
		UploadedAt: s.now(),
	}

	if ext := s.extractor(file.MimeType); ext != nil {
		text, err := ext.Extract(file.MimeType, data)
		if err != nil {
			zap.S().Warnw("evidence text extraction failed", "filename", label, "mime_type", file.MimeType, "error", err)
		} else {
			chunks := Chunk(text, ChunkSize, ChunkOverlap)
			if err := s.index.Add(label, chunks); err != nil {
				return models.EvidenceFile{}, err
			}
			file.Chunks = len(chunks)
			file.Searchable = len(chunks) > 0
		}
	}

	if err := s.store.Put(file, data); err != nil {
		_ = s.index.Remove(label, file.Chunks)
		return models.EvidenceFile{}, fmt.Errorf("store %s: %w", label, err)
	}
	zap.S().Infow("evidence added",
		"filename", label,
		"mime_type", file.MimeType,
		"size", file.Size,
		"chunks", file.Chunks)
	return file, nil
}

// List returns every stored evidence file
func (s *Service) List() ([]models.EvidenceFile, error) {
	return s.store.List()
}

// Get returns an evidence file and its contents
func (s *Service) Get(label string) (models.EvidenceFile, []byte, error) {
	return s.store.Get(label)
}

// Delete removes an evidence file and its indexed chunks
func (s *Service) Delete(label string) error {
	file, err := s.store.Meta(label)
	if err != nil {
		return err
	}
	if err := s.index.Remove(label, file.Chunks); err != nil {
		return err
	}
	if err := s.store.Delete(label); err != nil {
		return err
	}
	zap.S().Infow("evidence deleted", "filename", label)
	return nil
}

// Search returns the k most relevant evidence passages for query
func (s *Service) Search(ctx context.Context, query string, k int) ([]models.EvidenceResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", registry.ErrValidation)
	}
	if k <= 0 {
		k = 3
	}
	return s.index.Search(ctx, query, k)
}

// Close releases the index and the store
func (s *Service) Close() error {
	ierr := s.index.Close()
	serr := s.store.Close()
	if ierr != nil {
		return ierr
	}
	return serr
}
