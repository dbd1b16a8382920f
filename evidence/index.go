package evidence

import (
	"context"
	"fmt"

	"github.com/blugelabs/bluge"

	"github.com/linesmerrill/court-session-api/models"
)

const (
	contentField = "content"
	sourceField  = "source"
)

// Index is the full-text index over evidence chunks
type Index struct {
	writer *bluge.Writer
}

// OpenIndex opens an on-disk index at path, or an in-memory one when path is
// empty.
func OpenIndex(path string) (*Index, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if path != "" {
		cfg = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("open evidence index: %w", err)
	}
	return &Index{writer: writer}, nil
}

func chunkID(label string, i int) string {
	return fmt.Sprintf("%s#%d", label, i)
}

// Add indexes chunks under label, replacing any earlier chunks with the same ids
func (x *Index) Add(label string, chunks []string) error {
	batch := bluge.NewBatch()
	for i, c := range chunks {
		doc := bluge.NewDocument(chunkID(label, i)).
			AddField(bluge.NewTextField(contentField, c).StoreValue()).
			AddField(bluge.NewKeywordField(sourceField, label).StoreValue())
		batch.Update(doc.ID(), doc)
	}
	if err := x.writer.Batch(batch); err != nil {
		return fmt.Errorf("index %s: %w", label, err)
	}
	return nil
}

// Remove deletes the first count chunks indexed under label
func (x *Index) Remove(label string, count int) error {
	batch := bluge.NewBatch()
	for i := 0; i < count; i++ {
		batch.Delete(bluge.Identifier(chunkID(label, i)))
	}
	if err := x.writer.Batch(batch); err != nil {
		return fmt.Errorf("unindex %s: %w", label, err)
	}
	return nil
}

// Search returns the k chunks that best match query, best first
func (x *Index) Search(ctx context.Context, query string, k int) ([]models.EvidenceResult, error) {
	reader, err := x.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer reader.Close()

	req := bluge.NewTopNSearch(k, bluge.NewMatchQuery(query).SetField(contentField))
	matches, err := reader.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search evidence: %w", err)
	}

	var results []models.EvidenceResult
	match, err := matches.Next()
	for err == nil && match != nil {
		r := models.EvidenceResult{RelevanceScore: match.Score}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case contentField:
				r.Content = string(value)
			case sourceField:
				r.SourceLabel = string(value)
			}
			return true
		})
		if err != nil {
			break
		}
		results = append(results, r)
		match, err = matches.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("read evidence matches: %w", err)
	}
	return results, nil
}

// Close releases the index
func (x *Index) Close() error {
	return x.writer.Close()
}
