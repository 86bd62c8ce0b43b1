package manifest

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// document is the decoded form of a manifest source.
type document struct {
	Vars      map[string]any `yaml:"vars"`
	Fragments yaml.MapSlice  `yaml:"fragments"`
}

// documentCache stores decoded documents keyed by the xxh3 hash of their
// source. Cached documents are never modified.
//
//nolint:gochecknoglobals
var documentCache sync.Map

// decodeCached reads r and returns its decoded document and content hash.
func decodeCached(ctx context.Context, r io.Reader) (*document, uint64, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, 0, ErrReadInput.Wrap(err)
	}

	hash := xxh3.Hash(data)

	if cached, ok := documentCache.Load(hash); ok {
		doc, _ := cached.(*document)

		return doc, hash, nil
	}

	var doc document

	if err := yaml.UnmarshalContext(ctx, data, &doc); err != nil {
		return nil, 0, ErrDecode.Wrap(err).With(
			slog.Int("source_length", len(data)),
		)
	}

	documentCache.Store(hash, &doc)

	return &doc, hash, nil
}
