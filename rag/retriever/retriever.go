// Package retriever builds passage indexes and answers nearest-neighbor
// queries over them.
package retriever

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/sweetpotato0/carequery/errors"
	"github.com/sweetpotato0/carequery/pkg/logging"
	"github.com/sweetpotato0/carequery/rag/chunking"
	"github.com/sweetpotato0/carequery/rag/document"
	"github.com/sweetpotato0/carequery/rag/loader"
	"github.com/sweetpotato0/carequery/vector"
)

const (
	vectorsFile  = "vectors.gob"
	passagesFile = "passages.gob"
)

// DefaultTopK is how many passages a retrieval returns when the caller does
// not ask for a specific count.
const DefaultTopK = 5

// Index is a similarity-search structure over a document's passages. It is
// built in one shot by an Indexer and immutable afterwards; re-ingesting
// builds a new Index rather than updating this one.
type Index struct {
	store    vector.Store
	embedder vector.Embedder

	mu       sync.RWMutex
	passages map[string]document.Passage
}

// Retrieve embeds the question with the same embedder used at indexing time
// and returns the k nearest passages, nearest first.
func (ix *Index) Retrieve(ctx context.Context, question string, k int) ([]document.Passage, error) {
	if ix == nil {
		return nil, fmt.Errorf("no document indexed: %w", errors.ErrNotInitialized)
	}
	ix.mu.RLock()
	empty := len(ix.passages) == 0
	ix.mu.RUnlock()
	if empty {
		return nil, fmt.Errorf("no document indexed: %w", errors.ErrNotInitialized)
	}
	if k <= 0 {
		k = DefaultTopK
	}

	queryVec, err := ix.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := ix.store.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]document.Passage, 0, len(hits))
	for _, hit := range hits {
		if p, ok := ix.passages[hit.ID]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Count returns the number of indexed passages.
func (ix *Index) Count() int {
	if ix == nil {
		return 0
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.passages)
}

// Save snapshots the index into dir. Requires the underlying vector store to
// support persistence.
func (ix *Index) Save(dir string) error {
	ps, ok := ix.store.(vector.PersistentStore)
	if !ok {
		return fmt.Errorf("vector store does not support persistence")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := ps.Save(filepath.Join(dir, vectorsFile)); err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}

	ix.mu.RLock()
	passages := make([]document.Passage, 0, len(ix.passages))
	for _, p := range ix.passages {
		passages = append(passages, p)
	}
	ix.mu.RUnlock()

	f, err := os.Create(filepath.Join(dir, passagesFile))
	if err != nil {
		return fmt.Errorf("create passages file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(passages); err != nil {
		return fmt.Errorf("encode passages: %w", err)
	}
	return nil
}

// Indexer chains document loading, splitting, embedding and index
// construction. Each step is also usable on its own.
type Indexer struct {
	loader   *loader.PDFLoader
	splitter *chunking.Splitter
	embedder vector.Embedder
	newStore func() vector.Store
	logger   *slog.Logger
}

// NewIndexer creates an indexer. newStore is invoked once per build so every
// ingest starts from an empty similarity structure.
func NewIndexer(emb vector.Embedder, newStore func() vector.Store, opts ...chunking.Option) *Indexer {
	return &Indexer{
		loader:   loader.NewPDFLoader(),
		splitter: chunking.NewSplitter(opts...),
		embedder: emb,
		newStore: newStore,
		logger:   logging.WithComponent("indexer"),
	}
}

// ProcessDocument runs the full load -> split -> index chain over one or
// more files and returns a fresh Index over all their passages.
func (in *Indexer) ProcessDocument(ctx context.Context, paths ...string) (*Index, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no document paths: %w", errors.ErrInvalidInput)
	}
	var passages []document.Passage
	for _, path := range paths {
		pages, err := in.loader.Load(path)
		if err != nil {
			return nil, err
		}
		source := filepath.Base(path)
		split := in.splitter.Split(source, path, pages)
		in.logger.Info("document split", "source", source, "pages", len(pages), "passages", len(split))
		passages = append(passages, split...)
	}
	return in.BuildIndex(ctx, passages)
}

// BuildIndex embeds the passages and builds a similarity-search structure
// over them.
func (in *Indexer) BuildIndex(ctx context.Context, passages []document.Passage) (*Index, error) {
	if len(passages) == 0 {
		return nil, fmt.Errorf("no passages to index: %w", errors.ErrInvalidInput)
	}

	store := in.newStore()
	byID := make(map[string]document.Passage, len(passages))

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}
	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(passages) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(passages), len(vectors))
	}

	for i, p := range passages {
		emb := &vector.Embedding{
			ID:     p.ID,
			Vector: vectors[i],
			Text:   p.Content,
		}
		if err := store.AddEmbedding(ctx, emb); err != nil {
			return nil, fmt.Errorf("store passage %s: %w", p.ID, err)
		}
		byID[p.ID] = p
	}

	in.logger.Info("index built", "passages", len(passages))
	return &Index{
		store:    store,
		embedder: in.embedder,
		passages: byID,
	}, nil
}

// LoadIndex restores an index previously written by Index.Save. The embedder
// must be the same one used at indexing time; mixing embedders silently
// degrades relevance.
func (in *Indexer) LoadIndex(dir string) (*Index, error) {
	store := in.newStore()
	ps, ok := store.(vector.PersistentStore)
	if !ok {
		return nil, fmt.Errorf("vector store does not support persistence")
	}
	if err := ps.Load(filepath.Join(dir, vectorsFile)); err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	f, err := os.Open(filepath.Join(dir, passagesFile))
	if err != nil {
		return nil, fmt.Errorf("open passages file: %w", err)
	}
	defer f.Close()

	var passages []document.Passage
	if err := gob.NewDecoder(f).Decode(&passages); err != nil {
		return nil, fmt.Errorf("decode passages: %w", err)
	}

	byID := make(map[string]document.Passage, len(passages))
	for _, p := range passages {
		byID[p.ID] = p
	}
	in.logger.Info("index loaded", "dir", dir, "passages", len(byID))
	return &Index{
		store:    store,
		embedder: in.embedder,
		passages: byID,
	}, nil
}
