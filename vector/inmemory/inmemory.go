// Package inmemory provides an exact nearest-neighbor vector store held in
// process memory, with optional gob snapshots for persistence.
package inmemory

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/sweetpotato0/carequery/vector"
)

// Store implements vector.PersistentStore using in-memory storage
type Store struct {
	embeddings map[string]*vector.Embedding
	mu         sync.RWMutex
}

// New creates a new in-memory vector store
func New() *Store {
	return &Store{
		embeddings: make(map[string]*vector.Embedding),
	}
}

// AddEmbedding adds a new embedding to the store
func (s *Store) AddEmbedding(ctx context.Context, embedding *vector.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if embedding == nil {
		return fmt.Errorf("embedding cannot be nil")
	}
	if embedding.ID == "" {
		return fmt.Errorf("embedding ID cannot be empty")
	}
	if len(embedding.Vector) == 0 {
		return fmt.Errorf("embedding vector cannot be empty")
	}

	s.embeddings[embedding.ID] = embedding
	return nil
}

// Search finds embeddings similar to the query vector, nearest first. Ties
// are broken by ID so rankings are stable across processes.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]*vector.Embedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	type result struct {
		embedding  *vector.Embedding
		similarity float32
	}

	results := make([]result, 0, len(s.embeddings))
	for _, emb := range s.embeddings {
		if len(emb.Vector) != len(queryVector) {
			continue
		}
		results = append(results, result{
			embedding:  emb,
			similarity: vector.CosineSimilarity(queryVector, emb.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].similarity != results[j].similarity {
			return results[i].similarity > results[j].similarity
		}
		return results[i].embedding.ID < results[j].embedding.ID
	})

	limit := topK
	if limit > len(results) {
		limit = len(results)
	}

	embeddings := make([]*vector.Embedding, limit)
	for i := 0; i < limit; i++ {
		embeddings[i] = results[i].embedding
	}
	return embeddings, nil
}

// Clear removes all embeddings
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.embeddings = make(map[string]*vector.Embedding)
	return nil
}

// Count returns the number of embeddings
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.embeddings), nil
}

// snapshot is the on-disk representation of the store.
type snapshot struct {
	Embeddings []vector.Embedding
}

// Save writes a gob snapshot of all embeddings to path.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	snap := snapshot{Embeddings: make([]vector.Embedding, 0, len(s.embeddings))}
	for _, emb := range s.embeddings {
		snap.Embeddings = append(snap.Embeddings, *emb)
	}
	s.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

// Load replaces the store contents with a previously saved snapshot.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	embeddings := make(map[string]*vector.Embedding, len(snap.Embeddings))
	for i := range snap.Embeddings {
		emb := snap.Embeddings[i]
		embeddings[emb.ID] = &emb
	}

	s.mu.Lock()
	s.embeddings = embeddings
	s.mu.Unlock()
	return nil
}
