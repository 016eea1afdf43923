// Package pipeline orchestrates a question through one of the retrieval
// backends and the answer synthesizer, converting every backend failure
// into a user-facing result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/carequery/answer"
	cqerrors "github.com/sweetpotato0/carequery/errors"
	"github.com/sweetpotato0/carequery/evidence"
	"github.com/sweetpotato0/carequery/pkg/logging"
	"github.com/sweetpotato0/carequery/pkg/telemetry"
	"github.com/sweetpotato0/carequery/rag/retriever"
	"github.com/sweetpotato0/carequery/sqlgen"
	"github.com/sweetpotato0/carequery/store"
	"github.com/sweetpotato0/carequery/websearch"
)

// Mode selects the retrieval backend for a request. Dispatch is fixed by
// the caller's choice; there is no fallback between modes.
type Mode int

const (
	ModeStructured Mode = iota
	ModeDocument
	ModeWeb
	ModeWebMedical
)

// String returns the mode name for logs and spans.
func (m Mode) String() string {
	switch m {
	case ModeStructured:
		return "structured"
	case ModeDocument:
		return "document"
	case ModeWeb:
		return "web"
	case ModeWebMedical:
		return "web_medical"
	default:
		return "unknown"
	}
}

// Result is what every request returns. Answer always holds a user-facing
// string; Diagnostics carries the underlying cause when the answer reports
// a failure.
type Result struct {
	Answer      string
	Evidence    evidence.Evidence
	Diagnostics string
}

// Session wires the backends together and holds the only cross-request
// state: the cached schema description and the current document index.
type Session struct {
	store       store.Store
	translator  *sqlgen.Translator
	synthesizer *answer.Synthesizer
	searcher    websearch.Searcher
	indexer     *retriever.Indexer

	tracer trace.Tracer
	logger *slog.Logger

	schemaMu sync.Mutex
	schema   string

	// Index rebuilds happen off to the side and swap in atomically, so
	// concurrent document queries never observe a half-built index.
	index atomic.Pointer[retriever.Index]
	// Serializes rebuilds, not queries.
	rebuildMu sync.Mutex
}

// NewSession builds a Session. Any dependency a deployment does not use may
// be nil; requests needing it then report a configuration problem.
func NewSession(st store.Store, tr *sqlgen.Translator, syn *answer.Synthesizer, searcher websearch.Searcher, indexer *retriever.Indexer) *Session {
	return &Session{
		store:       st,
		translator:  tr,
		synthesizer: syn,
		searcher:    searcher,
		indexer:     indexer,
		tracer:      otel.Tracer("carequery/pipeline"),
		logger:      logging.WithComponent("pipeline"),
	}
}

// Ask dispatches question to the backend selected by mode.
func (s *Session) Ask(ctx context.Context, mode Mode, question string) Result {
	switch mode {
	case ModeStructured:
		return s.HandleStructuredQuery(ctx, question)
	case ModeDocument:
		return s.HandleDocumentQuery(ctx, question)
	case ModeWeb:
		return s.HandleWebQuery(ctx, question, false)
	case ModeWebMedical:
		return s.HandleWebQuery(ctx, question, true)
	default:
		return Result{
			Answer:      "Unknown query mode.",
			Diagnostics: fmt.Sprintf("unsupported mode %d", mode),
		}
	}
}

// HandleStructuredQuery answers question from the relational store:
// translate to SQL, execute, synthesize over the rows.
func (s *Session) HandleStructuredQuery(ctx context.Context, question string) Result {
	ctx, span := s.tracer.Start(ctx, "pipeline.structured_query",
		trace.WithAttributes(attribute.String("pipeline.mode", ModeStructured.String())))
	var reqErr error
	defer func() { telemetry.End(span, reqErr) }()

	if s.store == nil || s.translator == nil {
		reqErr = fmt.Errorf("structured backend not configured: %w", cqerrors.ErrNotInitialized)
		return s.failure("The patient database is not configured.", reqErr)
	}

	schema, err := s.SchemaDescription(ctx)
	if err != nil {
		reqErr = err
		return s.failure("Could not inspect the patient database schema.", err)
	}

	query, err := s.translator.Translate(ctx, question, schema)
	if err != nil {
		reqErr = err
		return s.failure("Could not translate the question into a database query.", err)
	}
	span.SetAttributes(attribute.String("pipeline.sql", query))

	rs, err := s.store.Execute(ctx, query)
	if err != nil {
		reqErr = err
		return s.failure("There was a problem executing the generated query.", err)
	}

	ev := evidence.FromRows(rs)
	if ev.Empty() {
		// A valid answer path, not a failure. Skips the model call.
		return Result{
			Answer:   "No matching records found in the database.",
			Evidence: ev,
		}
	}
	res, err := s.synthesize(ctx, question, ev)
	reqErr = err
	return res
}

// HandleDocumentQuery answers question from the indexed document corpus.
func (s *Session) HandleDocumentQuery(ctx context.Context, question string) Result {
	ctx, span := s.tracer.Start(ctx, "pipeline.document_query",
		trace.WithAttributes(attribute.String("pipeline.mode", ModeDocument.String())))
	var reqErr error
	defer func() { telemetry.End(span, reqErr) }()

	index := s.index.Load()
	if index == nil {
		reqErr = cqerrors.ErrNotInitialized
		return Result{
			Answer:      "Please upload and process a document first.",
			Diagnostics: cqerrors.ErrNotInitialized.Error(),
		}
	}

	passages, err := index.Retrieve(ctx, question, retriever.DefaultTopK)
	if err != nil {
		reqErr = err
		if errors.Is(err, cqerrors.ErrNotInitialized) {
			return Result{
				Answer:      "Please upload and process a document first.",
				Diagnostics: err.Error(),
			}
		}
		return s.failure("There was a problem searching the document index.", err)
	}

	ev := evidence.FromPassages(passages)
	if ev.Empty() {
		return Result{
			Answer:   "No relevant passages found in the indexed documents.",
			Evidence: ev,
		}
	}
	res, err := s.synthesize(ctx, question, ev)
	reqErr = err
	return res
}

// HandleWebQuery answers question from web search. When restricted is set,
// results are limited to the trusted medical domains; providers without
// native filtering approximate this with site: query qualifiers.
func (s *Session) HandleWebQuery(ctx context.Context, question string, restricted bool) Result {
	mode := ModeWeb
	if restricted {
		mode = ModeWebMedical
	}
	ctx, span := s.tracer.Start(ctx, "pipeline.web_query",
		trace.WithAttributes(attribute.String("pipeline.mode", mode.String())))
	var reqErr error
	defer func() { telemetry.End(span, reqErr) }()

	if s.searcher == nil {
		reqErr = fmt.Errorf("web backend not configured: %w", cqerrors.ErrNotInitialized)
		return s.failure("Web search is not configured.", reqErr)
	}

	var snippets []websearch.Snippet
	if restricted {
		// Provider failures surface as a diagnostic snippet, never an error.
		snippets = websearch.MedicalSearch(ctx, s.searcher, question, nil)
	} else {
		var err error
		snippets, err = s.searcher.Search(ctx, question, websearch.DefaultMaxResults)
		if err != nil {
			snippets = []websearch.Snippet{{
				Title:   "Search error",
				Content: fmt.Sprintf("Search error: %v", err),
			}}
		}
	}

	ev := evidence.FromSnippets(snippets)
	if ev.Empty() {
		return Result{
			Answer:   "No search results found for this question.",
			Evidence: ev,
		}
	}
	res, err := s.synthesize(ctx, question, ev)
	reqErr = err
	return res
}

// InitializeDocumentIndex chunks, embeds, and indexes the documents at the
// given paths, then swaps the new index in. Re-processing replaces the
// previous corpus.
func (s *Session) InitializeDocumentIndex(ctx context.Context, paths ...string) error {
	ctx, span := s.tracer.Start(ctx, "pipeline.initialize_index")
	var err error
	defer func() { telemetry.End(span, err) }()

	if s.indexer == nil {
		err = fmt.Errorf("document backend not configured: %w", cqerrors.ErrNotInitialized)
		return err
	}

	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	index, err := s.indexer.ProcessDocument(ctx, paths...)
	if err != nil {
		return err
	}
	s.index.Store(index)
	s.logger.Info("document index ready", "passages", index.Count())
	return nil
}

// LoadDocumentIndex restores a previously saved index from dir and swaps
// it in.
func (s *Session) LoadDocumentIndex(dir string) error {
	if s.indexer == nil {
		return fmt.Errorf("document backend not configured: %w", cqerrors.ErrNotInitialized)
	}
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	index, err := s.indexer.LoadIndex(dir)
	if err != nil {
		return err
	}
	s.index.Store(index)
	return nil
}

// SaveDocumentIndex persists the current index to dir.
func (s *Session) SaveDocumentIndex(dir string) error {
	index := s.index.Load()
	if index == nil {
		return fmt.Errorf("no document indexed: %w", cqerrors.ErrNotInitialized)
	}
	return index.Save(dir)
}

// ClearDocumentIndex drops the current index; document queries then report
// the not-initialized state again.
func (s *Session) ClearDocumentIndex() {
	s.index.Store(nil)
}

// DocumentIndexed reports whether a document corpus is currently queryable.
func (s *Session) DocumentIndexed() bool {
	return s.index.Load() != nil
}

// SchemaDescription returns the rendered store schema, computed once per
// session and cached.
func (s *Session) SchemaDescription(ctx context.Context) (string, error) {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schema != "" {
		return s.schema, nil
	}
	if s.store == nil {
		return "", fmt.Errorf("no relational store configured: %w", cqerrors.ErrNotInitialized)
	}
	schema, err := s.store.Schema(ctx)
	if err != nil {
		return "", fmt.Errorf("introspect schema: %w", err)
	}
	s.schema = schema.Render()
	return s.schema, nil
}

// synthesize runs the model over the evidence. The returned error mirrors
// the Result's diagnostics so callers can record it on the request span;
// it is never propagated past the handler.
func (s *Session) synthesize(ctx context.Context, question string, ev evidence.Evidence) (Result, error) {
	if s.synthesizer == nil {
		err := fmt.Errorf("synthesizer not configured: %w", cqerrors.ErrNotInitialized)
		return Result{
			Answer:      "Answer synthesis is not configured.",
			Evidence:    ev,
			Diagnostics: err.Error(),
		}, err
	}
	text, err := s.synthesizer.Synthesize(ctx, question, ev)
	if err != nil {
		res := s.failure("The language model could not generate an answer.", err)
		res.Evidence = ev
		return res, err
	}
	return Result{Answer: text, Evidence: ev}, nil
}

// failure converts a backend error into a Result. Errors never propagate to
// the caller as uncaught failures.
func (s *Session) failure(message string, err error) Result {
	s.logger.Error("request failed", "error", err)
	return Result{
		Answer:      message,
		Diagnostics: err.Error(),
	}
}
