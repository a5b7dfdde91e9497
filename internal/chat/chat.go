package chat

import (
	"context"
	"log"
	"time"

	"github.com/mohammad-safakhou/wikichat/internal/provider"
	"github.com/mohammad-safakhou/wikichat/internal/store"
	"github.com/mohammad-safakhou/wikichat/internal/wiki"
)

// Recorder persists completed exchanges. *store.Store satisfies it.
type Recorder interface {
	SaveInteraction(ctx context.Context, in store.Interaction) (string, error)
}

// GenerationError marks a fatal failure of the generation backend. It is the
// only pipeline failure surfaced to the caller; lookup and persistence
// failures are absorbed where they happen.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return "generation failed: " + e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// Request is a validated chat request entering the pipeline. Bounds checking
// happens at the transport boundary before the pipeline is invoked.
type Request struct {
	Query       string
	MaxTokens   int
	Temperature float64
	UseContext  bool
}

// Result is the outcome of one chat exchange. Immutable once produced; it is
// returned to the caller regardless of recording outcome. Recorded is for
// logs and tests only and is not part of the response shape.
type Result struct {
	Response   string
	SourceURLs []string
	Timestamp  time.Time
	Recorded   bool
}

// Service sequences the chat pipeline: search, resolve, compose, prompt,
// generate, record. One strictly sequential pass per request, no retries.
type Service struct {
	searcher         wiki.Searcher
	resolver         wiki.Resolver
	provider         provider.Provider
	recorder         Recorder
	logger           *log.Logger
	searchLimit      int
	contextCharLimit int
}

func NewService(searcher wiki.Searcher, resolver wiki.Resolver, prov provider.Provider, recorder Recorder, logger *log.Logger, searchLimit, contextCharLimit int) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
	}
	if searchLimit < 1 {
		searchLimit = 2
	}
	if contextCharLimit <= 0 {
		contextCharLimit = DefaultContextCharLimit
	}
	return &Service{
		searcher:         searcher,
		resolver:         resolver,
		provider:         prov,
		recorder:         recorder,
		logger:           logger,
		searchLimit:      searchLimit,
		contextCharLimit: contextCharLimit,
	}
}

// Chat runs one request through the pipeline. Context lookup failures reduce
// the context to empty; only a generation failure aborts the request, as
// *GenerationError. Recording runs synchronously but inside its own error
// scope so a storage failure can never withhold the already-built result.
func (s *Service) Chat(ctx context.Context, req Request) (Result, error) {
	sources := []string{}
	var block ContextBlock

	if req.UseContext {
		hits := s.searcher.Search(ctx, req.Query, s.searchLimit)
		if len(hits) > 0 {
			articles := make([]wiki.Article, 0, len(hits))
			for _, h := range hits {
				a := s.resolver.Resolve(ctx, h)
				articles = append(articles, a)
				sources = append(sources, a.SourceURL)
			}
			block = ComposeContext(articles, s.contextCharLimit)
			s.logger.Printf("composed context from %d articles (%d chars)", block.ArticleCount, len(block.Text))
		} else {
			s.logger.Printf("no context found for query, answering directly")
		}
	}

	prompt := BuildPrompt(req.Query, block)
	text, err := s.provider.Generate(ctx, prompt, req.MaxTokens, req.Temperature)
	if err != nil {
		return Result{}, &GenerationError{Err: err}
	}

	res := Result{
		Response:   text,
		SourceURLs: sources,
		Timestamp:  time.Now().UTC(),
	}

	if id, err := s.recorder.SaveInteraction(ctx, store.Interaction{
		Query:       req.Query,
		Response:    res.Response,
		SourceURLs:  res.SourceURLs,
		Timestamp:   res.Timestamp,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		UseContext:  req.UseContext,
	}); err != nil {
		s.logger.Printf("failed to record interaction: %v", err)
	} else {
		res.Recorded = true
		s.logger.Printf("interaction recorded with id %s", id)
	}

	return res, nil
}
