package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/wikichat/internal/store"
	"github.com/mohammad-safakhou/wikichat/internal/wiki"
)

type fakeSearcher struct {
	hits      []wiki.SearchHit
	calls     int
	lastQuery string
	lastLimit int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) []wiki.SearchHit {
	f.calls++
	f.lastQuery = query
	f.lastLimit = limit
	return f.hits
}

type fakeResolver struct {
	articles map[string]wiki.Article
	calls    int
}

func (f *fakeResolver) Resolve(ctx context.Context, hit wiki.SearchHit) wiki.Article {
	f.calls++
	if a, ok := f.articles[hit.Title]; ok {
		return a
	}
	return wiki.Article{Title: hit.Title, Content: hit.Snippet, SourceURL: wiki.TitleURL(hit.Title), Via: wiki.ViaFallback}
}

type fakeProvider struct {
	text       string
	err        error
	calls      int
	lastPrompt string
	lastTokens int
	lastTemp   float64
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastTokens = maxTokens
	f.lastTemp = temperature
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeProvider) Probe(ctx context.Context) (bool, string) { return f.err == nil, "" }

type fakeRecorder struct {
	err   error
	saved []store.Interaction
}

func (f *fakeRecorder) SaveInteraction(ctx context.Context, in store.Interaction) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, in)
	return "rec-1", nil
}

func newTestService(s *fakeSearcher, r *fakeResolver, p *fakeProvider, rec *fakeRecorder) *Service {
	return NewService(s, r, p, rec, nil, 2, DefaultContextCharLimit)
}

func TestChatWithoutContextUsesRawQuery(t *testing.T) {
	searcher := &fakeSearcher{hits: []wiki.SearchHit{{Title: "T", Snippet: "s"}}}
	prov := &fakeProvider{text: "answer"}
	rec := &fakeRecorder{}
	svc := newTestService(searcher, &fakeResolver{}, prov, rec)

	res, err := svc.Chat(context.Background(), Request{Query: "plain question", MaxTokens: 300, Temperature: 0.7, UseContext: false})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if searcher.calls != 0 {
		t.Errorf("search must be skipped when context is disabled, got %d calls", searcher.calls)
	}
	if prov.lastPrompt != "plain question" {
		t.Errorf("prompt = %q, want the raw query", prov.lastPrompt)
	}
	if len(res.SourceURLs) != 0 {
		t.Errorf("SourceURLs = %v, want empty", res.SourceURLs)
	}
}

func TestChatNoSearchHitsFallsBackToRawQuery(t *testing.T) {
	searcher := &fakeSearcher{hits: nil}
	resolver := &fakeResolver{}
	prov := &fakeProvider{text: "still an answer"}
	svc := newTestService(searcher, resolver, prov, &fakeRecorder{})

	res, err := svc.Chat(context.Background(), Request{Query: "asdkjqwe zzz", MaxTokens: 300, Temperature: 0.7, UseContext: true})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if searcher.calls != 1 {
		t.Errorf("search calls = %d, want 1", searcher.calls)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver must not run without hits, got %d calls", resolver.calls)
	}
	if prov.lastPrompt != "asdkjqwe zzz" {
		t.Errorf("prompt = %q, want the raw query", prov.lastPrompt)
	}
	if res.Response != "still an answer" {
		t.Errorf("Response = %q", res.Response)
	}
	if len(res.SourceURLs) != 0 {
		t.Errorf("SourceURLs = %v, want empty", res.SourceURLs)
	}
}

func TestChatEndToEndWithContext(t *testing.T) {
	searcher := &fakeSearcher{hits: []wiki.SearchHit{
		{Title: "Quantum computing", Snippet: "snippet one"},
		{Title: "Quantum mechanics", Snippet: "snippet two"},
	}}
	resolver := &fakeResolver{articles: map[string]wiki.Article{
		"Quantum computing": {Title: "Quantum computing", Content: "qc content", SourceURL: "https://en.wikipedia.org/wiki/Quantum_computing", Via: wiki.ViaSummary},
		"Quantum mechanics": {Title: "Quantum mechanics", Content: "qm content", SourceURL: "https://en.wikipedia.org/wiki/Quantum_mechanics", Via: wiki.ViaSummary},
	}}
	prov := &fakeProvider{text: "Quantum computing is..."}
	rec := &fakeRecorder{}
	svc := newTestService(searcher, resolver, prov, rec)

	res, err := svc.Chat(context.Background(), Request{Query: "What is quantum computing?", MaxTokens: 300, Temperature: 0.7, UseContext: true})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if res.Response != "Quantum computing is..." {
		t.Errorf("Response = %q", res.Response)
	}
	if len(res.SourceURLs) != 2 {
		t.Fatalf("SourceURLs = %v, want 2 entries", res.SourceURLs)
	}
	if res.SourceURLs[0] != "https://en.wikipedia.org/wiki/Quantum_computing" {
		t.Errorf("SourceURLs[0] = %q", res.SourceURLs[0])
	}
	if !strings.Contains(prov.lastPrompt, "Wikipedia Article: Quantum computing\nqc content") {
		t.Errorf("first article missing from prompt")
	}
	if !strings.Contains(prov.lastPrompt, "Wikipedia Article: Quantum mechanics\nqm content") {
		t.Errorf("second article missing from prompt")
	}
	if !strings.Contains(prov.lastPrompt, "User Question: What is quantum computing?") {
		t.Errorf("question missing from prompt")
	}

	if len(rec.saved) != 1 {
		t.Fatalf("expected 1 recorded interaction, got %d", len(rec.saved))
	}
	saved := rec.saved[0]
	if saved.Query != "What is quantum computing?" || saved.Response != res.Response {
		t.Errorf("recorded interaction does not match the result")
	}
	if !saved.UseContext {
		t.Errorf("recorded UseContext = false, want true")
	}
	if len(saved.SourceURLs) != 2 {
		t.Errorf("recorded SourceURLs = %v", saved.SourceURLs)
	}
	if !res.Recorded {
		t.Errorf("Recorded = false, want true")
	}
}

func TestChatRecordingFailureDoesNotAffectResult(t *testing.T) {
	prov := &fakeProvider{text: "the answer"}
	rec := &fakeRecorder{err: errors.New("connection refused")}
	svc := newTestService(&fakeSearcher{}, &fakeResolver{}, prov, rec)

	res, err := svc.Chat(context.Background(), Request{Query: "q", MaxTokens: 300, Temperature: 0.7, UseContext: false})
	if err != nil {
		t.Fatalf("recording failure must not fail the chat: %v", err)
	}
	if res.Response != "the answer" {
		t.Errorf("Response = %q, want the already-computed answer", res.Response)
	}
	if res.Recorded {
		t.Errorf("Recorded = true, want false")
	}
}

func TestChatGenerationFailureIsFatal(t *testing.T) {
	prov := &fakeProvider{err: errors.New("401 unauthorized")}
	rec := &fakeRecorder{}
	svc := newTestService(&fakeSearcher{}, &fakeResolver{}, prov, rec)

	_, err := svc.Chat(context.Background(), Request{Query: "q", MaxTokens: 300, Temperature: 0.7, UseContext: false})
	if err == nil {
		t.Fatalf("expected error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error %T is not a GenerationError", err)
	}
	if len(rec.saved) != 0 {
		t.Errorf("failed generation must not be recorded")
	}
}

func TestChatPassesTuningParamsToProvider(t *testing.T) {
	prov := &fakeProvider{text: "ok"}
	svc := newTestService(&fakeSearcher{}, &fakeResolver{}, prov, &fakeRecorder{})

	if _, err := svc.Chat(context.Background(), Request{Query: "q", MaxTokens: 42, Temperature: 0.3, UseContext: false}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if prov.lastTokens != 42 {
		t.Errorf("maxTokens = %d, want 42", prov.lastTokens)
	}
	if prov.lastTemp != 0.3 {
		t.Errorf("temperature = %v, want 0.3", prov.lastTemp)
	}
}
