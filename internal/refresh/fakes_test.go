package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ndx-snapshot-backend/internal/models"
	"ndx-snapshot-backend/internal/repo"
	"ndx-snapshot-backend/internal/upstream"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// fakeClient answers from canned per-symbol payloads. Symbols without a
// payload are simply missing from batch responses.
type fakeClient struct {
	mu        sync.Mutex
	quotes    map[string]string
	summaries map[string]string
	sparks    map[string]string

	// quoteErrs is consumed one entry per FetchQuoteBatch call.
	quoteErrs []error

	quoteCalls   int
	summaryCalls int
	sparkCalls   int

	started chan struct{}
	release chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		quotes:    map[string]string{},
		summaries: map[string]string{},
		sparks:    map[string]string{},
	}
}

func (f *fakeClient) withQuote(symbol string, marketCap float64, price float64) *fakeClient {
	f.quotes[symbol] = fmt.Sprintf(`{"symbol":%q,"marketCap":%v,"regularMarketPrice":%v,"regularMarketPreviousClose":%v}`, symbol, marketCap, price, price)
	return f
}

func (f *fakeClient) FetchQuoteBatch(ctx context.Context, symbols []string) (map[string]json.RawMessage, error) {
	f.mu.Lock()
	f.quoteCalls++
	var err error
	if len(f.quoteErrs) > 0 {
		err, f.quoteErrs = f.quoteErrs[0], f.quoteErrs[1:]
	}
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return f.pick(f.quotes, symbols), nil
}

func (f *fakeClient) FetchSummary(_ context.Context, symbol string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	if raw, ok := f.summaries[symbol]; ok {
		return json.RawMessage(raw), nil
	}
	return nil, nil
}

func (f *fakeClient) FetchSpark(_ context.Context, symbols []string) (map[string]json.RawMessage, error) {
	f.mu.Lock()
	f.sparkCalls++
	f.mu.Unlock()
	return f.pick(f.sparks, symbols), nil
}

func (f *fakeClient) pick(src map[string]string, symbols []string) map[string]json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]json.RawMessage)
	for _, s := range symbols {
		if raw, ok := src[s]; ok {
			out[s] = json.RawMessage(raw)
		}
	}
	return out
}

func (f *fakeClient) QuoteCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quoteCalls
}

var _ upstream.ClientItf = (*fakeClient)(nil)

// memRepo is an in-memory QuoteRepoItf with injectable failures.
type memRepo struct {
	mu     sync.Mutex
	latest map[string]models.QuoteDocument
	daily  map[string]models.DailySnapshotDocument
	runs   []models.SyncRunRecord

	getErr    error
	failWrite map[string]bool
	upsertErr error
	dailyErr  error
	runErr    error
}

func newMemRepo() *memRepo {
	return &memRepo{
		latest:    map[string]models.QuoteDocument{},
		daily:     map[string]models.DailySnapshotDocument{},
		failWrite: map[string]bool{},
	}
}

func (m *memRepo) seed(doc models.QuoteDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[doc.Symbol] = doc
}

func (m *memRepo) GetLatest(_ context.Context, symbols []string) ([]models.QuoteDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []models.QuoteDocument
	for _, s := range symbols {
		if doc, ok := m.latest[s]; ok {
			doc.Quote = doc.Quote.Clone()
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memRepo) GetMetadata(context.Context) (models.QuoteMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var quotes []models.Quote
	for _, doc := range m.latest {
		quotes = append(quotes, doc.Quote)
	}
	return models.QuoteMetadata{Count: int64(len(m.latest)), NewestFetchedAt: models.NewestFetchedAt(quotes)}, nil
}

func (m *memRepo) UpsertLatest(_ context.Context, docs []models.QuoteDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	var failed []string
	for _, doc := range docs {
		if m.failWrite[doc.Symbol] {
			failed = append(failed, doc.Symbol)
			continue
		}
		doc.Quote = doc.Quote.Clone()
		m.latest[doc.Symbol] = doc
	}
	if len(failed) > 0 {
		return &repo.PersistenceError{Op: "upsert latest quotes", FailedSymbols: failed, Err: errors.New("write failed")}
	}
	return nil
}

func (m *memRepo) AppendDailySnapshots(_ context.Context, docs []models.DailySnapshotDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dailyErr != nil {
		return m.dailyErr
	}
	for _, doc := range docs {
		key := doc.Symbol + "|" + doc.AsOf
		if _, ok := m.daily[key]; !ok {
			m.daily[key] = doc
		}
	}
	return nil
}

func (m *memRepo) RecordSyncRun(_ context.Context, rec models.SyncRunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runErr != nil {
		return m.runErr
	}
	m.runs = append(m.runs, rec)
	return nil
}

func (m *memRepo) Runs() []models.SyncRunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SyncRunRecord(nil), m.runs...)
}

type recordingPublisher struct {
	mu   sync.Mutex
	recs []models.SyncRunRecord
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, rec models.SyncRunRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, rec)
	return p.err
}
