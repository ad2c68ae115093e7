package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ndx-snapshot-backend/internal/cache"
	"ndx-snapshot-backend/internal/metrics"
	"ndx-snapshot-backend/internal/models"
	"ndx-snapshot-backend/internal/pacer"
	"ndx-snapshot-backend/internal/processor"
	"ndx-snapshot-backend/internal/repo"
	"ndx-snapshot-backend/internal/upstream"
)

// Source names the tier that produced a Result.
type Source string

const (
	SourceMemory   Source = "memory"
	SourceDatabase Source = "database"
	SourceRefresh  Source = "refresh"
)

const (
	defaultBatchSize = 20
	auditTimeout     = 5 * time.Second
	refreshKey       = "refresh"
)

type Options struct {
	RecordDaily bool
}

type LoadOptions struct {
	MaxAge time.Duration
	Force  bool
}

type Result struct {
	Quotes           []models.Quote
	Refreshed        bool
	Source           Source
	FetchedAt        *time.Time
	RefreshedSymbols []string
	SkippedSymbols   []string
	// Warning carries a non-fatal *repo.PersistenceError from the latest-quote upsert.
	Warning error
}

// Clone deep-copies r so concurrent callers never share slices.
func (r Result) Clone() Result {
	out := r
	out.Quotes = models.CloneQuotes(r.Quotes)
	out.RefreshedSymbols = append([]string{}, r.RefreshedSymbols...)
	out.SkippedSymbols = append([]string{}, r.SkippedSymbols...)
	if r.FetchedAt != nil {
		t := *r.FetchedAt
		out.FetchedAt = &t
	}
	return out
}

type RunPublisherItf interface {
	Publish(ctx context.Context, rec models.SyncRunRecord) error
}

type Config struct {
	QuoteBatchSize int
	SparkBatchSize int
	Retry          pacer.Policy
	// RecordDaily applies to refreshes triggered by Load.
	RecordDaily bool
	// Timeout bounds a shared refresh, which outlives any single caller.
	Timeout time.Duration
}

type Deps struct {
	Roster    []models.RosterEntry
	Repo      repo.QuoteRepoItf
	Client    upstream.ClientItf
	Pacer     *pacer.Pacer
	Cache     *cache.SnapshotCache
	Publisher RunPublisherItf
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Clock     func() time.Time
}

// Refresher pulls live quotes for the roster, merges them with the last
// durable state and serves reads through a memory, database, refresh chain.
type Refresher struct {
	roster    []models.RosterEntry
	symbols   []string
	repo      repo.QuoteRepoItf
	client    upstream.ClientItf
	pacer     *pacer.Pacer
	cache     *cache.SnapshotCache
	publisher RunPublisherItf
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
	cfg       Config

	group singleflight.Group
	mu    sync.Mutex
}

func NewRefresher(deps Deps, cfg Config) *Refresher {
	if cfg.QuoteBatchSize <= 0 {
		cfg.QuoteBatchSize = defaultBatchSize
	}
	if cfg.SparkBatchSize <= 0 {
		cfg.SparkBatchSize = defaultBatchSize
	}
	r := &Refresher{
		roster:    deps.Roster,
		symbols:   models.RosterSymbols(deps.Roster),
		repo:      deps.Repo,
		client:    deps.Client,
		pacer:     deps.Pacer,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Clock,
		cfg:       cfg,
	}
	if r.pacer == nil {
		r.pacer = pacer.New(0)
	}
	if r.cache == nil {
		r.cache = cache.NewSnapshotCache()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

func (r *Refresher) Roster() []models.RosterEntry {
	return append([]models.RosterEntry(nil), r.roster...)
}

// Load serves the freshest acceptable snapshot, refreshing only when neither
// memory nor the durable store is within opts.MaxAge.
func (r *Refresher) Load(ctx context.Context, opts LoadOptions) (Result, error) {
	if !opts.Force {
		if quotes, ok := r.cache.Get(opts.MaxAge); ok {
			r.metrics.ObserveLoad(string(SourceMemory))
			return Result{
				Quotes:           quotes,
				Source:           SourceMemory,
				FetchedAt:        models.NewestFetchedAt(quotes),
				RefreshedSymbols: []string{},
				SkippedSymbols:   []string{},
			}, nil
		}

		docs, err := r.repo.GetLatest(ctx, r.symbols)
		if err != nil {
			return Result{}, fmt.Errorf("read latest quotes: %w", err)
		}
		quotes := r.inRosterOrder(docs)
		newest := models.NewestFetchedAt(quotes)
		if len(quotes) > 0 && newest != nil && r.now().Sub(*newest) <= opts.MaxAge {
			r.cache.Put(quotes)
			r.metrics.ObserveLoad(string(SourceDatabase))
			return Result{
				Quotes:           quotes,
				Source:           SourceDatabase,
				FetchedAt:        newest,
				RefreshedSymbols: []string{},
				SkippedSymbols:   []string{},
			}, nil
		}
	}

	res, err := r.sharedRefresh(ctx)
	if err != nil {
		return Result{}, err
	}
	r.metrics.ObserveLoad(string(SourceRefresh))
	return res, nil
}

// sharedRefresh joins an in-flight refresh or starts one. The refresh is
// detached from ctx so one caller going away does not fail the others.
func (r *Refresher) sharedRefresh(ctx context.Context) (Result, error) {
	ch := r.group.DoChan(refreshKey, func() (any, error) {
		rctx := context.WithoutCancel(ctx)
		if r.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(rctx, r.cfg.Timeout)
			defer cancel()
		}
		return r.Refresh(rctx, Options{RecordDaily: r.cfg.RecordDaily})
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case out := <-ch:
		if out.Err != nil {
			return Result{}, out.Err
		}
		return out.Val.(Result).Clone(), nil
	}
}

// Refresh runs one full cycle: snapshot, fetch, merge, weight, persist and
// audit. Cycles never overlap.
func (r *Refresher) Refresh(ctx context.Context, opts Options) (res Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	startedAt := r.now()
	var refreshed, skipped []string
	dropped := 0
	defer func() {
		r.recordRun(ctx, startedAt, refreshed, skipped, dropped, err)
	}()

	existing, err := r.repo.GetLatest(ctx, r.symbols)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot existing quotes: %w", err)
	}
	prior := make(map[string]models.QuoteDocument, len(existing))
	for _, doc := range existing {
		prior[doc.Symbol] = doc
	}

	bundles := r.fetchBundles(ctx)
	if cerr := ctx.Err(); cerr != nil {
		return Result{}, cerr
	}
	fetchedAt := r.now().UTC()

	final := make([]models.Quote, 0, len(r.roster))
	var docs []models.QuoteDocument
	var docIdx []int
	for _, entry := range r.roster {
		b := bundles[entry.Symbol]
		if b.Usable() {
			doc := processor.NormalizeQuote(entry, *b, fetchedAt)
			docs = append(docs, doc)
			docIdx = append(docIdx, len(final))
			final = append(final, doc.Quote)
			refreshed = append(refreshed, entry.Symbol)
			continue
		}

		var errs []string
		if b != nil {
			errs = b.Errors
		}
		if doc, ok := prior[entry.Symbol]; ok {
			final = append(final, doc.Quote)
			skipped = append(skipped, entry.Symbol)
			r.logger.Warn("keeping previous quote", zap.String("symbol", entry.Symbol), zap.Strings("errors", errs))
			continue
		}
		dropped++
		r.logger.Warn("no quote available", zap.String("symbol", entry.Symbol), zap.Strings("errors", errs))
	}

	if len(final) == 0 {
		return Result{}, &NoDataError{Symbols: len(r.roster)}
	}

	ApplyMarketCapWeights(final)
	for i := range docs {
		docs[i].Quote = final[docIdx[i]].Clone()
	}

	res = Result{
		Quotes:           final,
		Refreshed:        len(refreshed) > 0,
		Source:           SourceRefresh,
		FetchedAt:        models.NewestFetchedAt(final),
		RefreshedSymbols: nonNil(refreshed),
		SkippedSymbols:   nonNil(skipped),
	}

	if uerr := r.repo.UpsertLatest(ctx, docs); uerr != nil {
		var perr *repo.PersistenceError
		if !errors.As(uerr, &perr) {
			return Result{}, uerr
		}
		r.logger.Warn("some latest quotes were not persisted", zap.Strings("symbols", perr.FailedSymbols), zap.Error(perr.Err))
		res.Warning = perr
	}

	if opts.RecordDaily && len(docs) > 0 {
		snaps := make([]models.DailySnapshotDocument, 0, len(docs))
		for _, doc := range docs {
			snaps = append(snaps, models.NewDailySnapshot(doc))
		}
		if derr := r.repo.AppendDailySnapshots(ctx, snaps); derr != nil {
			r.logger.Warn("daily snapshots not recorded", zap.Error(derr))
		}
	}

	r.cache.Put(final)
	return res, nil
}

func (r *Refresher) fetchBundles(ctx context.Context) map[string]*processor.Bundle {
	bundles := make(map[string]*processor.Bundle, len(r.symbols))
	for _, s := range r.symbols {
		bundles[s] = &processor.Bundle{}
	}

	for _, batch := range chunk(r.symbols, r.cfg.QuoteBatchSize) {
		var quotes map[string]json.RawMessage
		err := r.call(ctx, "quote", func(ctx context.Context) (err error) {
			quotes, err = r.client.FetchQuoteBatch(ctx, batch)
			return err
		})
		if err != nil {
			markFailed(bundles, batch, "quote", err)
			continue
		}
		for sym, raw := range quotes {
			if b, ok := bundles[sym]; ok {
				b.Quote = raw
			}
		}
	}

	for _, sym := range r.symbols {
		if ctx.Err() != nil {
			break
		}
		var summary json.RawMessage
		err := r.call(ctx, "summary", func(ctx context.Context) (err error) {
			summary, err = r.client.FetchSummary(ctx, sym)
			return err
		})
		if err != nil {
			markFailed(bundles, []string{sym}, "summary", err)
			continue
		}
		bundles[sym].Summary = summary
	}

	for _, batch := range chunk(r.symbols, r.cfg.SparkBatchSize) {
		var sparks map[string]json.RawMessage
		err := r.call(ctx, "spark", func(ctx context.Context) (err error) {
			sparks, err = r.client.FetchSpark(ctx, batch)
			return err
		})
		if err != nil {
			markFailed(bundles, batch, "spark", err)
			continue
		}
		for sym, raw := range sparks {
			if b, ok := bundles[sym]; ok {
				b.Spark = raw
			}
		}
	}
	return bundles
}

// call paces every attempt of fn and retries upstream failures.
func (r *Refresher) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return pacer.Retry(ctx, r.cfg.Retry, func() error {
		return r.pacer.Schedule(ctx, fn)
	}, func(err error, delay time.Duration) {
		kind := "upstream"
		if upstream.IsThrottling(err) {
			kind = "throttled"
		}
		r.metrics.ObserveRetry(op, kind)
		r.logger.Warn("retrying upstream call", zap.String("op", op), zap.String("kind", kind), zap.Duration("delay", delay), zap.Error(err))
	})
}

func (r *Refresher) recordRun(ctx context.Context, startedAt time.Time, refreshed, skipped []string, dropped int, runErr error) {
	finishedAt := r.now()
	rec := models.SyncRunRecord{
		Type:             models.SyncTypeRefresh,
		CreatedAt:        startedAt,
		FinishedAt:       finishedAt,
		Status:           models.SyncStatusSuccess,
		DurationMs:       repo.RunDuration(startedAt, finishedAt),
		RefreshedSymbols: nonNil(refreshed),
		SkippedSymbols:   nonNil(skipped),
	}
	if runErr != nil {
		rec.Status = models.SyncStatusError
		rec.Error = runErr.Error()
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	if err := r.repo.RecordSyncRun(actx, rec); err != nil {
		r.logger.Warn("sync run not recorded", zap.Error(err))
	}
	if r.publisher != nil {
		if err := r.publisher.Publish(actx, rec); err != nil {
			r.logger.Warn("sync run event not published", zap.Error(err))
		}
	}

	r.metrics.ObserveRefresh(string(rec.Status), finishedAt.Sub(startedAt).Seconds(), len(refreshed), len(skipped), dropped)
	fields := []zap.Field{
		zap.String("status", string(rec.Status)),
		zap.Int("refreshed", len(refreshed)),
		zap.Int("skipped", len(skipped)),
		zap.Int("dropped", dropped),
		zap.Int64("durationMs", rec.DurationMs),
	}
	if runErr != nil {
		r.logger.Error("refresh failed", append(fields, zap.Error(runErr))...)
		return
	}
	r.logger.Info("refresh finished", fields...)
}

func (r *Refresher) inRosterOrder(docs []models.QuoteDocument) []models.Quote {
	bySymbol := make(map[string]models.Quote, len(docs))
	for _, doc := range docs {
		bySymbol[doc.Symbol] = doc.Quote
	}
	out := make([]models.Quote, 0, len(docs))
	for _, s := range r.symbols {
		if q, ok := bySymbol[s]; ok {
			out = append(out, q)
		}
	}
	return out
}

func markFailed(bundles map[string]*processor.Bundle, symbols []string, op string, err error) {
	for _, s := range symbols {
		if b, ok := bundles[s]; ok {
			b.Errors = append(b.Errors, fmt.Sprintf("%s: %v", op, err))
		}
	}
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
