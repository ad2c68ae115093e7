package ingest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ndx-snapshot-backend/internal/metrics"
	"ndx-snapshot-backend/internal/models"
	"ndx-snapshot-backend/internal/pacer"
	"ndx-snapshot-backend/internal/repo"
	"ndx-snapshot-backend/internal/upstream"
)

type Options struct {
	// Symbols narrows the run to these roster members. Empty means the whole
	// roster, in which case an unfinished run is resumed first.
	Symbols        []string
	SkipOverview   bool
	OverviewMaxAge time.Duration
}

type Summary struct {
	RunID             primitive.ObjectID
	Resumed           bool
	Status            models.SyncStatus
	Processed         []string
	Failures          []string
	Unknown           []string
	InsertedSnapshots int
	LatestTradingDay  string
	Overviews         int
}

type Deps struct {
	Roster  []models.RosterEntry
	Bars    repo.BarRepoItf
	Runs    repo.RunRepoItf
	Client  upstream.HistoryClientItf
	Pacer   *pacer.Pacer
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Clock   func() time.Time
}

// Ingester appends historical daily bars symbol by symbol, keeping a
// pending list on the run record so an interrupted run can pick up where it
// stopped.
type Ingester struct {
	roster  []string
	bars    repo.BarRepoItf
	runs    repo.RunRepoItf
	client  upstream.HistoryClientItf
	pacer   *pacer.Pacer
	policy  pacer.Policy
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewIngester(deps Deps, policy pacer.Policy) *Ingester {
	i := &Ingester{
		roster:  models.RosterSymbols(deps.Roster),
		bars:    deps.Bars,
		runs:    deps.Runs,
		client:  deps.Client,
		pacer:   deps.Pacer,
		policy:  policy,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		now:     deps.Clock,
	}
	if i.pacer == nil {
		i.pacer = pacer.New(0)
	}
	if i.logger == nil {
		i.logger = zap.NewNop()
	}
	if i.now == nil {
		i.now = time.Now
	}
	return i
}

// Run ingests the selected symbols. Per-symbol failures end up in
// Summary.Failures and leave the run partial; the returned error is reserved
// for problems that stop the run itself.
func (i *Ingester) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	selected := i.roster
	if len(opts.Symbols) > 0 {
		selected, sum.Unknown = i.filter(opts.Symbols)
		for _, s := range sum.Unknown {
			i.logger.Warn("symbol is not in the roster, skipping", zap.String("symbol", s))
		}
	}
	if len(selected) == 0 {
		sum.Status = models.SyncStatusSkipped
		i.logger.Warn("no symbols selected for ingestion")
		return sum, nil
	}

	startedAt := i.now()
	runID, selected, resumed, err := i.begin(ctx, selected, startedAt, len(opts.Symbols) == 0)
	if err != nil {
		return sum, err
	}
	sum.RunID = runID
	sum.Resumed = resumed

	pending := slices.Clone(selected)
	for _, sym := range selected {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		inserted, latest, err := i.ingestWithRetry(ctx, sym)
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Failures = append(sum.Failures, sym)
			i.logger.Error("symbol ingestion failed", zap.String("symbol", sym), zap.Error(err))
		} else {
			sum.Processed = append(sum.Processed, sym)
			sum.InsertedSnapshots += inserted
			if latest > sum.LatestTradingDay {
				sum.LatestTradingDay = latest
			}
			i.logger.Info("symbol ingested", zap.String("symbol", sym), zap.Int("inserted", inserted), zap.String("latestTradingDay", latest))
		}

		pending = slices.DeleteFunc(pending, func(s string) bool { return s == sym })
		if err := i.runs.UpdatePending(ctx, runID, append(slices.Clone(pending), sum.Failures...)); err != nil {
			i.logger.Warn("pending symbols not saved", zap.Error(err))
		}
	}
	i.metrics.ObserveIngestedBars(sum.InsertedSnapshots)

	if !opts.SkipOverview {
		sum.Overviews = i.refreshOverviews(ctx, selected, opts.OverviewMaxAge)
	}

	sum.Status = models.SyncStatusSuccess
	if len(sum.Failures) > 0 {
		sum.Status = models.SyncStatusPartial
	}
	finishedAt := i.now()
	update := models.SyncRunRecord{
		Status:           sum.Status,
		FinishedAt:       finishedAt,
		DurationMs:       repo.RunDuration(startedAt, finishedAt),
		RefreshedSymbols: nonNil(sum.Processed),
		SkippedSymbols:   nonNil(sum.Failures),
		PendingSymbols:   nonNil(sum.Failures),
		Metadata: bson.M{
			"processed":         len(sum.Processed),
			"insertedSnapshots": sum.InsertedSnapshots,
			"failures":          len(sum.Failures),
			"latestTradingDay":  sum.LatestTradingDay,
		},
	}
	if len(sum.Failures) > 0 {
		update.Error = fmt.Sprintf("failed symbols: %s", strings.Join(sum.Failures, ", "))
	}
	if err := i.runs.FinishRun(ctx, runID, update); err != nil {
		return sum, fmt.Errorf("finish ingest run: %w", err)
	}
	return sum, nil
}

// begin resumes an unfinished whole-roster run or starts a new one, and
// returns the symbols this invocation must process.
func (i *Ingester) begin(ctx context.Context, selected []string, startedAt time.Time, mayResume bool) (primitive.ObjectID, []string, bool, error) {
	if mayResume {
		prev, err := i.runs.FindResumableRun(ctx, models.SyncTypeDailyPrices)
		if err != nil {
			return primitive.NilObjectID, nil, false, fmt.Errorf("look up unfinished run: %w", err)
		}
		if prev != nil {
			todo, _ := i.filter(prev.PendingSymbols)
			if len(todo) > 0 {
				i.logger.Info("resuming unfinished ingest run", zap.String("runId", prev.Id.Hex()), zap.Int("pending", len(todo)))
				return prev.Id, todo, true, nil
			}
		}
	}

	id, err := i.runs.StartRun(ctx, models.SyncRunRecord{
		Type:           models.SyncTypeDailyPrices,
		CreatedAt:      startedAt,
		Status:         models.SyncStatusRunning,
		PendingSymbols: slices.Clone(selected),
	})
	if err != nil {
		return primitive.NilObjectID, nil, false, fmt.Errorf("start ingest run: %w", err)
	}
	return id, selected, false, nil
}

func (i *Ingester) ingestWithRetry(ctx context.Context, sym string) (int, string, error) {
	var inserted int
	var latest string
	err := pacer.Retry(ctx, i.policy, func() (err error) {
		inserted, latest, err = i.ingestSymbol(ctx, sym)
		return err
	}, func(err error, delay time.Duration) {
		kind := "upstream"
		if upstream.IsThrottling(err) {
			kind = "throttled"
		}
		i.metrics.ObserveRetry("daily_bars", kind)
		i.logger.Warn("retrying symbol", zap.String("symbol", sym), zap.String("kind", kind), zap.Duration("delay", delay), zap.Error(err))
	})
	return inserted, latest, err
}

// ingestSymbol appends the bars newer than the newest stored trading day and
// returns how many were inserted plus the newest trading day known.
func (i *Ingester) ingestSymbol(ctx context.Context, sym string) (int, string, error) {
	last, err := i.bars.LatestBar(ctx, sym)
	if err != nil {
		return 0, "", fmt.Errorf("latest bar for %s: %w", sym, err)
	}

	var series []upstream.Bar
	err = i.pacer.Schedule(ctx, func(ctx context.Context) (err error) {
		series, err = i.client.FetchDailyBars(ctx, sym)
		return err
	})
	if err != nil {
		return 0, "", err
	}

	rows := NewBars(sym, series, last)
	latest := ""
	if last != nil {
		latest = last.TradingDay
	}
	if len(rows) == 0 {
		return 0, latest, nil
	}
	n, err := i.bars.InsertBars(ctx, rows)
	if err != nil {
		return 0, "", err
	}
	return n, rows[len(rows)-1].TradingDay, nil
}

// NewBars converts the ascending series into rows strictly newer than last,
// chaining change% through the previous row's adjusted close.
func NewBars(sym string, series []upstream.Bar, last *models.DailyBar) []models.DailyBar {
	var prevClose *float64
	cutoff := ""
	if last != nil {
		cutoff = last.TradingDay
		prevClose = closeOf(last.AdjustedClose, last.Close, nil)
	}

	var rows []models.DailyBar
	for _, b := range series {
		if b.Date <= cutoff {
			continue
		}
		rows = append(rows, models.DailyBar{
			Symbol:        sym,
			TradingDay:    b.Date,
			Open:          b.Open,
			High:          b.High,
			Low:           b.Low,
			Close:         b.Close,
			AdjustedClose: b.AdjustedClose,
			Volume:        b.Volume,
			ChangePct:     changePct(b.AdjustedClose, prevClose),
			Raw:           models.RawDocument(b.Raw),
		})
		prevClose = closeOf(b.AdjustedClose, b.Close, prevClose)
	}
	return rows
}

func changePct(current, prev *float64) *float64 {
	if current == nil || prev == nil || *prev == 0 {
		return nil
	}
	cur := decimal.NewFromFloat(*current)
	p := decimal.NewFromFloat(*prev)
	pct, _ := cur.Sub(p).Div(p).Mul(decimal.NewFromInt(100)).Round(4).Float64()
	return &pct
}

func closeOf(adjusted, closePrice, fallback *float64) *float64 {
	switch {
	case adjusted != nil:
		return adjusted
	case closePrice != nil:
		return closePrice
	default:
		return fallback
	}
}

// refreshOverviews updates company overviews that are missing or stale.
// Failures are logged and otherwise ignored.
func (i *Ingester) refreshOverviews(ctx context.Context, symbols []string, maxAge time.Duration) int {
	due, err := i.bars.SymbolsNeedingOverview(ctx, symbols, maxAge)
	if err != nil {
		i.logger.Warn("overview staleness check failed", zap.Error(err))
		return 0
	}

	updated := 0
	for _, sym := range due {
		if ctx.Err() != nil {
			break
		}
		var ov *upstream.Overview
		err := pacer.Retry(ctx, i.policy, func() error {
			return i.pacer.Schedule(ctx, func(ctx context.Context) (err error) {
				ov, err = i.client.FetchOverview(ctx, sym)
				return err
			})
		}, nil)
		if err != nil {
			i.logger.Warn("overview refresh failed", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		if ov == nil {
			i.logger.Warn("overview empty", zap.String("symbol", sym))
			continue
		}
		err = i.bars.UpsertOverview(ctx, models.CompanyOverview{
			Symbol:    sym,
			Name:      ov.Name,
			Sector:    ov.Sector,
			Industry:  ov.Industry,
			MarketCap: ov.MarketCap,
			Raw:       models.RawDocument(ov.Raw),
			UpdatedAt: i.now(),
		})
		if err != nil {
			i.logger.Warn("overview not stored", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		updated++
	}
	return updated
}

// filter keeps the roster members among symbols, upper-cased and in the
// order given, and returns the rest separately.
func (i *Ingester) filter(symbols []string) (known, unknown []string) {
	seen := make(map[string]struct{}, len(symbols))
	for _, raw := range symbols {
		s := strings.ToUpper(strings.TrimSpace(raw))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if slices.Contains(i.roster, s) {
			known = append(known, s)
		} else {
			unknown = append(unknown, s)
		}
	}
	return known, unknown
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
