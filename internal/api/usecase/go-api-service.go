package usecase

import (
	"context"
	"strings"
	"time"

	"ndx-snapshot-backend/internal/api/constant"
	"ndx-snapshot-backend/internal/api/dto"
	"ndx-snapshot-backend/internal/models"
	"ndx-snapshot-backend/internal/refresh"
	"ndx-snapshot-backend/internal/repo"
)

type RefresherItf interface {
	Load(ctx context.Context, opts refresh.LoadOptions) (refresh.Result, error)
	Refresh(ctx context.Context, opts refresh.Options) (refresh.Result, error)
	Roster() []models.RosterEntry
}

type UsecaseItf interface {
	LoadQuotes(ctx context.Context, force bool) (refresh.Result, error)
	ForceRefresh(ctx context.Context, recordDaily bool) (refresh.Result, error)
	SelectBySymbol(ctx context.Context, symbol string) (models.Quote, error)
	Health(ctx context.Context) (dto.GetHealthRes, error)
	Treemap(ctx context.Context) (*dto.TreemapNode, error)
}

type Usecase struct {
	rf     RefresherItf
	rp     repo.QuoteRepoItf
	maxAge time.Duration
	now    func() time.Time
}

func NewUsecase(rf RefresherItf, rp repo.QuoteRepoItf, maxAge time.Duration) *Usecase {
	return &Usecase{rf: rf, rp: rp, maxAge: maxAge, now: time.Now}
}

func (uc *Usecase) LoadQuotes(ctx context.Context, force bool) (refresh.Result, error) {
	res, err := uc.rf.Load(ctx, refresh.LoadOptions{MaxAge: uc.maxAge, Force: force})
	if err != nil {
		return refresh.Result{}, err
	}
	if len(res.Quotes) == 0 {
		return refresh.Result{}, constant.ErrQuotesUnavailable
	}
	return res, nil
}

func (uc *Usecase) ForceRefresh(ctx context.Context, recordDaily bool) (refresh.Result, error) {
	return uc.rf.Refresh(ctx, refresh.Options{RecordDaily: recordDaily})
}

// SelectBySymbol returns one constituent from the current snapshot. Symbols
// outside the roster are rejected before any load happens.
func (uc *Usecase) SelectBySymbol(ctx context.Context, symbol string) (models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.Quote{}, constant.ErrNoSymbol
	}
	if !inRoster(uc.rf.Roster(), symbol) {
		return models.Quote{}, constant.ErrUnknownSymbol
	}

	res, err := uc.LoadQuotes(ctx, false)
	if err != nil {
		return models.Quote{}, err
	}
	for _, q := range res.Quotes {
		if q.Symbol == symbol {
			return q, nil
		}
	}
	return models.Quote{}, constant.ErrUnknownSymbol
}

func (uc *Usecase) Health(ctx context.Context) (dto.GetHealthRes, error) {
	meta, err := uc.rp.GetMetadata(ctx)
	if err != nil {
		return dto.GetHealthRes{}, err
	}
	out := dto.GetHealthRes{
		Count:           meta.Count,
		NewestFetchedAt: meta.NewestFetchedAt,
		MaxAgeMs:        uc.maxAge.Milliseconds(),
		Stale:           true,
	}
	if meta.NewestFetchedAt != nil {
		age := max(uc.now().Sub(*meta.NewestFetchedAt).Milliseconds(), 0)
		out.AgeMs = &age
		out.Stale = age > out.MaxAgeMs
	}
	return out, nil
}

func (uc *Usecase) Treemap(ctx context.Context) (*dto.TreemapNode, error) {
	res, err := uc.LoadQuotes(ctx, false)
	if err != nil {
		return nil, err
	}
	return BuildHierarchy(res.Quotes), nil
}

func inRoster(roster []models.RosterEntry, symbol string) bool {
	for _, e := range roster {
		if e.Symbol == symbol {
			return true
		}
	}
	return false
}
