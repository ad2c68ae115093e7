package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ndx-snapshot-backend/internal/models"
)

type BarRepoItf interface {
	LatestBar(ctx context.Context, symbol string) (*models.DailyBar, error)
	InsertBars(ctx context.Context, bars []models.DailyBar) (int, error)
	SymbolsNeedingOverview(ctx context.Context, symbols []string, maxAge time.Duration) ([]string, error)
	UpsertOverview(ctx context.Context, overview models.CompanyOverview) error
}

type BarRepo struct {
	bc  *mongo.Collection
	oc  *mongo.Collection
	now func() time.Time
}

func NewBarRepo(barCollection, overviewCollection *mongo.Collection) *BarRepo {
	return &BarRepo{bc: barCollection, oc: overviewCollection, now: time.Now}
}

func (rp *BarRepo) LatestBar(ctx context.Context, symbol string) (*models.DailyBar, error) {
	var bar models.DailyBar
	err := rp.bc.FindOne(ctx, bson.M{"symbol": symbol}, options.FindOne().
		SetSort(bson.D{{Key: "tradingDay", Value: -1}})).Decode(&bar)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bar, nil
}

// InsertBars appends bars and returns how many were new. Days that already
// exist are left untouched.
func (rp *BarRepo) InsertBars(ctx context.Context, bars []models.DailyBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	docs := make([]any, len(bars))
	for i := range bars {
		docs[i] = bars[i]
	}

	_, err := rp.bc.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(bars), nil
	}
	if IsDuplicateKeyError(err) {
		bwe, _ := writeErrors(err)
		return len(bars) - len(bwe.WriteErrors), nil
	}
	return 0, fmt.Errorf("insert daily bars: %w", err)
}

// SymbolsNeedingOverview keeps the symbols whose overview is missing or older
// than maxAge, in input order.
func (rp *BarRepo) SymbolsNeedingOverview(ctx context.Context, symbols []string, maxAge time.Duration) ([]string, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	cutoff := rp.now().Add(-maxAge)
	results, err := rp.oc.Find(ctx, bson.M{
		"_id":       bson.M{"$in": symbols},
		"updatedAt": bson.M{"$gte": cutoff},
	}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer results.Close(ctx)

	var fresh []struct {
		Symbol string `bson:"_id"`
	}
	if err := results.All(ctx, &fresh); err != nil {
		return nil, err
	}
	skip := make(map[string]struct{}, len(fresh))
	for _, f := range fresh {
		skip[f.Symbol] = struct{}{}
	}

	due := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := skip[s]; !ok {
			due = append(due, s)
		}
	}
	return due, nil
}

func (rp *BarRepo) UpsertOverview(ctx context.Context, overview models.CompanyOverview) error {
	if overview.UpdatedAt.IsZero() {
		overview.UpdatedAt = rp.now()
	}
	_, err := rp.oc.ReplaceOne(ctx, bson.M{"_id": overview.Symbol}, overview, options.Replace().SetUpsert(true))
	return err
}
