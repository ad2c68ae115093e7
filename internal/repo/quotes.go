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

type QuoteRepoItf interface {
	GetLatest(ctx context.Context, symbols []string) ([]models.QuoteDocument, error)
	GetMetadata(ctx context.Context) (models.QuoteMetadata, error)
	UpsertLatest(ctx context.Context, docs []models.QuoteDocument) error
	AppendDailySnapshots(ctx context.Context, docs []models.DailySnapshotDocument) error
	RecordSyncRun(ctx context.Context, rec models.SyncRunRecord) error
}

type QuoteRepo struct {
	latest *mongo.Collection
	daily  *mongo.Collection
	*RunRepo
}

func NewQuoteRepo(latestCollection, dailyCollection, runCollection *mongo.Collection) *QuoteRepo {
	return &QuoteRepo{latest: latestCollection, daily: dailyCollection, RunRepo: NewRunRepo(runCollection)}
}

// GetLatest returns the latest documents for symbols, or every document when
// symbols is empty, ordered by symbol.
func (rp *QuoteRepo) GetLatest(ctx context.Context, symbols []string) ([]models.QuoteDocument, error) {
	filter := bson.M{}
	if len(symbols) > 0 {
		filter = bson.M{"_id": bson.M{"$in": symbols}}
	}
	results, err := rp.latest.Find(ctx, filter, options.Find().SetSort(
		bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer results.Close(ctx)

	var docs []models.QuoteDocument
	if err = results.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (rp *QuoteRepo) GetMetadata(ctx context.Context) (models.QuoteMetadata, error) {
	count, err := rp.latest.CountDocuments(ctx, bson.M{})
	if err != nil {
		return models.QuoteMetadata{}, err
	}

	var newest struct {
		FetchedAt time.Time `bson:"fetchedAt"`
	}
	err = rp.latest.FindOne(ctx, bson.M{}, options.FindOne().
		SetSort(bson.D{{Key: "fetchedAt", Value: -1}}).
		SetProjection(bson.M{"fetchedAt": 1})).Decode(&newest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.QuoteMetadata{Count: count}, nil
	}
	if err != nil {
		return models.QuoteMetadata{}, err
	}
	return models.QuoteMetadata{Count: count, NewestFetchedAt: &newest.FetchedAt}, nil
}

// UpsertLatest writes all documents as one unordered batch. Per-document
// failures come back as *PersistenceError; anything else is fatal.
func (rp *QuoteRepo) UpsertLatest(ctx context.Context, docs []models.QuoteDocument) error {
	if len(docs) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": doc.Symbol}).
			SetUpdate(bson.M{"$set": bson.M{
				"fetchedAt":  doc.FetchedAt,
				"quote":      doc.Quote,
				"rawQuote":   doc.RawQuote,
				"rawSummary": doc.RawSummary,
				"rawSpark":   doc.RawSpark,
			}}).
			SetUpsert(true))
	}

	_, err := rp.latest.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err == nil {
		return nil
	}
	if bwe, ok := writeErrors(err); ok {
		failed := make([]string, 0, len(bwe.WriteErrors))
		for _, we := range bwe.WriteErrors {
			if we.Index >= 0 && we.Index < len(docs) {
				failed = append(failed, docs[we.Index].Symbol)
			}
		}
		return &PersistenceError{Op: "upsert latest quotes", FailedSymbols: failed, Err: err}
	}
	return fmt.Errorf("upsert latest quotes: %w", err)
}

// AppendDailySnapshots inserts snapshots that do not exist yet. An existing
// (symbol, asOf) row is never modified.
func (rp *QuoteRepo) AppendDailySnapshots(ctx context.Context, docs []models.DailySnapshotDocument) error {
	if len(docs) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, doc := range docs {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"symbol": doc.Symbol, "asOf": doc.AsOf}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}

	_, err := rp.daily.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	// concurrent upserts of the same day race on the unique index
	if err != nil && !IsDuplicateKeyError(err) {
		return fmt.Errorf("append daily snapshots: %w", err)
	}
	return nil
}
