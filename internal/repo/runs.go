package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ndx-snapshot-backend/internal/models"
)

type RunRepoItf interface {
	RecordSyncRun(ctx context.Context, rec models.SyncRunRecord) error
	StartRun(ctx context.Context, rec models.SyncRunRecord) (primitive.ObjectID, error)
	UpdatePending(ctx context.Context, id primitive.ObjectID, pending []string) error
	FinishRun(ctx context.Context, id primitive.ObjectID, update models.SyncRunRecord) error
	FindResumableRun(ctx context.Context, runType string) (*models.SyncRunRecord, error)
}

// RunRepo stores audit records of refresh and ingestion runs.
type RunRepo struct {
	rc *mongo.Collection
}

func NewRunRepo(runCollection *mongo.Collection) *RunRepo {
	return &RunRepo{rc: runCollection}
}

func (rp *RunRepo) RecordSyncRun(ctx context.Context, rec models.SyncRunRecord) error {
	_, err := rp.StartRun(ctx, rec)
	return err
}

func (rp *RunRepo) StartRun(ctx context.Context, rec models.SyncRunRecord) (primitive.ObjectID, error) {
	if rec.Id.IsZero() {
		rec.Id = primitive.NewObjectID()
	}
	if rec.RefreshedSymbols == nil {
		rec.RefreshedSymbols = []string{}
	}
	if rec.SkippedSymbols == nil {
		rec.SkippedSymbols = []string{}
	}
	if _, err := rp.rc.InsertOne(ctx, rec); err != nil {
		return primitive.NilObjectID, err
	}
	return rec.Id, nil
}

func (rp *RunRepo) UpdatePending(ctx context.Context, id primitive.ObjectID, pending []string) error {
	if pending == nil {
		pending = []string{}
	}
	_, err := rp.rc.UpdateByID(ctx, id, bson.M{"$set": bson.M{"pendingSymbols": pending}})
	return err
}

// FinishRun stamps the final status, counters and pending list of a run.
func (rp *RunRepo) FinishRun(ctx context.Context, id primitive.ObjectID, update models.SyncRunRecord) error {
	pending := update.PendingSymbols
	if pending == nil {
		pending = []string{}
	}
	set := bson.M{
		"status":         update.Status,
		"finishedAt":     update.FinishedAt,
		"durationMs":     update.DurationMs,
		"pendingSymbols": pending,
	}
	if update.RefreshedSymbols != nil {
		set["refreshedSymbols"] = update.RefreshedSymbols
	}
	if update.SkippedSymbols != nil {
		set["skippedSymbols"] = update.SkippedSymbols
	}
	if update.Metadata != nil {
		set["metadata"] = update.Metadata
	}
	if update.Error != "" {
		set["error"] = update.Error
	}
	_, err := rp.rc.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// FindResumableRun returns the newest run of runType that never finished and
// still has pending symbols, or nil.
func (rp *RunRepo) FindResumableRun(ctx context.Context, runType string) (*models.SyncRunRecord, error) {
	filter := bson.M{
		"type":             runType,
		"status":           models.SyncStatusRunning,
		"pendingSymbols.0": bson.M{"$exists": true},
	}
	var rec models.SyncRunRecord
	err := rp.rc.FindOne(ctx, filter, options.FindOne().
		SetSort(bson.D{{Key: "createdAt", Value: -1}})).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RunDuration is the elapsed milliseconds between two instants, never negative.
func RunDuration(start, end time.Time) int64 {
	if d := end.Sub(start).Milliseconds(); d > 0 {
		return d
	}
	return 0
}
