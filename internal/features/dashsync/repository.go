package dashsync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"byov-backend/internal/database"
	"byov-backend/internal/features/enrollment"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SyncStateStore persists, per enrollment, the external record id and the
// report of what succeeded and failed, so a later retry can target only the
// failures. The report is stored as raw JSON and round-trips losslessly.
type SyncStateStore interface {
	SaveSyncInfo(ctx context.Context, enrollmentID string, dashboardTechID string, report *SyncReport) error
	LastReport(ctx context.Context, enrollmentID string) (*SyncReport, error)
}

// EnrollmentSyncStateStore keeps sync state on the enrollment record
// itself, mirroring the dashboard_tech_id / last_upload_report columns of
// the local store.
type EnrollmentSyncStateStore struct {
	Repo enrollment.EnrollmentRepository
}

func NewSyncStateStore(repo enrollment.EnrollmentRepository) SyncStateStore {
	return &EnrollmentSyncStateStore{
		Repo: repo,
	}
}

func (s *EnrollmentSyncStateStore) SaveSyncInfo(ctx context.Context, enrollmentID string, dashboardTechID string, report *SyncReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode sync report: %w", err)
	}
	return s.Repo.SetDashboardSyncInfo(ctx, enrollmentID, dashboardTechID, data, len(report.FailedUploads))
}

func (s *EnrollmentSyncStateStore) LastReport(ctx context.Context, enrollmentID string) (*SyncReport, error) {
	rec, err := s.Repo.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if rec.LastUploadReport == "" {
		return nil, nil
	}

	var report SyncReport
	if err := json.Unmarshal([]byte(rec.LastUploadReport), &report); err != nil {
		return nil, fmt.Errorf("decode sync report: %w", err)
	}
	if report.DashboardTechID == "" {
		report.DashboardTechID = rec.DashboardTechID
	}
	return &report, nil
}

type SyncLogRepository interface {
	Create(ctx context.Context, log *SyncLog) error
	Update(ctx context.Context, log *SyncLog) error
	List(ctx context.Context, enrollmentID string, limit int64) ([]SyncLog, error)
}

type SyncLogRepositoryImpl struct {
	collection *mongo.Collection
}

func NewSyncLogRepository(db *database.MongodbDB) SyncLogRepository {
	return &SyncLogRepositoryImpl{
		collection: db.DB.Collection("sync_logs"),
	}
}

func (r *SyncLogRepositoryImpl) Create(ctx context.Context, log *SyncLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	if log.StartTime.IsZero() {
		log.StartTime = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, log)
	return err
}

func (r *SyncLogRepositoryImpl) Update(ctx context.Context, log *SyncLog) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": log.ID}, log)
	return err
}

func (r *SyncLogRepositoryImpl) List(ctx context.Context, enrollmentID string, limit int64) ([]SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"enrollment_id": enrollmentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []SyncLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}

	return logs, nil
}
