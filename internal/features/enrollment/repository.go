package enrollment

import (
	"context"
	"time"

	"byov-backend/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, rec *Enrollment) error
	Get(ctx context.Context, id string) (*Enrollment, error)
	List(ctx context.Context, filter map[string]interface{}, limit int64) ([]Enrollment, error)
	ListApproved(ctx context.Context) ([]Enrollment, error)
	ListWithFailedUploads(ctx context.Context) ([]Enrollment, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	SetDashboardSyncInfo(ctx context.Context, id string, dashboardTechID string, reportJSON []byte, failedCount int) error
	MarkSynced(ctx context.Context, id string) error
}

type EnrollmentRepositoryImpl struct {
	collection *mongo.Collection
}

func NewEnrollmentRepository(db *database.MongodbDB) EnrollmentRepository {
	return &EnrollmentRepositoryImpl{
		collection: db.DB.Collection("enrollments"),
	}
}

func (r *EnrollmentRepositoryImpl) Create(ctx context.Context, rec *Enrollment) error {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, rec)
	return err
}

func (r *EnrollmentRepositoryImpl) Get(ctx context.Context, id string) (*Enrollment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var rec Enrollment
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *EnrollmentRepositoryImpl) List(ctx context.Context, filter map[string]interface{}, limit int64) ([]Enrollment, error) {
	if limit <= 0 {
		limit = 100
	}
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []Enrollment
	if err = cursor.All(ctx, &recs); err != nil {
		return nil, err
	}

	return recs, nil
}

func (r *EnrollmentRepositoryImpl) ListApproved(ctx context.Context) ([]Enrollment, error) {
	return r.List(ctx, map[string]interface{}{"approved": true}, 0)
}

func (r *EnrollmentRepositoryImpl) ListWithFailedUploads(ctx context.Context) ([]Enrollment, error) {
	return r.List(ctx, map[string]interface{}{"failed_upload_count": bson.M{"$gt": 0}}, 0)
}

func (r *EnrollmentRepositoryImpl) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	updates["updated_at"] = time.Now()
	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": updates},
	)
	return err
}

func (r *EnrollmentRepositoryImpl) SetDashboardSyncInfo(ctx context.Context, id string, dashboardTechID string, reportJSON []byte, failedCount int) error {
	updates := map[string]interface{}{
		"last_upload_report":  string(reportJSON),
		"failed_upload_count": failedCount,
	}
	if dashboardTechID != "" {
		updates["dashboard_tech_id"] = dashboardTechID
	}
	return r.Update(ctx, id, updates)
}

func (r *EnrollmentRepositoryImpl) MarkSynced(ctx context.Context, id string) error {
	now := time.Now()
	return r.Update(ctx, id, map[string]interface{}{"synced_at": now})
}
