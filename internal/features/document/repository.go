package document

import (
	"context"
	"time"

	"byov-backend/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type DocumentRepository interface {
	Save(ctx context.Context, doc *Document) error
	FindByEnrollment(ctx context.Context, enrollmentID string) ([]*Document, error)
	CategoryByPath(ctx context.Context, enrollmentID string) (map[string]string, error)
	Delete(ctx context.Context, id string) error
}

type DocumentRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDocumentRepository(mongodb *database.MongodbDB) DocumentRepository {
	return &DocumentRepositoryImpl{
		Collection: mongodb.DB.Collection("documents"),
	}
}

func (r *DocumentRepositoryImpl) Save(ctx context.Context, doc *Document) error {
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	_, err := r.Collection.InsertOne(ctx, doc)
	return err
}

func (r *DocumentRepositoryImpl) FindByEnrollment(ctx context.Context, enrollmentID string) ([]*Document, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"enrollment_id": enrollmentID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// CategoryByPath maps each stored file path to its document category.
// Used by the resume orchestrator to re-resolve categories for failed paths.
func (r *DocumentRepositoryImpl) CategoryByPath(ctx context.Context, enrollmentID string) (map[string]string, error) {
	docs, err := r.FindByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	mapping := make(map[string]string, len(docs))
	for _, d := range docs {
		mapping[d.FilePath] = d.DocType
	}
	return mapping, nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
