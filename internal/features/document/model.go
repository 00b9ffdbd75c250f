package document

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Known document categories. The dashboard groups uploads by these.
const (
	CategoryVehicle      = "vehicle"
	CategoryInsurance    = "insurance"
	CategoryRegistration = "registration"
	CategorySignature    = "signature"
)

// ValidCategory reports whether docType is one the dashboard understands.
func ValidCategory(docType string) bool {
	switch docType {
	case CategoryVehicle, CategoryInsurance, CategoryRegistration, CategorySignature:
		return true
	}
	return false
}

// Document references one uploaded file belonging to an enrollment.
// FilePath is an opaque locator resolved to bytes by Storage.
type Document struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EnrollmentID string             `json:"enrollment_id" bson:"enrollment_id"`
	DocType      string             `json:"doc_type" bson:"doc_type"`
	FilePath     string             `json:"file_path" bson:"file_path"`
	MimeType     string             `json:"mime_type,omitempty" bson:"mime_type,omitempty"`
	Size         int64              `json:"size,omitempty" bson:"size,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}
