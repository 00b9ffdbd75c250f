package enrollment

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment is a technician's submitted vehicle-program application.
// Date fields are stored as the ISO-ish strings the wizard submitted;
// the sync engine normalizes them on the way out.
type Enrollment struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FullName    string             `json:"full_name" bson:"full_name"`
	TechID      string             `json:"tech_id" bson:"tech_id"`
	District    string             `json:"district,omitempty" bson:"district,omitempty"`
	State       string             `json:"state,omitempty" bson:"state,omitempty"`
	ReferredBy  string             `json:"referred_by,omitempty" bson:"referred_by,omitempty"`
	Industries  []string           `json:"industries,omitempty" bson:"industries,omitempty"`
	Year        string             `json:"year,omitempty" bson:"year,omitempty"`
	Make        string             `json:"make,omitempty" bson:"make,omitempty"`
	Model       string             `json:"model,omitempty" bson:"model,omitempty"`
	VIN         string             `json:"vin,omitempty" bson:"vin,omitempty"`
	TruckNumber string             `json:"truck_number,omitempty" bson:"truck_number,omitempty"`
	IsNewHire   bool               `json:"is_new_hire" bson:"is_new_hire"`

	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	Email     string `json:"email,omitempty" bson:"email,omitempty"`
	CityState string `json:"city_state,omitempty" bson:"city_state,omitempty"`

	InsuranceExp    string `json:"insurance_exp,omitempty" bson:"insurance_exp,omitempty"`
	RegistrationExp string `json:"registration_exp,omitempty" bson:"registration_exp,omitempty"`
	SubmissionDate  string `json:"submission_date,omitempty" bson:"submission_date,omitempty"`

	Approved   bool       `json:"approved" bson:"approved"`
	ApprovedAt *time.Time `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	ApprovedBy string     `json:"approved_by,omitempty" bson:"approved_by,omitempty"`

	// Sync metadata written back by the dashboard sync engine. The report is
	// kept as raw JSON so any engine-produced report round-trips losslessly.
	DashboardTechID   string     `json:"dashboard_tech_id,omitempty" bson:"dashboard_tech_id,omitempty"`
	LastUploadReport  string     `json:"last_upload_report,omitempty" bson:"last_upload_report,omitempty"`
	FailedUploadCount int        `json:"failed_upload_count" bson:"failed_upload_count"`
	SyncedAt          *time.Time `json:"synced_at,omitempty" bson:"synced_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
