package dashsync

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxDocumentBytes is the per-document size policy. Anything larger is
// rejected before any network call.
const MaxDocumentBytes = 10 << 20

// DashboardConfig carries the external dashboard endpoint and credentials.
// It is injected by the caller; the engine never reads the environment.
type DashboardConfig struct {
	BaseURL  string
	Username string
	Password string
}

// FailedUpload records one document that could not be shipped, with a
// human-readable reason.
type FailedUpload struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// SyncReport is the persisted outcome of the most recent sync or resume
// attempt for one enrollment. PhotoCount accumulates across resumes;
// FailedUploads is always the currently-failing subset.
type SyncReport struct {
	DashboardTechID string          `json:"dashboard_tech_id,omitempty"`
	PhotoCount      int             `json:"photo_count"`
	FailedUploads   []FailedUpload  `json:"failed_uploads,omitempty"`
	Response        json.RawMessage `json:"response,omitempty"`
}

// UploadEntry is the ephemeral per-document state of the two-phase flow:
// bytes are already at UploadURL, registration is still pending.
type UploadEntry struct {
	UploadURL string `json:"uploadURL"`
	Category  string `json:"category"`
	MimeType  string `json:"mimeType"`
	Path      string `json:"-"`
}

// DocumentRef names one document to ship: an opaque path plus its category.
type DocumentRef struct {
	Path     string
	Category string
}

type SyncStatus string

const (
	StatusCreated SyncStatus = "created"
	StatusExists  SyncStatus = "exists"
	StatusPartial SyncStatus = "partial"
	StatusUpdated SyncStatus = "updated"
)

// SyncResult is what a push returns to the caller.
type SyncResult struct {
	Status     SyncStatus     `json:"status"`
	StatusCode int            `json:"status_code,omitempty"`
	PhotoCount int            `json:"photo_count"`
	Failed     []FailedUpload `json:"failed_uploads,omitempty"`
	Report     *SyncReport    `json:"report,omitempty"`
}

// RetryResult is what a resume attempt returns.
type RetryResult struct {
	RetriedCount    int            `json:"retried_count"`
	RemainingFailed int            `json:"remaining_failed"`
	StillFailed     []FailedUpload `json:"still_failed,omitempty"`
}

// SyncLog records one sync attempt for diagnostics.
type SyncLog struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	EnrollmentID string             `json:"enrollment_id" bson:"enrollment_id"`
	Kind         string             `json:"kind" bson:"kind"` // "push", "push_inline", "retry"
	StartTime    time.Time          `json:"start_time" bson:"start_time"`
	EndTime      time.Time          `json:"end_time" bson:"end_time"`
	Status       string             `json:"status" bson:"status"` // "success", "partial", "exists", "failed", "in_progress"
	PhotoCount   int                `json:"photo_count" bson:"photo_count"`
	FailedCount  int                `json:"failed_count" bson:"failed_count"`
	Error        string             `json:"error,omitempty" bson:"error,omitempty"`
}
