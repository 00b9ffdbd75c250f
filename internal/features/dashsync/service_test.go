package dashsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"byov-backend/internal/features/document"
	"byov-backend/internal/features/enrollment"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeEnrollRepo keeps enrollments in memory, keyed by hex id.
type fakeEnrollRepo struct {
	mu   sync.Mutex
	recs map[string]*enrollment.Enrollment
}

func newFakeEnrollRepo(recs ...*enrollment.Enrollment) *fakeEnrollRepo {
	r := &fakeEnrollRepo{recs: map[string]*enrollment.Enrollment{}}
	for _, rec := range recs {
		if rec.ID.IsZero() {
			rec.ID = primitive.NewObjectID()
		}
		r.recs[rec.ID.Hex()] = rec
	}
	return r
}

func (r *fakeEnrollRepo) Create(ctx context.Context, rec *enrollment.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	r.recs[rec.ID.Hex()] = rec
	return nil
}

func (r *fakeEnrollRepo) Get(ctx context.Context, id string) (*enrollment.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return nil, fmt.Errorf("enrollment %s not found", id)
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeEnrollRepo) List(ctx context.Context, filter map[string]interface{}, limit int64) ([]enrollment.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []enrollment.Enrollment
	for _, rec := range r.recs {
		out = append(out, *rec)
	}
	return out, nil
}

func (r *fakeEnrollRepo) ListApproved(ctx context.Context) ([]enrollment.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []enrollment.Enrollment
	for _, rec := range r.recs {
		if rec.Approved {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeEnrollRepo) ListWithFailedUploads(ctx context.Context) ([]enrollment.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []enrollment.Enrollment
	for _, rec := range r.recs {
		if rec.FailedUploadCount > 0 {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeEnrollRepo) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return nil
}

func (r *fakeEnrollRepo) SetDashboardSyncInfo(ctx context.Context, id string, dashboardTechID string, reportJSON []byte, failedCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return fmt.Errorf("enrollment %s not found", id)
	}
	rec.LastUploadReport = string(reportJSON)
	rec.FailedUploadCount = failedCount
	if dashboardTechID != "" {
		rec.DashboardTechID = dashboardTechID
	}
	return nil
}

func (r *fakeEnrollRepo) MarkSynced(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[id]
	if !ok {
		return fmt.Errorf("enrollment %s not found", id)
	}
	now := time.Now()
	rec.SyncedAt = &now
	return nil
}

// fakeDocRepo serves a fixed set of document rows.
type fakeDocRepo struct {
	docs []*document.Document
}

func (r *fakeDocRepo) Save(ctx context.Context, doc *document.Document) error {
	r.docs = append(r.docs, doc)
	return nil
}

func (r *fakeDocRepo) FindByEnrollment(ctx context.Context, enrollmentID string) ([]*document.Document, error) {
	var out []*document.Document
	for _, d := range r.docs {
		if d.EnrollmentID == enrollmentID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDocRepo) CategoryByPath(ctx context.Context, enrollmentID string) (map[string]string, error) {
	mapping := map[string]string{}
	for _, d := range r.docs {
		if d.EnrollmentID == enrollmentID {
			mapping[d.FilePath] = d.DocType
		}
	}
	return mapping, nil
}

func (r *fakeDocRepo) Delete(ctx context.Context, id string) error { return nil }

// fakeSyncLogRepo records sync logs in memory.
type fakeSyncLogRepo struct {
	mu   sync.Mutex
	logs []*SyncLog
}

func (r *fakeSyncLogRepo) Create(ctx context.Context, log *SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeSyncLogRepo) Update(ctx context.Context, log *SyncLog) error { return nil }

func (r *fakeSyncLogRepo) List(ctx context.Context, enrollmentID string, limit int64) ([]SyncLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []SyncLog
	for _, l := range r.logs {
		if l.EnrollmentID == enrollmentID {
			out = append(out, *l)
		}
	}
	return out, nil
}

// dashServer is a scripted dashboard for exercising full sync flows.
type dashServer struct {
	*httptest.Server

	mu               sync.Mutex
	createCalls      int
	existing         string // JSON array returned by GET /api/technicians
	createStatus     int
	createBody       string
	externalStatus   int
	externalBody     string
	rejectCategories map[string]bool
	putCategories    []string
	registered       []UploadEntry
}

func newDashServer() *dashServer {
	ds := &dashServer{
		existing:       `[]`,
		createStatus:   http.StatusCreated,
		createBody:     `{"technician": {"id": "D1"}}`,
		externalStatus: http.StatusCreated,
		externalBody:   `{"technician": {"id": "D2"}}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s"})
		w.Write([]byte(`{"ok": true}`))
	})
	mux.HandleFunc("/api/technicians", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(ds.existing))
			return
		}
		ds.mu.Lock()
		ds.createCalls++
		ds.mu.Unlock()
		w.WriteHeader(ds.createStatus)
		w.Write([]byte(ds.createBody))
	})
	mux.HandleFunc("/api/external/technicians", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(ds.externalStatus)
		w.Write([]byte(ds.externalBody))
	})
	mux.HandleFunc("/api/objects/upload", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Category string `json:"category"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if ds.rejectCategories[body.Category] {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		fmt.Fprintf(w, `{"uploadURL": %q}`, ds.URL+"/storage/"+body.Category)
	})
	mux.HandleFunc("/storage/", func(w http.ResponseWriter, r *http.Request) {
		ds.mu.Lock()
		ds.putCategories = append(ds.putCategories, strings.TrimPrefix(r.URL.Path, "/storage/"))
		ds.mu.Unlock()
	})
	mux.HandleFunc("/api/technicians/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/photos/batch") {
			var body struct {
				Photos []UploadEntry `json:"photos"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			ds.mu.Lock()
			ds.registered = append(ds.registered, body.Photos...)
			ds.mu.Unlock()
			_ = json.NewEncoder(w).Encode(body.Photos)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/photos") {
			var entry UploadEntry
			_ = json.NewDecoder(r.Body).Decode(&entry)
			ds.mu.Lock()
			ds.registered = append(ds.registered, entry)
			ds.mu.Unlock()
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"ok": true}`))
	})

	ds.Server = httptest.NewServer(mux)
	return ds
}

func newTestService(ds *dashServer, enrollRepo *fakeEnrollRepo, docRepo *fakeDocRepo, storage document.Storage) *SyncServiceImpl {
	return &SyncServiceImpl{
		Dash:       DashboardConfig{BaseURL: ds.URL, Username: "u", Password: "p"},
		EnrollRepo: enrollRepo,
		DocRepo:    docRepo,
		Storage:    storage,
		State:      NewSyncStateStore(enrollRepo),
		SyncLogs:   &fakeSyncLogRepo{},
		Retry:      quickRetry(),
		Logger:     zap.NewNop(),
	}
}

func testEnrollment() *enrollment.Enrollment {
	return &enrollment.Enrollment{
		ID:       primitive.NewObjectID(),
		TechID:   "t77",
		FullName: "Dana Reyes",
		State:    "TX",
	}
}

func TestPushHappyPath(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()

	rec := testEnrollment()
	enrollRepo := newFakeEnrollRepo(rec)
	docRepo := &fakeDocRepo{docs: []*document.Document{
		{EnrollmentID: rec.ID.Hex(), DocType: "vehicle", FilePath: "truck.jpg"},
		{EnrollmentID: rec.ID.Hex(), DocType: "insurance", FilePath: "ins.pdf"},
	}}
	storage := &fakeStorage{files: map[string][]byte{
		"truck.jpg": []byte("jpeg"),
		"ins.pdf":   []byte("pdf"),
	}}

	svc := newTestService(ds, enrollRepo, docRepo, storage)
	result, err := svc.Push(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	if result.Status != StatusCreated {
		t.Errorf("Status = %q, want created", result.Status)
	}
	if result.PhotoCount != 2 {
		t.Errorf("PhotoCount = %d, want 2", result.PhotoCount)
	}
	if len(result.Failed) != 0 {
		t.Errorf("Failed = %+v, want none", result.Failed)
	}

	saved, _ := enrollRepo.Get(context.Background(), rec.ID.Hex())
	if saved.DashboardTechID != "D1" {
		t.Errorf("DashboardTechID = %q, want D1", saved.DashboardTechID)
	}
	if saved.SyncedAt == nil {
		t.Error("SyncedAt not set after successful push")
	}
	if saved.FailedUploadCount != 0 {
		t.Errorf("FailedUploadCount = %d, want 0", saved.FailedUploadCount)
	}

	var report SyncReport
	if err := json.Unmarshal([]byte(saved.LastUploadReport), &report); err != nil {
		t.Fatalf("stored report not valid JSON: %v", err)
	}
	if report.DashboardTechID != "D1" || report.PhotoCount != 2 {
		t.Errorf("stored report = %+v", report)
	}
	if len(ds.putCategories) != 2 {
		t.Errorf("storage PUTs = %v, want 2", ds.putCategories)
	}
}

func TestPushIdempotentWhenTechnicianExists(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()
	ds.existing = `[{"id": 7, "techId": "T77"}]`

	rec := testEnrollment()
	enrollRepo := newFakeEnrollRepo(rec)
	svc := newTestService(ds, enrollRepo, &fakeDocRepo{}, &fakeStorage{})

	result, err := svc.Push(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if result.Status != StatusExists {
		t.Errorf("Status = %q, want exists", result.Status)
	}
	if ds.createCalls != 0 {
		t.Errorf("create called %d times for an existing technician, want 0", ds.createCalls)
	}
	if len(ds.putCategories) != 0 {
		t.Errorf("documents uploaded for an existing technician: %v", ds.putCategories)
	}

	saved, _ := enrollRepo.Get(context.Background(), rec.ID.Hex())
	if saved.DashboardTechID != "7" {
		t.Errorf("DashboardTechID = %q, want remote id saved", saved.DashboardTechID)
	}
}

func TestPushRejectedCreateWritesNothingLocally(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()
	ds.createStatus = http.StatusUnprocessableEntity
	ds.createBody = `{"error": "duplicate VIN"}`

	rec := testEnrollment()
	enrollRepo := newFakeEnrollRepo(rec)
	svc := newTestService(ds, enrollRepo, &fakeDocRepo{}, &fakeStorage{})

	_, err := svc.Push(context.Background(), rec.ID.Hex())
	if err == nil {
		t.Fatal("Push() error = nil, want rejection")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error %q does not name the status", err)
	}

	saved, _ := enrollRepo.Get(context.Background(), rec.ID.Hex())
	if saved.DashboardTechID != "" || saved.LastUploadReport != "" || saved.SyncedAt != nil {
		t.Errorf("local record mutated after rejected create: %+v", saved)
	}
}

func TestPushMissingTechIDFailsBeforeNetwork(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()

	rec := testEnrollment()
	rec.TechID = ""
	enrollRepo := newFakeEnrollRepo(rec)
	svc := newTestService(ds, enrollRepo, &fakeDocRepo{}, &fakeStorage{})

	_, err := svc.Push(context.Background(), rec.ID.Hex())
	if err == nil || !strings.Contains(err.Error(), "tech_id") {
		t.Fatalf("Push() error = %v, want missing tech_id validation", err)
	}
	if ds.createCalls != 0 {
		t.Error("network reached despite failed validation")
	}
}

func TestPushInlinePartialSuccessMarksSynced(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()
	ds.externalStatus = http.StatusMultiStatus
	ds.externalBody = `{"technician": {"id": "D2"}, "failed": [{"category": "insurance", "reason": "unreadable"}]}`

	rec := testEnrollment()
	enrollRepo := newFakeEnrollRepo(rec)
	docRepo := &fakeDocRepo{docs: []*document.Document{
		{EnrollmentID: rec.ID.Hex(), DocType: "vehicle", FilePath: "truck.jpg"},
		{EnrollmentID: rec.ID.Hex(), DocType: "insurance", FilePath: "ins.pdf"},
	}}
	storage := &fakeStorage{files: map[string][]byte{
		"truck.jpg": []byte("jpeg"),
		"ins.pdf":   []byte("pdf"),
	}}

	svc := newTestService(ds, enrollRepo, docRepo, storage)
	result, err := svc.PushInline(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("PushInline() error = %v", err)
	}

	if result.Status != StatusPartial {
		t.Errorf("Status = %q, want partial", result.Status)
	}
	if len(result.Failed) != 1 || result.Failed[0].Path != "ins.pdf" {
		t.Errorf("Failed = %+v, want insurance mapped back to ins.pdf", result.Failed)
	}

	saved, _ := enrollRepo.Get(context.Background(), rec.ID.Hex())
	if saved.SyncedAt == nil {
		t.Error("partial success must still mark the record synced")
	}
	if saved.DashboardTechID != "D2" {
		t.Errorf("DashboardTechID = %q, want D2", saved.DashboardTechID)
	}
	if saved.FailedUploadCount != 1 {
		t.Errorf("FailedUploadCount = %d, want 1", saved.FailedUploadCount)
	}
}

func TestPushInlineTotalFailureWritesNothing(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()
	ds.externalStatus = http.StatusInternalServerError
	ds.externalBody = `{"error": "database down"}`

	rec := testEnrollment()
	enrollRepo := newFakeEnrollRepo(rec)
	svc := newTestService(ds, enrollRepo, &fakeDocRepo{}, &fakeStorage{})

	_, err := svc.PushInline(context.Background(), rec.ID.Hex())
	if err == nil {
		t.Fatal("PushInline() error = nil, want total failure")
	}

	saved, _ := enrollRepo.Get(context.Background(), rec.ID.Hex())
	if saved.DashboardTechID != "" || saved.LastUploadReport != "" || saved.SyncedAt != nil {
		t.Errorf("local record mutated after total failure: %+v", saved)
	}
}

func TestRetryFailedNothingToDo(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()

	rec := testEnrollment()
	rec.LastUploadReport = `{"dashboard_tech_id": "D1", "photo_count": 3}`
	enrollRepo := newFakeEnrollRepo(rec)
	svc := newTestService(ds, enrollRepo, &fakeDocRepo{}, &fakeStorage{})

	result, err := svc.RetryFailed(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("RetryFailed() error = %v", err)
	}
	if result.RetriedCount != 0 || result.RemainingFailed != 0 {
		t.Errorf("result = %+v, want zero work", result)
	}
	if len(ds.putCategories) != 0 || ds.createCalls != 0 {
		t.Error("network reached for an empty failure list")
	}
}

func TestRetryFailedAccumulatesAndReclassifies(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()
	ds.rejectCategories = map[string]bool{"vehicle": true}

	rec := testEnrollment()
	rec.DashboardTechID = "D1"
	rec.LastUploadReport = `{"dashboard_tech_id": "D1", "photo_count": 2, "failed_uploads": [` +
		`{"path": "ins.pdf", "reason": "timeout"}, {"path": "orphan.jpg", "reason": "timeout"}]}`
	rec.FailedUploadCount = 2

	enrollRepo := newFakeEnrollRepo(rec)
	docRepo := &fakeDocRepo{docs: []*document.Document{
		{EnrollmentID: rec.ID.Hex(), DocType: "insurance", FilePath: "ins.pdf"},
	}}
	storage := &fakeStorage{files: map[string][]byte{
		"ins.pdf":    []byte("pdf"),
		"orphan.jpg": []byte("jpeg"),
	}}

	svc := newTestService(ds, enrollRepo, docRepo, storage)
	result, err := svc.RetryFailed(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("RetryFailed() error = %v", err)
	}

	if result.RetriedCount != 2 {
		t.Errorf("RetriedCount = %d, want 2", result.RetriedCount)
	}
	// orphan.jpg falls back to category vehicle, which the dashboard rejects
	if result.RemainingFailed != 1 || result.StillFailed[0].Path != "orphan.jpg" {
		t.Errorf("StillFailed = %+v, want orphan.jpg only", result.StillFailed)
	}

	saved, _ := enrollRepo.Get(context.Background(), rec.ID.Hex())
	var report SyncReport
	if err := json.Unmarshal([]byte(saved.LastUploadReport), &report); err != nil {
		t.Fatal(err)
	}
	if report.PhotoCount != 3 {
		t.Errorf("PhotoCount = %d, want 2 prior + 1 recovered", report.PhotoCount)
	}
	if len(report.FailedUploads) != 1 {
		t.Errorf("FailedUploads = %+v, want replaced by still-failing subset", report.FailedUploads)
	}
	if saved.FailedUploadCount != 1 {
		t.Errorf("FailedUploadCount = %d, want 1", saved.FailedUploadCount)
	}
}

func TestRetryFailedWithoutDashboardID(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()

	rec := testEnrollment()
	rec.LastUploadReport = `{"photo_count": 0, "failed_uploads": [{"path": "a.jpg", "reason": "x"}]}`
	enrollRepo := newFakeEnrollRepo(rec)
	svc := newTestService(ds, enrollRepo, &fakeDocRepo{}, &fakeStorage{})

	_, err := svc.RetryFailed(context.Background(), rec.ID.Hex())
	if err != ErrNotSynced {
		t.Errorf("error = %v, want ErrNotSynced", err)
	}
}

func TestSyncReportRoundTrip(t *testing.T) {
	rec := testEnrollment()
	enrollRepo := newFakeEnrollRepo(rec)
	store := NewSyncStateStore(enrollRepo)

	original := &SyncReport{
		DashboardTechID: "D9",
		PhotoCount:      4,
		FailedUploads: []FailedUpload{
			{Path: "a.jpg", Reason: "size_exceeded"},
			{Path: "b.pdf", Reason: "storage PUT rejected with status 500"},
		},
		Response: json.RawMessage(`{"technician": {"id": "D9"}}`),
	}

	if err := store.SaveSyncInfo(context.Background(), rec.ID.Hex(), "D9", original); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.LastReport(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatal(err)
	}

	if loaded.DashboardTechID != original.DashboardTechID || loaded.PhotoCount != original.PhotoCount {
		t.Errorf("round trip changed scalars: %+v", loaded)
	}
	if len(loaded.FailedUploads) != 2 || loaded.FailedUploads[1].Reason != original.FailedUploads[1].Reason {
		t.Errorf("round trip changed failures: %+v", loaded.FailedUploads)
	}
	// Marshalling compacts the embedded raw response, so compare compacted.
	var want bytes.Buffer
	if err := json.Compact(&want, []byte(original.Response)); err != nil {
		t.Fatal(err)
	}
	if string(loaded.Response) != want.String() {
		t.Errorf("Response = %s, want %s", loaded.Response, want.String())
	}
}

func TestPushUpdateResolvesIDByProbe(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()
	ds.existing = `[{"id": 7, "techId": "T77"}]`

	rec := testEnrollment() // no DashboardTechID saved locally
	enrollRepo := newFakeEnrollRepo(rec)
	svc := newTestService(ds, enrollRepo, &fakeDocRepo{}, &fakeStorage{})

	result, err := svc.PushUpdate(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("PushUpdate() error = %v", err)
	}
	if result.Status != StatusUpdated {
		t.Errorf("Status = %q, want updated", result.Status)
	}

	saved, _ := enrollRepo.Get(context.Background(), rec.ID.Hex())
	if saved.DashboardTechID != "7" {
		t.Errorf("DashboardTechID = %q, want backfilled 7", saved.DashboardTechID)
	}
}

func TestPushUpdateUnknownTechnician(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()

	rec := testEnrollment()
	enrollRepo := newFakeEnrollRepo(rec)
	svc := newTestService(ds, enrollRepo, &fakeDocRepo{}, &fakeStorage{})

	if _, err := svc.PushUpdate(context.Background(), rec.ID.Hex()); err != ErrNotSynced {
		t.Errorf("error = %v, want ErrNotSynced", err)
	}
}

func TestPushInlinePartialWithoutDetailKeepsAllRetryable(t *testing.T) {
	ds := newDashServer()
	defer ds.Close()
	ds.externalStatus = http.StatusMultiStatus
	ds.externalBody = `{"technician": {"id": "D2"}}`

	rec := testEnrollment()
	enrollRepo := newFakeEnrollRepo(rec)
	docRepo := &fakeDocRepo{docs: []*document.Document{
		{EnrollmentID: rec.ID.Hex(), DocType: "vehicle", FilePath: "truck.jpg"},
		{EnrollmentID: rec.ID.Hex(), DocType: "insurance", FilePath: "ins.pdf"},
	}}
	storage := &fakeStorage{files: map[string][]byte{
		"truck.jpg": []byte("jpeg"),
		"ins.pdf":   []byte("pdf"),
	}}

	svc := newTestService(ds, enrollRepo, docRepo, storage)
	result, err := svc.PushInline(context.Background(), rec.ID.Hex())
	if err != nil {
		t.Fatalf("PushInline() error = %v", err)
	}

	if result.Status != StatusPartial {
		t.Errorf("Status = %q, want partial", result.Status)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("Failed = %+v, want both documents kept retryable", result.Failed)
	}
	if result.PhotoCount != 0 {
		t.Errorf("PhotoCount = %d, want 0 when no success could be attributed", result.PhotoCount)
	}

	saved, _ := enrollRepo.Get(context.Background(), rec.ID.Hex())
	if saved.FailedUploadCount != 2 {
		t.Errorf("FailedUploadCount = %d, want 2", saved.FailedUploadCount)
	}
}

func TestRejectedPhotosRepeatedCategory(t *testing.T) {
	refs := []DocumentRef{
		{Category: "vehicle", Path: "front.jpg"},
		{Category: "vehicle", Path: "rear.jpg"},
		{Category: "insurance", Path: "ins.pdf"},
	}
	body := json.RawMessage(`{"failed": [
		{"category": "vehicle", "reason": "blurry"},
		{"category": "vehicle", "reason": "too dark"}
	]}`)

	failed := rejectedPhotos(body, refs)
	if len(failed) != 2 {
		t.Fatalf("got %d failures, want 2", len(failed))
	}
	if failed[0].Path != "front.jpg" || failed[1].Path != "rear.jpg" {
		t.Errorf("paths = %q, %q, want front.jpg then rear.jpg", failed[0].Path, failed[1].Path)
	}
	if failed[0].Reason != "blurry" || failed[1].Reason != "too dark" {
		t.Errorf("reasons = %q, %q", failed[0].Reason, failed[1].Reason)
	}
}
