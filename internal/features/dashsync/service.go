package dashsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"byov-backend/internal/config"
	"byov-backend/internal/features/document"
	"byov-backend/internal/features/enrollment"

	"go.uber.org/zap"
)

var ErrNotSynced = errors.New("enrollment has no dashboard record yet")

// OutcomeNotifier is told about completed pushes. Implementations must not
// block the sync path; delivery failures are logged, never returned.
type OutcomeNotifier interface {
	NotifySyncOutcome(enrollmentID, techID string, result *SyncResult) error
}

type SyncService interface {
	Push(ctx context.Context, enrollmentID string) (*SyncResult, error)
	PushInline(ctx context.Context, enrollmentID string) (*SyncResult, error)
	RetryFailed(ctx context.Context, enrollmentID string) (*RetryResult, error)
	PushUpdate(ctx context.Context, enrollmentID string) (*SyncResult, error)
	Pull(ctx context.Context, techID string) (json.RawMessage, error)
	LastReport(ctx context.Context, enrollmentID string) (*SyncReport, error)
	Logs(ctx context.Context, enrollmentID string) ([]SyncLog, error)
}

type SyncServiceImpl struct {
	Dash       DashboardConfig
	Username   string
	Password   string
	EnrollRepo enrollment.EnrollmentRepository
	DocRepo    document.DocumentRepository
	Storage    document.Storage
	State      SyncStateStore
	SyncLogs   SyncLogRepository
	Notifier   OutcomeNotifier
	Retry      RetryConfig
	Logger     *zap.Logger
}

func NewSyncService(
	cfg *config.Config,
	enrollRepo enrollment.EnrollmentRepository,
	docRepo document.DocumentRepository,
	storage document.Storage,
	state SyncStateStore,
	syncLogs SyncLogRepository,
	notifier OutcomeNotifier,
	logger *zap.Logger,
) SyncService {
	return &SyncServiceImpl{
		Dash: DashboardConfig{
			BaseURL:  cfg.DashboardURL,
			Username: cfg.DashboardUsername,
			Password: cfg.DashboardPassword,
		},
		EnrollRepo: enrollRepo,
		DocRepo:    docRepo,
		Storage:    storage,
		State:      state,
		SyncLogs:   syncLogs,
		Notifier:   notifier,
		Retry:      DefaultRetry(),
		Logger:     logger.With(zap.String("component", "dashboard_sync")),
	}
}

// session opens an authenticated dashboard client. The session cookie
// lives for exactly one sync call.
func (s *SyncServiceImpl) session(ctx context.Context) (*Client, error) {
	client, err := NewClient(s.Dash, s.Logger)
	if err != nil {
		return nil, err
	}
	if err := client.Login(ctx, s.Dash.Username, s.Dash.Password); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *SyncServiceImpl) documentRefs(ctx context.Context, enrollmentID string) ([]DocumentRef, error) {
	docs, err := s.DocRepo.FindByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	refs := make([]DocumentRef, 0, len(docs))
	for _, d := range docs {
		refs = append(refs, DocumentRef{Path: d.FilePath, Category: d.DocType})
	}
	return refs, nil
}

func (s *SyncServiceImpl) startLog(ctx context.Context, enrollmentID, kind string) *SyncLog {
	log := &SyncLog{
		EnrollmentID: enrollmentID,
		Kind:         kind,
		StartTime:    time.Now(),
		Status:       "in_progress",
	}
	if err := s.SyncLogs.Create(ctx, log); err != nil {
		s.Logger.Warn("could not record sync log", zap.Error(err))
	}
	return log
}

func (s *SyncServiceImpl) finishLog(ctx context.Context, log *SyncLog, status string, photoCount, failedCount int, opErr error) {
	log.EndTime = time.Now()
	log.Status = status
	log.PhotoCount = photoCount
	log.FailedCount = failedCount
	if opErr != nil {
		log.Error = opErr.Error()
	}
	if err := s.SyncLogs.Update(ctx, log); err != nil {
		s.Logger.Warn("could not finalize sync log", zap.Error(err))
	}
}

// Push creates the technician on the dashboard and ships every stored
// document through the two-phase upload flow. An enrollment whose techId is
// already on the dashboard is treated as already synced: the remote id is
// saved locally and nothing is uploaded.
func (s *SyncServiceImpl) Push(ctx context.Context, enrollmentID string) (*SyncResult, error) {
	rec, err := s.EnrollRepo.Get(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}

	payload, err := BuildTechnicianPayload(rec, time.Now())
	if err != nil {
		return nil, err
	}

	log := s.startLog(ctx, enrollmentID, "push")

	client, err := s.session(ctx)
	if err != nil {
		s.finishLog(ctx, log, "failed", 0, 0, err)
		return nil, err
	}

	techID := strings.ToUpper(rec.TechID)
	exists, remoteID, err := client.TechnicianExists(ctx, techID)
	if err != nil {
		s.Logger.Warn("existence check errored; proceeding to create",
			zap.String("tech_id", techID),
			zap.Error(err),
		)
	}
	if exists {
		s.Logger.Info("technician already on dashboard; skipping upload",
			zap.String("tech_id", techID),
			zap.String("dashboard_tech_id", remoteID),
		)
		report := &SyncReport{DashboardTechID: remoteID}
		if err := s.State.SaveSyncInfo(ctx, enrollmentID, remoteID, report); err != nil {
			s.finishLog(ctx, log, "failed", 0, 0, err)
			return nil, err
		}
		s.finishLog(ctx, log, "exists", 0, 0, nil)
		return &SyncResult{Status: StatusExists, Report: report}, nil
	}

	resp, err := client.CreateTechnician(ctx, payload)
	if err != nil {
		s.finishLog(ctx, log, "failed", 0, 0, err)
		return nil, fmt.Errorf("create technician: %w", err)
	}
	if !resp.OK() {
		err := fmt.Errorf("technician create rejected with status %d: %s",
			resp.StatusCode, truncate(resp.RawText+string(resp.JSON), 200))
		s.finishLog(ctx, log, "failed", 0, 0, err)
		return nil, err
	}

	dashTechID, err := ExtractTechnicianID(resp.Body())
	if err != nil {
		s.finishLog(ctx, log, "failed", 0, 0, err)
		return nil, err
	}

	refs, err := s.documentRefs(ctx, enrollmentID)
	if err != nil {
		s.finishLog(ctx, log, "failed", 0, 0, err)
		return nil, err
	}

	strategy := &TwoPhaseStrategy{Client: client, Storage: s.Storage, Retry: s.Retry, Logger: s.Logger}
	staged := strategy.Stage(ctx, refs)

	registrar := &Registrar{Client: client, Retry: s.Retry, Logger: s.Logger}
	registered, regFailed := registrar.RegisterAll(ctx, dashTechID, staged.Entries)

	failed := append(staged.Failed, regFailed...)
	report := &SyncReport{
		DashboardTechID: dashTechID,
		PhotoCount:      registered,
		FailedUploads:   failed,
		Response:        resp.Body(),
	}

	if err := s.State.SaveSyncInfo(ctx, enrollmentID, dashTechID, report); err != nil {
		s.finishLog(ctx, log, "failed", registered, len(failed), err)
		return nil, err
	}
	if err := s.EnrollRepo.MarkSynced(ctx, enrollmentID); err != nil {
		s.finishLog(ctx, log, "failed", registered, len(failed), err)
		return nil, err
	}

	status := "success"
	if len(failed) > 0 {
		status = "partial"
	}
	s.finishLog(ctx, log, status, registered, len(failed), nil)

	s.Logger.Info("enrollment pushed to dashboard",
		zap.String("enrollment_id", enrollmentID),
		zap.String("dashboard_tech_id", dashTechID),
		zap.Int("photo_count", registered),
		zap.Int("failed_count", len(failed)),
	)

	result := &SyncResult{
		Status:     StatusCreated,
		StatusCode: resp.StatusCode,
		PhotoCount: registered,
		Failed:     failed,
		Report:     report,
	}
	s.notify(enrollmentID, techID, result)
	return result, nil
}

func (s *SyncServiceImpl) notify(enrollmentID, techID string, result *SyncResult) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.NotifySyncOutcome(enrollmentID, techID, result); err != nil {
		s.Logger.Warn("sync outcome notification failed",
			zap.String("enrollment_id", enrollmentID),
			zap.Error(err),
		)
	}
}

// PushInline ships the record and its documents in one request, photos
// embedded as base64. 207 means the dashboard kept the record but rejected
// some photos; the record is still marked synced and the rejects land in
// the report. Any other non-2xx status means nothing was created remotely,
// so nothing is written locally.
func (s *SyncServiceImpl) PushInline(ctx context.Context, enrollmentID string) (*SyncResult, error) {
	rec, err := s.EnrollRepo.Get(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}

	payload, err := BuildExternalTechnicianPayload(rec, time.Now())
	if err != nil {
		return nil, err
	}

	log := s.startLog(ctx, enrollmentID, "push_inline")

	client, err := s.session(ctx)
	if err != nil {
		s.finishLog(ctx, log, "failed", 0, 0, err)
		return nil, err
	}

	techID := strings.ToUpper(rec.TechID)
	exists, remoteID, err := client.TechnicianExists(ctx, techID)
	if err != nil {
		s.Logger.Warn("existence check errored; proceeding to create",
			zap.String("tech_id", techID),
			zap.Error(err),
		)
	}
	if exists {
		report := &SyncReport{DashboardTechID: remoteID}
		if err := s.State.SaveSyncInfo(ctx, enrollmentID, remoteID, report); err != nil {
			s.finishLog(ctx, log, "failed", 0, 0, err)
			return nil, err
		}
		s.finishLog(ctx, log, "exists", 0, 0, nil)
		return &SyncResult{Status: StatusExists, Report: report}, nil
	}

	refs, err := s.documentRefs(ctx, enrollmentID)
	if err != nil {
		s.finishLog(ctx, log, "failed", 0, 0, err)
		return nil, err
	}

	strategy := &InlineStrategy{Storage: s.Storage, Logger: s.Logger}
	staged := strategy.Stage(ctx, refs)
	payload["photos"] = staged.Photos

	resp, err := client.CreateExternalTechnician(ctx, payload)
	if err != nil {
		s.finishLog(ctx, log, "failed", 0, len(staged.Failed), err)
		return nil, fmt.Errorf("create external technician: %w", err)
	}
	if !resp.OK() {
		err := fmt.Errorf("external create rejected with status %d: %s",
			resp.StatusCode, truncate(resp.RawText+string(resp.JSON), 200))
		s.finishLog(ctx, log, "failed", 0, len(staged.Failed), err)
		return nil, err
	}

	dashTechID, err := ExtractTechnicianID(resp.Body())
	if err != nil {
		s.finishLog(ctx, log, "failed", 0, len(staged.Failed), err)
		return nil, err
	}

	failed := staged.Failed
	status := StatusCreated
	logStatus := "success"
	if resp.StatusCode == 207 {
		status = StatusPartial
		logStatus = "partial"
		failed = append(failed, rejectedPhotos(resp.Body(), shippedRefs(refs, staged.Failed))...)
	}

	shipped := len(staged.Photos)
	if status == StatusPartial {
		shipped = len(staged.Photos) - (len(failed) - len(staged.Failed))
		if shipped < 0 {
			shipped = 0
		}
	}

	report := &SyncReport{
		DashboardTechID: dashTechID,
		PhotoCount:      shipped,
		FailedUploads:   failed,
		Response:        resp.Body(),
	}

	if err := s.State.SaveSyncInfo(ctx, enrollmentID, dashTechID, report); err != nil {
		s.finishLog(ctx, log, "failed", shipped, len(failed), err)
		return nil, err
	}
	if err := s.EnrollRepo.MarkSynced(ctx, enrollmentID); err != nil {
		s.finishLog(ctx, log, "failed", shipped, len(failed), err)
		return nil, err
	}

	s.finishLog(ctx, log, logStatus, shipped, len(failed), nil)

	result := &SyncResult{
		Status:     status,
		StatusCode: resp.StatusCode,
		PhotoCount: shipped,
		Failed:     failed,
		Report:     report,
	}
	s.notify(enrollmentID, techID, result)
	return result, nil
}

// shippedRefs drops the documents that never left staging, leaving the
// subset the dashboard actually saw.
func shippedRefs(refs []DocumentRef, stagingFailed []FailedUpload) []DocumentRef {
	if len(stagingFailed) == 0 {
		return refs
	}
	skip := make(map[string]bool, len(stagingFailed))
	for _, f := range stagingFailed {
		skip[f.Path] = true
	}
	shipped := make([]DocumentRef, 0, len(refs))
	for _, ref := range refs {
		if !skip[ref.Path] {
			shipped = append(shipped, ref)
		}
	}
	return shipped
}

// rejectedPhotos maps the dashboard's 207 failure list back to local file
// paths by category so the report names files an operator can act on.
// Categories can repeat, so paths are consumed per category in the order
// they were shipped. A 207 whose body carries no usable failure list still
// rejected something; in that case every shipped document goes into the
// retry set rather than leaving the report clean and unresumable.
func rejectedPhotos(body json.RawMessage, refs []DocumentRef) []FailedUpload {
	byCategory := make(map[string][]string, len(refs))
	for _, ref := range refs {
		byCategory[ref.Category] = append(byCategory[ref.Category], ref.Path)
	}

	var parsed struct {
		Failed []struct {
			Category string `json:"category"`
			Reason   string `json:"reason"`
		} `json:"failed"`
	}
	if body != nil {
		_ = json.Unmarshal(body, &parsed)
	}

	var failed []FailedUpload
	for _, f := range parsed.Failed {
		reason := f.Reason
		if reason == "" {
			reason = "rejected by dashboard"
		}
		path := f.Category
		if paths := byCategory[f.Category]; len(paths) > 0 {
			path = paths[0]
			byCategory[f.Category] = paths[1:]
		}
		failed = append(failed, FailedUpload{Path: path, Reason: reason})
	}

	if len(failed) == 0 {
		for _, ref := range refs {
			failed = append(failed, FailedUpload{
				Path:   ref.Path,
				Reason: "rejected by dashboard, no detail returned",
			})
		}
	}
	return failed
}

// RetryFailed re-ships only the documents named in the last report's
// failure list. Categories are re-resolved from the document store, with
// "vehicle" as the fallback for paths no longer on record. PhotoCount
// accumulates; the failure list is replaced by whatever still failed.
func (s *SyncServiceImpl) RetryFailed(ctx context.Context, enrollmentID string) (*RetryResult, error) {
	report, err := s.State.LastReport(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if report == nil || len(report.FailedUploads) == 0 {
		return &RetryResult{}, nil
	}
	if report.DashboardTechID == "" {
		return nil, ErrNotSynced
	}

	categories, err := s.DocRepo.CategoryByPath(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	refs := make([]DocumentRef, 0, len(report.FailedUploads))
	for _, f := range report.FailedUploads {
		category := categories[f.Path]
		if category == "" {
			category = document.CategoryVehicle
		}
		refs = append(refs, DocumentRef{Path: f.Path, Category: category})
	}

	log := s.startLog(ctx, enrollmentID, "retry")

	client, err := s.session(ctx)
	if err != nil {
		s.finishLog(ctx, log, "failed", 0, len(report.FailedUploads), err)
		return nil, err
	}

	strategy := &TwoPhaseStrategy{Client: client, Storage: s.Storage, Retry: s.Retry, Logger: s.Logger}
	staged := strategy.Stage(ctx, refs)

	registrar := &Registrar{Client: client, Retry: s.Retry, Logger: s.Logger}
	registered, regFailed := registrar.RegisterEach(ctx, report.DashboardTechID, staged.Entries)

	stillFailed := append(staged.Failed, regFailed...)

	updated := &SyncReport{
		DashboardTechID: report.DashboardTechID,
		PhotoCount:      report.PhotoCount + registered,
		FailedUploads:   stillFailed,
		Response:        report.Response,
	}
	if err := s.State.SaveSyncInfo(ctx, enrollmentID, report.DashboardTechID, updated); err != nil {
		s.finishLog(ctx, log, "failed", registered, len(stillFailed), err)
		return nil, err
	}

	status := "success"
	if len(stillFailed) > 0 {
		status = "partial"
	}
	s.finishLog(ctx, log, status, registered, len(stillFailed), nil)

	s.Logger.Info("retried failed uploads",
		zap.String("enrollment_id", enrollmentID),
		zap.Int("retried", len(report.FailedUploads)),
		zap.Int("recovered", registered),
		zap.Int("remaining", len(stillFailed)),
	)

	return &RetryResult{
		RetriedCount:    len(report.FailedUploads),
		RemainingFailed: len(stillFailed),
		StillFailed:     stillFailed,
	}, nil
}

// PushUpdate sends the current record fields to an already-synced
// technician. Documents are not re-shipped.
func (s *SyncServiceImpl) PushUpdate(ctx context.Context, enrollmentID string) (*SyncResult, error) {
	rec, err := s.EnrollRepo.Get(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}

	client, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	dashID := rec.DashboardTechID
	if dashID == "" {
		// Older rows may predate sync metadata; resolve by techId instead.
		exists, remoteID, probeErr := client.TechnicianExists(ctx, rec.TechID)
		if probeErr != nil || !exists {
			return nil, ErrNotSynced
		}
		dashID = remoteID
		if saveErr := s.EnrollRepo.SetDashboardSyncInfo(ctx, enrollmentID, dashID, nil, 0); saveErr != nil {
			s.Logger.Warn("failed to backfill dashboard tech id",
				zap.String("enrollment_id", enrollmentID), zap.Error(saveErr))
		}
	}

	payload := BuildUpdatePayload(rec)
	resp, err := client.UpdateTechnician(ctx, dashID, payload)
	if err != nil {
		return nil, fmt.Errorf("update technician: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("technician update rejected with status %d: %s",
			resp.StatusCode, truncate(resp.RawText+string(resp.JSON), 200))
	}

	return &SyncResult{Status: StatusUpdated, StatusCode: resp.StatusCode}, nil
}

// Pull fetches technician records from the dashboard; empty techID lists
// everything the session can see.
func (s *SyncServiceImpl) Pull(ctx context.Context, techID string) (json.RawMessage, error) {
	client, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.FindTechnicians(ctx, techID)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("technician lookup rejected with status %d", resp.StatusCode)
	}
	return resp.Body(), nil
}

func (s *SyncServiceImpl) LastReport(ctx context.Context, enrollmentID string) (*SyncReport, error) {
	return s.State.LastReport(ctx, enrollmentID)
}

func (s *SyncServiceImpl) Logs(ctx context.Context, enrollmentID string) ([]SyncLog, error) {
	return s.SyncLogs.List(ctx, enrollmentID, 0)
}
