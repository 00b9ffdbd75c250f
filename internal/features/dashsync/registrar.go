package dashsync

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Registrar records uploaded objects against a technician: one bulk call
// first, per-entry fallback when the bulk call is rejected or errors. A
// single bulk-endpoint outage must not abort the whole sync.
type Registrar struct {
	Client *Client
	Retry  RetryConfig
	Logger *zap.Logger
}

// RegisterAll returns the number of entries registered and the entries
// that could not be, each with its own reason.
func (r *Registrar) RegisterAll(ctx context.Context, dashTechID string, entries []UploadEntry) (int, []FailedUpload) {
	if len(entries) == 0 {
		return 0, nil
	}

	resp, err := r.Client.RegisterPhotosBatch(ctx, dashTechID, entries)
	if err == nil && resp.OK() {
		registered := len(entries)
		var items []json.RawMessage
		if resp.JSON != nil && json.Unmarshal(resp.JSON, &items) == nil {
			registered = len(items)
		}
		r.Logger.Info("batch registered photos",
			zap.String("dashboard_tech_id", dashTechID),
			zap.Int("count", registered),
		)
		return registered, nil
	}

	if err != nil {
		r.Logger.Warn("batch registration errored; falling back to per-photo registration",
			zap.String("dashboard_tech_id", dashTechID),
			zap.Error(err),
		)
	} else {
		r.Logger.Warn("batch registration rejected; falling back to per-photo registration",
			zap.String("dashboard_tech_id", dashTechID),
			zap.Int("status", resp.StatusCode),
		)
	}

	return r.RegisterEach(ctx, dashTechID, entries)
}

// RegisterEach registers entries one at a time. Resume attempts use this
// directly so a single bad entry cannot mask the rest.
func (r *Registrar) RegisterEach(ctx context.Context, dashTechID string, entries []UploadEntry) (int, []FailedUpload) {
	count := 0
	var failed []FailedUpload

	for _, entry := range entries {
		err := r.Retry.Do(ctx, r.Logger, "register photo", func(ctx context.Context) error {
			resp, regErr := r.Client.RegisterPhoto(ctx, dashTechID, entry)
			if regErr != nil {
				return regErr
			}
			if !resp.OK() {
				return Terminal(fmt.Errorf("photo registration rejected with status %d", resp.StatusCode))
			}
			return nil
		})
		if err != nil {
			r.Logger.Warn("photo registration failed",
				zap.String("path", entry.Path),
				zap.Error(err),
			)
			failed = append(failed, FailedUpload{Path: entry.Path, Reason: err.Error()})
			continue
		}
		count++
	}

	return count, failed
}
