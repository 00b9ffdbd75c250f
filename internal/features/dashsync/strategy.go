package dashsync

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"byov-backend/internal/features/document"

	"go.uber.org/zap"
)

// StageResult is what an upload strategy managed to stage for one sync
// call. Two-phase staging yields entries awaiting registration; inline
// staging yields base64 photo payloads for the create request itself.
type StageResult struct {
	Entries []UploadEntry
	Photos  []InlinePhoto
	Failed  []FailedUpload
}

// InlinePhoto is one base64-embedded document of the single-request flow.
type InlinePhoto struct {
	Category string `json:"category"`
	Base64   string `json:"base64"`
}

// UploadStrategy stages every document of a sync call, collecting
// per-document failures instead of aborting the batch. A strategy is
// selected once per sync call.
type UploadStrategy interface {
	Name() string
	Stage(ctx context.Context, docs []DocumentRef) StageResult
}

// TwoPhaseStrategy is the sign → PUT → register flow for services that
// cannot accept large inline payloads. Registration happens afterwards via
// the Registrar.
type TwoPhaseStrategy struct {
	Client  *Client
	Storage document.Storage
	Retry   RetryConfig
	Logger  *zap.Logger
}

func (s *TwoPhaseStrategy) Name() string { return "two-phase" }

func (s *TwoPhaseStrategy) Stage(ctx context.Context, docs []DocumentRef) StageResult {
	var res StageResult

	for _, doc := range docs {
		data, reason := readBounded(s.Storage, doc.Path)
		if reason != "" {
			res.Failed = append(res.Failed, FailedUpload{Path: doc.Path, Reason: reason})
			continue
		}

		var uploadURL string
		err := s.Retry.Do(ctx, s.Logger, "request upload url", func(ctx context.Context) error {
			var reqErr error
			uploadURL, reqErr = s.Client.RequestUploadURL(ctx, doc.Category)
			return reqErr
		})
		if err != nil {
			s.Logger.Warn("failed to get upload URL",
				zap.String("path", doc.Path),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, FailedUpload{Path: doc.Path, Reason: err.Error()})
			continue
		}

		mimeType := document.MimeTypeOf(doc.Path)
		err = s.Retry.Do(ctx, s.Logger, "put object", func(ctx context.Context) error {
			return s.Client.PutObject(ctx, uploadURL, data, mimeType)
		})
		if err != nil {
			s.Logger.Warn("storage PUT failed",
				zap.String("path", doc.Path),
				zap.Error(err),
			)
			res.Failed = append(res.Failed, FailedUpload{Path: doc.Path, Reason: err.Error()})
			continue
		}

		res.Entries = append(res.Entries, UploadEntry{
			UploadURL: uploadURL,
			Category:  doc.Category,
			MimeType:  mimeType,
			Path:      doc.Path,
		})
	}

	return res
}

// InlineStrategy embeds documents as size-checked base64 payloads in the
// create request itself. Failure granularity is per-document at encode
// time only; afterwards the single HTTP response decides.
type InlineStrategy struct {
	Storage document.Storage
	Logger  *zap.Logger
}

func (s *InlineStrategy) Name() string { return "inline" }

func (s *InlineStrategy) Stage(ctx context.Context, docs []DocumentRef) StageResult {
	var res StageResult

	for _, doc := range docs {
		data, reason := readBounded(s.Storage, doc.Path)
		if reason != "" {
			res.Failed = append(res.Failed, FailedUpload{Path: doc.Path, Reason: reason})
			continue
		}

		res.Photos = append(res.Photos, InlinePhoto{
			Category: doc.Category,
			Base64:   encodePhoto(data, document.MimeTypeOf(doc.Path)),
		})
	}

	return res
}

// readBounded resolves a document to bytes, enforcing the existence and
// size policy before any network call. The returned reason is empty on
// success.
func readBounded(storage document.Storage, path string) ([]byte, string) {
	if path == "" || !storage.Exists(path) {
		return nil, "missing"
	}
	if size, err := storage.Size(path); err == nil && size > MaxDocumentBytes {
		return nil, "size_exceeded"
	}
	data, err := storage.Read(path)
	if err != nil {
		return nil, err.Error()
	}
	if len(data) > MaxDocumentBytes {
		return nil, "size_exceeded"
	}
	return data, ""
}

// encodePhoto base64-encodes the document; images and PDFs are wrapped as
// data URLs, everything else is sent as raw base64.
func encodePhoto(data []byte, mimeType string) string {
	raw := base64.StdEncoding.EncodeToString(data)
	if strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf" {
		return fmt.Sprintf("data:%s;base64,%s", mimeType, raw)
	}
	return raw
}
