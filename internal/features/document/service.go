package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

type DocumentService interface {
	Attach(ctx context.Context, enrollmentID, docType, filename string, data []byte) (*Document, error)
	ListForEnrollment(ctx context.Context, enrollmentID string) ([]*Document, error)
	Remove(ctx context.Context, id string) error
}

type DocumentServiceImpl struct {
	Repo    DocumentRepository
	Storage Storage
}

func NewDocumentService(repo DocumentRepository, storage Storage) DocumentService {
	return &DocumentServiceImpl{
		Repo:    repo,
		Storage: storage,
	}
}

// Attach stores the bytes under a collision-free name and records the
// document row the sync engine reads later.
func (s *DocumentServiceImpl) Attach(ctx context.Context, enrollmentID, docType, filename string, data []byte) (*Document, error) {
	if !ValidCategory(docType) {
		return nil, fmt.Errorf("unknown document category %q", docType)
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(filename))
	name = strings.ReplaceAll(name, " ", "_")
	path := filepath.Join(enrollmentID, name)

	if err := s.Storage.Write(path, data); err != nil {
		return nil, err
	}

	doc := &Document{
		EnrollmentID: enrollmentID,
		DocType:      docType,
		FilePath:     path,
		MimeType:     MimeTypeOf(filename),
		Size:         int64(len(data)),
	}
	if err := s.Repo.Save(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentServiceImpl) ListForEnrollment(ctx context.Context, enrollmentID string) ([]*Document, error) {
	return s.Repo.FindByEnrollment(ctx, enrollmentID)
}

func (s *DocumentServiceImpl) Remove(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}
