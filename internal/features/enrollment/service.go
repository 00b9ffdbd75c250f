package enrollment

import (
	"context"
	"fmt"
	"time"
)

type EnrollmentService interface {
	CreateEnrollment(ctx context.Context, rec *Enrollment) error
	GetEnrollment(ctx context.Context, id string) (*Enrollment, error)
	ListEnrollments(ctx context.Context, approvedOnly bool) ([]Enrollment, error)
	Approve(ctx context.Context, id string, approvedBy string) error
}

type EnrollmentServiceImpl struct {
	Repo EnrollmentRepository
}

func NewEnrollmentService(repo EnrollmentRepository) EnrollmentService {
	return &EnrollmentServiceImpl{
		Repo: repo,
	}
}

func (s *EnrollmentServiceImpl) CreateEnrollment(ctx context.Context, rec *Enrollment) error {
	if rec.FullName == "" || rec.TechID == "" {
		return fmt.Errorf("full_name and tech_id are required")
	}
	if rec.SubmissionDate == "" {
		rec.SubmissionDate = time.Now().Format("2006-01-02")
	}
	return s.Repo.Create(ctx, rec)
}

func (s *EnrollmentServiceImpl) GetEnrollment(ctx context.Context, id string) (*Enrollment, error) {
	return s.Repo.Get(ctx, id)
}

func (s *EnrollmentServiceImpl) ListEnrollments(ctx context.Context, approvedOnly bool) ([]Enrollment, error) {
	if approvedOnly {
		return s.Repo.ListApproved(ctx)
	}
	return s.Repo.List(ctx, nil, 0)
}

func (s *EnrollmentServiceImpl) Approve(ctx context.Context, id string, approvedBy string) error {
	now := time.Now()
	return s.Repo.Update(ctx, id, map[string]interface{}{
		"approved":    true,
		"approved_at": now,
		"approved_by": approvedBy,
	})
}
