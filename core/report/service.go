// Package report builds the read-only aggregates behind the admin dashboard.
package report

import (
	"context"

	"github.com/pkg/errors"
)

type (
	Stats struct {
		TotalStudents   int          `json:"totalStudents"`
		TotalSessions   int          `json:"totalSessions"`
		TotalDuration   int64        `json:"totalDuration"` // seconds
		StudentsByClass []ClassCount `json:"studentsByClass"`
	}

	// ClassCount reports enrollment per class; classes with no
	// enrollments are included with a zero count.
	ClassCount struct {
		ClassName    string `json:"className"`
		StudentCount int    `json:"studentCount"`
	}

	Repository interface {
		CountStudents(ctx context.Context) (int, error)
		CountSessions(ctx context.Context) (int, error)
		SumSessionDurations(ctx context.Context) (int64, error)
		StudentsByClass(ctx context.Context) ([]ClassCount, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	var err error

	if stats.TotalStudents, err = svc.repo.CountStudents(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting students")
	}
	if stats.TotalSessions, err = svc.repo.CountSessions(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "counting sessions")
	}
	if stats.TotalDuration, err = svc.repo.SumSessionDurations(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "summing durations")
	}
	if stats.StudentsByClass, err = svc.repo.StudentsByClass(ctx); err != nil {
		return Stats{}, errors.Wrap(err, "grouping students by class")
	}
	if stats.StudentsByClass == nil {
		stats.StudentsByClass = []ClassCount{}
	}
	return stats, nil
}
