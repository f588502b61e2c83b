package inmem

import (
	"context"
	"sort"

	"github.com/sadhanalabs/sadhana/core/report"
	"github.com/sadhanalabs/sadhana/core/user"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CountStudents(_ context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, usr := range repo.db.users {
		if usr.Role == user.RoleStudent {
			count++
		}
	}
	return count, nil
}

func (repo *reportRepository) CountSessions(_ context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return len(repo.db.sessions), nil
}

func (repo *reportRepository) SumSessionDurations(_ context.Context) (int64, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var sum int64
	for _, s := range repo.db.sessions {
		sum += int64(s.Duration)
	}
	return sum, nil
}

func (repo *reportRepository) StudentsByClass(_ context.Context) ([]report.ClassCount, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	byClass := make(map[int]int, len(repo.db.classes))
	for key := range repo.db.enrollments {
		byClass[key.classID]++
	}

	counts := make([]report.ClassCount, 0, len(repo.db.classes))
	for id, cls := range repo.db.classes {
		counts = append(counts, report.ClassCount{
			ClassName:    cls.Name,
			StudentCount: byClass[id],
		})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].ClassName < counts[j].ClassName })
	return counts, nil
}
