package inmem

import (
	"context"
	"sort"

	"github.com/sadhanalabs/sadhana/core/practice"
)

type practiceRepository struct {
	db *DB
}

var _ practice.Repository = (*practiceRepository)(nil)

func NewPracticeRepository(db *DB) *practiceRepository {
	return &practiceRepository{db: db}
}

func (repo *practiceRepository) CreateSession(_ context.Context, s practice.Session) (practice.Session, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.nextSessionID++
	s.ID = repo.db.nextSessionID
	repo.db.sessions[s.ID] = s
	return s, nil
}

func (repo *practiceRepository) querySessions(match func(practice.Session) bool, limit int) []practice.Session {
	sessions := make([]practice.Session, 0)
	for _, s := range repo.db.sessions {
		if !match(s) {
			continue
		}
		if cls, ok := repo.db.classes[s.ClassID]; ok {
			s.ClassName = cls.Name
		}
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].SessionDate.Equal(sessions[j].SessionDate) {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].SessionDate.After(sessions[j].SessionDate)
	})
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions
}

func (repo *practiceRepository) QueryUserClassSessions(_ context.Context, userID, classID, limit int) ([]practice.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.querySessions(func(s practice.Session) bool {
		return s.UserID == userID && s.ClassID == classID
	}, limit), nil
}

func (repo *practiceRepository) QueryAllSessions(_ context.Context, limit int) ([]practice.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sessions := repo.querySessions(func(practice.Session) bool { return true }, limit)
	for i, s := range sessions {
		if usr, ok := repo.db.users[s.UserID]; ok {
			sessions[i].StudentName = usr.Name
			sessions[i].StudentEmail = usr.Email
		}
	}
	return sessions, nil
}

func (repo *practiceRepository) IsEnrolled(_ context.Context, userID, classID int) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.enrollments[enrollmentKey{userID, classID}]
	return ok, nil
}
