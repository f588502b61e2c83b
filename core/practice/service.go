package practice

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core"
)

var (
	// errors
	ErrNotEnrolled = errors.New("access denied to this class")
)

const errInvalidDuration = "valid duration is required"

const (
	DefaultHistoryLimit = 50
	DefaultAdminLimit   = 100
)

type (
	Repository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		// QueryUserClassSessions returns a user's sessions for one class, newest first.
		QueryUserClassSessions(ctx context.Context, userID, classID, limit int) ([]Session, error)
		// QueryAllSessions returns all sessions, newest first.
		QueryAllSessions(ctx context.Context, limit int) ([]Session, error)
		IsEnrolled(ctx context.Context, userID, classID int) (bool, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends an immutable practice session. The user must be enrolled in
// the class unless they are an admin. There is no update or delete path.
func (svc *Service) Record(ctx context.Context, userID, classID int, ns NewSession, isAdmin bool) (Session, error) {
	if ns.Duration <= 0 {
		return Session{}, core.NewValidationError(nil, core.FieldError{Field: "duration", Error: errInvalidDuration})
	}

	if !isAdmin {
		enrolled, err := svc.repo.IsEnrolled(ctx, userID, classID)
		if err != nil {
			return Session{}, errors.Wrap(err, "checking enrollment")
		}
		if !enrolled {
			return Session{}, ErrNotEnrolled
		}
	}

	s := Session{
		UserID:      userID,
		ClassID:     classID,
		Duration:    ns.Duration,
		Notes:       ns.Notes,
		SessionDate: time.Now().UTC(),
	}
	s, err := svc.repo.CreateSession(ctx, s)
	return s, errors.Wrap(err, "creating session")
}

// History returns a user's sessions for one class, newest first.
func (svc *Service) History(ctx context.Context, userID, classID, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return svc.repo.QueryUserClassSessions(ctx, userID, classID, limit)
}

// All returns every session, newest first. Admin dashboards only.
func (svc *Service) All(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = DefaultAdminLimit
	}
	return svc.repo.QueryAllSessions(ctx, limit)
}
