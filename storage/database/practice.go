package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core/practice"
)

type practiceRepository struct {
	db *sqlx.DB
}

var _ practice.Repository = (*practiceRepository)(nil)

func NewPracticeRepository(db *sqlx.DB) *practiceRepository {
	return &practiceRepository{db: db}
}

type dbSession struct {
	ID           int            `db:"id"`
	UserID       int            `db:"user_id"`
	ClassID      int            `db:"class_id"`
	Duration     int            `db:"duration"`
	Notes        string         `db:"notes"`
	SessionDate  time.Time      `db:"session_date"`
	ClassName    sql.NullString `db:"class_name"`
	StudentName  sql.NullString `db:"student_name"`
	StudentEmail sql.NullString `db:"student_email"`
}

func (s dbSession) toSession() practice.Session {
	return practice.Session{
		ID:           s.ID,
		UserID:       s.UserID,
		ClassID:      s.ClassID,
		Duration:     s.Duration,
		Notes:        s.Notes,
		SessionDate:  s.SessionDate,
		ClassName:    s.ClassName.String,
		StudentName:  s.StudentName.String,
		StudentEmail: s.StudentEmail.String,
	}
}

func (repo *practiceRepository) CreateSession(ctx context.Context, s practice.Session) (practice.Session, error) {
	query, args, err := psql.
		Insert("practice_sessions").
		Columns("user_id", "class_id", "duration", "notes", "session_date").
		Values(s.UserID, s.ClassID, s.Duration, s.Notes, s.SessionDate).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return practice.Session{}, errors.Wrap(err, "building query")
	}

	if err = repo.db.GetContext(ctx, &s.ID, query, args...); err != nil {
		return practice.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (repo *practiceRepository) querySessions(ctx context.Context, b sq.SelectBuilder) ([]practice.Session, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbSession
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}

	sessions := make([]practice.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.toSession())
	}
	return sessions, nil
}

func (repo *practiceRepository) QueryUserClassSessions(ctx context.Context, userID, classID, limit int) ([]practice.Session, error) {
	return repo.querySessions(ctx, psql.
		Select("ps.id", "ps.user_id", "ps.class_id", "ps.duration", "ps.notes", "ps.session_date",
			"c.name AS class_name").
		From("practice_sessions ps").
		LeftJoin("classes c ON ps.class_id = c.id").
		Where(sq.Eq{"ps.user_id": userID, "ps.class_id": classID}).
		OrderBy("ps.session_date DESC").
		Limit(uint64(limit)),
	)
}

func (repo *practiceRepository) QueryAllSessions(ctx context.Context, limit int) ([]practice.Session, error) {
	return repo.querySessions(ctx, psql.
		Select("ps.id", "ps.user_id", "ps.class_id", "ps.duration", "ps.notes", "ps.session_date",
			"u.name AS student_name", "u.email AS student_email", "c.name AS class_name").
		From("practice_sessions ps").
		LeftJoin("users u ON ps.user_id = u.id").
		LeftJoin("classes c ON ps.class_id = c.id").
		OrderBy("ps.session_date DESC").
		Limit(uint64(limit)),
	)
}

func (repo *practiceRepository) IsEnrolled(ctx context.Context, userID, classID int) (bool, error) {
	query, args, err := psql.
		Select("count(*)").
		From("user_classes").
		Where(sq.Eq{"user_id": userID, "class_id": classID}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}

	var count int
	if err = repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, errors.Wrap(err, "counting enrollments")
	}
	return count > 0, nil
}
