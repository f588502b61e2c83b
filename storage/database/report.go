package database

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core/report"
	"github.com/sadhanalabs/sadhana/core/user"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *sqlx.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CountStudents(ctx context.Context) (int, error) {
	query, args, err := psql.
		Select("count(*)").
		From("users").
		Where(sq.Eq{"role": user.RoleStudent}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}

	var count int
	err = repo.db.GetContext(ctx, &count, query, args...)
	return count, errors.Wrap(err, "counting students")
}

func (repo *reportRepository) CountSessions(ctx context.Context) (int, error) {
	query, args, err := psql.
		Select("count(*)").
		From("practice_sessions").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}

	var count int
	err = repo.db.GetContext(ctx, &count, query, args...)
	return count, errors.Wrap(err, "counting sessions")
}

func (repo *reportRepository) SumSessionDurations(ctx context.Context) (int64, error) {
	query, args, err := psql.
		Select("COALESCE(SUM(duration), 0)").
		From("practice_sessions").
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}

	var sum int64
	err = repo.db.GetContext(ctx, &sum, query, args...)
	return sum, errors.Wrap(err, "summing durations")
}

func (repo *reportRepository) StudentsByClass(ctx context.Context) ([]report.ClassCount, error) {
	// left join so classes with no enrollments report 0
	query, args, err := psql.
		Select("c.name AS class_name", "count(uc.user_id) AS student_count").
		From("classes c").
		LeftJoin("user_classes uc ON c.id = uc.class_id").
		GroupBy("c.id", "c.name").
		OrderBy("c.name").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []struct {
		ClassName    string `db:"class_name"`
		StudentCount int    `db:"student_count"`
	}
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students by class")
	}

	counts := make([]report.ClassCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, report.ClassCount(row))
	}
	return counts, nil
}
