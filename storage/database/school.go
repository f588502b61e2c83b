package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core/school"
	"github.com/sadhanalabs/sadhana/core/user"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

type (
	dbClass struct {
		ID          int       `db:"id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		CreatedAt   time.Time `db:"created_at"`
	}

	dbMaterial struct {
		ID             int            `db:"id"`
		ClassID        int            `db:"class_id"`
		Title          string         `db:"title"`
		Type           string         `db:"type"`
		FilePath       sql.NullString `db:"file_path"`
		Content        string         `db:"content"`
		UploadedBy     int            `db:"uploaded_by"`
		UploadedByName sql.NullString `db:"uploaded_by_name"`
		ClassName      sql.NullString `db:"class_name"`
		CreatedAt      time.Time      `db:"created_at"`
	}

	dbStudent struct {
		ID              int       `db:"id"`
		Email           string    `db:"email"`
		Name            string    `db:"name"`
		AssignedClasses string    `db:"assigned_classes"`
		CreatedAt       time.Time `db:"created_at"`
	}
)

func (c dbClass) toClass() school.Class {
	return school.Class(c)
}

func (m dbMaterial) toMaterial() school.Material {
	return school.Material{
		ID:             m.ID,
		ClassID:        m.ClassID,
		Title:          m.Title,
		Type:           m.Type,
		FilePath:       m.FilePath.String,
		Content:        m.Content,
		UploadedBy:     m.UploadedBy,
		UploadedByName: m.UploadedByName.String,
		ClassName:      m.ClassName.String,
		CreatedAt:      m.CreatedAt,
	}
}

func (s dbStudent) toStudent() school.Student {
	return school.Student(s)
}

var classColumns = []string{"id", "name", "description", "created_at"}

func (repo *schoolRepository) queryClasses(ctx context.Context, b sq.SelectBuilder) ([]school.Class, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbClass
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}

	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toClass())
	}
	return classes, nil
}

func (repo *schoolRepository) QueryAllClasses(ctx context.Context) ([]school.Class, error) {
	return repo.queryClasses(ctx, psql.
		Select(classColumns...).
		From("classes").
		OrderBy("name"),
	)
}

func (repo *schoolRepository) QueryClassesByUser(ctx context.Context, userID int) ([]school.Class, error) {
	return repo.queryClasses(ctx, psql.
		Select("c.id", "c.name", "c.description", "c.created_at").
		From("classes c").
		Join("user_classes uc ON c.id = uc.class_id").
		Where(sq.Eq{"uc.user_id": userID}).
		OrderBy("c.name"),
	)
}

func (repo *schoolRepository) GetClassByID(ctx context.Context, id int) (school.Class, error) {
	query, args, err := psql.
		Select(classColumns...).
		From("classes").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return school.Class{}, errors.Wrap(err, "building query")
	}

	var row dbClass
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNoRows(err) {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "getting class")
	}
	return row.toClass(), nil
}

func (repo *schoolRepository) queryMaterials(ctx context.Context, b sq.SelectBuilder) ([]school.Material, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbMaterial
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying materials")
	}

	mats := make([]school.Material, 0, len(rows))
	for _, row := range rows {
		mats = append(mats, row.toMaterial())
	}
	return mats, nil
}

func (repo *schoolRepository) QueryMaterialsByClass(ctx context.Context, classID int) ([]school.Material, error) {
	return repo.queryMaterials(ctx, psql.
		Select("m.id", "m.class_id", "m.title", "m.type", "m.file_path", "m.content",
			"m.uploaded_by", "u.name AS uploaded_by_name", "m.created_at").
		From("materials m").
		LeftJoin("users u ON m.uploaded_by = u.id").
		Where(sq.Eq{"m.class_id": classID}).
		OrderBy("m.created_at DESC"),
	)
}

func (repo *schoolRepository) QueryAllMaterials(ctx context.Context) ([]school.Material, error) {
	return repo.queryMaterials(ctx, psql.
		Select("m.id", "m.class_id", "m.title", "m.type", "m.file_path", "m.content",
			"m.uploaded_by", "u.name AS uploaded_by_name", "c.name AS class_name", "m.created_at").
		From("materials m").
		LeftJoin("users u ON m.uploaded_by = u.id").
		LeftJoin("classes c ON m.class_id = c.id").
		OrderBy("m.created_at DESC"),
	)
}

func (repo *schoolRepository) StudentExists(ctx context.Context, id int) (bool, error) {
	query, args, err := psql.
		Select("count(*)").
		From("users").
		Where(sq.Eq{"id": id, "role": user.RoleStudent}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}

	var count int
	if err = repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return false, errors.Wrap(err, "counting students")
	}
	return count > 0, nil
}

func (repo *schoolRepository) IsEnrolled(ctx context.Context, userID, classID int) (bool, error) {
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

func (repo *schoolRepository) CreateEnrollment(ctx context.Context, userID, classID int) error {
	// the unique (user_id, class_id) index serializes concurrent assigns
	query, args, err := psql.
		Insert("user_classes").
		Columns("user_id", "class_id").
		Values(userID, classID).
		Suffix("ON CONFLICT (user_id, class_id) DO NOTHING").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	_, err = repo.db.ExecContext(ctx, query, args...)
	return errors.Wrap(err, "inserting enrollment")
}

func (repo *schoolRepository) DeleteEnrollment(ctx context.Context, userID, classID int) (bool, error) {
	query, args, err := psql.
		Delete("user_classes").
		Where(sq.Eq{"user_id": userID, "class_id": classID}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, "deleting enrollment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "checking rows affected")
	}
	return n > 0, nil
}

func (repo *schoolRepository) queryStudents(ctx context.Context, b sq.SelectBuilder) ([]school.Student, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbStudent
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	students := make([]school.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *schoolRepository) QueryStudents(ctx context.Context) ([]school.Student, error) {
	return repo.queryStudents(ctx, psql.
		Select("u.id", "u.email", "u.name", "u.created_at",
			"COALESCE(string_agg(c.name, ',' ORDER BY c.name), '') AS assigned_classes").
		From("users u").
		LeftJoin("user_classes uc ON u.id = uc.user_id").
		LeftJoin("classes c ON uc.class_id = c.id").
		Where(sq.Eq{"u.role": user.RoleStudent}).
		GroupBy("u.id", "u.email", "u.name", "u.created_at").
		OrderBy("u.name"),
	)
}

func (repo *schoolRepository) QueryUnassignedStudents(ctx context.Context) ([]school.Student, error) {
	return repo.queryStudents(ctx, psql.
		Select("u.id", "u.email", "u.name", "u.created_at", "'' AS assigned_classes").
		From("users u").
		LeftJoin("user_classes uc ON u.id = uc.user_id").
		Where(sq.Eq{"u.role": user.RoleStudent}).
		Where("uc.user_id IS NULL").
		OrderBy("u.name"),
	)
}

func (repo *schoolRepository) QueryStudentClasses(ctx context.Context, userID int) ([]school.StudentClass, error) {
	query, args, err := psql.
		Select("c.id", "c.name", "c.description", "c.created_at", "uc.assigned_at").
		From("classes c").
		Join("user_classes uc ON c.id = uc.class_id").
		Where(sq.Eq{"uc.user_id": userID}).
		OrderBy("c.name").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []struct {
		dbClass
		AssignedAt time.Time `db:"assigned_at"`
	}
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying student classes")
	}

	classes := make([]school.StudentClass, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, school.StudentClass{
			Class:      row.toClass(),
			AssignedAt: row.AssignedAt,
		})
	}
	return classes, nil
}

func (repo *schoolRepository) CreateMaterial(ctx context.Context, mat school.Material) (school.Material, error) {
	filePath := sql.NullString{String: mat.FilePath, Valid: mat.FilePath != ""}
	query, args, err := psql.
		Insert("materials").
		Columns("class_id", "title", "type", "file_path", "content", "uploaded_by").
		Values(mat.ClassID, mat.Title, mat.Type, filePath, mat.Content, mat.UploadedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return school.Material{}, errors.Wrap(err, "building query")
	}

	row := repo.db.QueryRowContext(ctx, query, args...)
	if err = row.Scan(&mat.ID, &mat.CreatedAt); err != nil {
		return school.Material{}, errors.Wrap(err, "inserting material")
	}
	return mat, nil
}

func (repo *schoolRepository) DeleteMaterial(ctx context.Context, id int) (bool, error) {
	query, args, err := psql.
		Delete("materials").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "building query")
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, "deleting material")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "checking rows affected")
	}
	return n > 0, nil
}
