package database

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type dbUser struct {
	ID           int       `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	Role         string    `db:"role"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (u dbUser) toUser() user.User {
	return user.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

var userColumns = []string{"id", "email", "name", "role", "password_hash", "created_at"}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string) error {
	query, args, err := psql.
		Select("count(*)").
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var count int
	if err = repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "counting users by email")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query, args, err := psql.
		Insert("users").
		Columns("email", "name", "role", "password_hash", "created_at").
		Values(usr.Email, usr.Name, usr.Role, usr.PasswordHash, usr.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}

	if err = repo.db.GetContext(ctx, &usr.ID, query, args...); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) getUserBy(ctx context.Context, pred sq.Eq) (user.User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}

	var row dbUser
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNoRows(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUserBy(ctx, sq.Eq{"id": id})
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUserBy(ctx, sq.Eq{"email": email})
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	query, args, err := psql.
		Select(userColumns...).
		From("users").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}

	var rows []dbUser
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.CreatedAt.IsZero() {
		usr.CreatedAt = time.Now().UTC()
	}
	query, args, err := psql.
		Insert("users").
		Columns("email", "name", "role", "password_hash", "created_at").
		Values(usr.Email, usr.Name, usr.Role, usr.PasswordHash, usr.CreatedAt).
		Suffix("ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, password_hash = EXCLUDED.password_hash").
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}

	row := repo.db.QueryRowContext(ctx, query, args...)
	if err = row.Scan(&usr.ID, &usr.CreatedAt); err != nil {
		return user.User{}, errors.Wrap(err, "upserting user")
	}
	return usr, nil
}
