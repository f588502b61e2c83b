package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		// UpdateOrCreateUser updates the user matched by email, or creates it.
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// Register creates a new student (or admin, if the email is on the allow-list)
// and sends them a welcome email.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.repo.CheckEmailUniqueness(ctx, nu.Email); err != nil {
		if err == ErrEmailExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "checking email uniqueness")
	}

	role := RoleStudent
	if svc.conf.IsAdminEmail(nu.Email) {
		role = RoleAdmin
	}

	usr := User{
		Email:     nu.Email,
		Name:      nu.Name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}

	svc.sendWelcomeEmail(usr)
	return usr, nil
}

// Authenticate checks the credentials and returns the matching user.
// The error is the same whether the email is unknown or the password wrong.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

// UpdateOrCreate backs the ops CLI's adduser/resetpassword commands.
func (svc *Service) UpdateOrCreate(ctx context.Context, usr User) (User, error) {
	return svc.repo.UpdateOrCreateUser(ctx, usr)
}

func (svc *Service) sendWelcomeEmail(usr User) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      fmt.Sprintf("Welcome to %s", svc.conf.AppName),
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{usr.Name},
	}
	svc.mailSvc.SendMessages(msg)
}
