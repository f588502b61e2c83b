package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	AuthResponse struct {
		Token string    `json:"token"`
		User  user.User `json:"user"`
	}
)

func (s *server) registerAuthAPI(g *echo.Group) {
	ag := g.Group("/auth")
	ag.POST("/register", s.userRegister)
	ag.POST("/login", s.userLogin)
	ag.GET("/me", s.userMe, authRequired(s.conf))
}

func (s *server) userRegister(ctx echo.Context) error {
	nu := new(user.NewUser)
	if err := ctx.Bind(nu); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := nu.Validate(validate); err != nil {
		return err
	}

	usr, err := s.userSvc.Register(ctx.Request().Context(), *nu)
	if err != nil {
		return err
	}
	return s.authResponse(ctx, http.StatusCreated, usr)
}

func (s *server) userLogin(ctx echo.Context) error {
	req := new(LoginRequest)
	if err := ctx.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	usr, err := s.userSvc.Authenticate(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return errInvalidCredentials
		}
		return err
	}
	return s.authResponse(ctx, http.StatusOK, usr)
}

func (s *server) userMe(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	usr, err := s.userSvc.GetByID(ctx.Request().Context(), claims.UserID)
	if err != nil {
		// a token for a deleted account is no longer valid
		if errors.Cause(err) == user.ErrNotFound {
			return errTokenInvalid
		}
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (s *server) authResponse(ctx echo.Context, code int, usr user.User) error {
	token, err := GenerateToken(GetUserClaims(usr, s.conf), s.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, AuthResponse{Token: token, User: usr})
}
