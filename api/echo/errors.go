package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core"
	"github.com/sadhanalabs/sadhana/core/practice"
	"github.com/sadhanalabs/sadhana/core/school"
	"github.com/sadhanalabs/sadhana/core/user"
)

var (
	errTokenMissing       = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")
	errTokenInvalid       = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, user.ErrInvalidCredentials.Error())
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type appHTTPErrorHandler struct {
	logger core.Logger
	app    *echo.Echo
}

func newAppHTTPErrorHandler(logger core.Logger, app *echo.Echo) appHTTPErrorHandler {
	return appHTTPErrorHandler{logger: logger, app: app}
}

func (h appHTTPErrorHandler) handler(err error, ctx echo.Context) {
	cause := errors.Cause(err)

	switch cerr := cause.(type) {
	case *echo.HTTPError:
		h.respond(ctx, cerr.Code, cerr.Message)
		return
	case validator.ValidationErrors:
		h.respond(ctx, http.StatusBadRequest, translateValidationErrors(cerr))
		return
	case *core.ValidationError:
		h.respond(ctx, http.StatusBadRequest, validationErrorFields(cerr))
		return
	}

	if code, ok := domainErrorStatus(cause); ok {
		h.respond(ctx, code, cause.Error())
		return
	}

	// unexpected error
	h.logger.Error(err.Error(), err)
	h.respond(ctx, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))

	if core.IsShutdown(err) {
		h.app.Server.Close()
	}
}

// errorStatusCode resolves the status code an error will be reported with,
// using the same mapping as the error handler.
func errorStatusCode(err error) int {
	switch cerr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		return cerr.Code
	case validator.ValidationErrors, *core.ValidationError:
		return http.StatusBadRequest
	}
	if code, ok := domainErrorStatus(errors.Cause(err)); ok {
		return code
	}
	return http.StatusInternalServerError
}

func domainErrorStatus(err error) (int, bool) {
	switch err {
	case user.ErrInvalidCredentials:
		return http.StatusUnauthorized, true
	case user.ErrNotFound, school.ErrClassNotFound, school.ErrStudentNotFound, school.ErrMaterialNotFound:
		return http.StatusNotFound, true
	case school.ErrNotEnrolled, practice.ErrNotEnrolled:
		return http.StatusForbidden, true
	case school.ErrNotAssigned:
		return http.StatusBadRequest, true
	}
	return 0, false
}

func translateValidationErrors(verrs validator.ValidationErrors) echo.Map {
	fields := make(map[string]string, len(verrs))
	for _, ferr := range verrs {
		fields[ferr.Field()] = ferr.Translate(translator)
	}
	return echo.Map{"error": "validation failed", "fields": fields}
}

func validationErrorFields(verr *core.ValidationError) echo.Map {
	msg := verr.Error()
	if msg == "" {
		msg = "validation failed"
	}
	if len(verr.Fields) == 0 {
		return echo.Map{"error": msg}
	}
	fields := make(map[string]string, len(verr.Fields))
	for _, ferr := range verr.Fields {
		fields[ferr.Field] = ferr.Error
	}
	return echo.Map{"error": msg, "fields": fields}
}

func (h appHTTPErrorHandler) respond(ctx echo.Context, code int, message interface{}) {
	if ctx.Response().Committed {
		return
	}

	var body interface{}
	switch m := message.(type) {
	case string:
		body = echo.Map{"error": m}
	default:
		body = m
	}

	var err error
	if ctx.Request().Method == http.MethodHead {
		err = ctx.NoContent(code)
	} else {
		err = ctx.JSON(code, body)
	}
	if err != nil {
		h.logger.Error(err.Error(), err)
	}
}
