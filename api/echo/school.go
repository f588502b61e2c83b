package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sadhanalabs/sadhana/core/practice"
)

func (s *server) registerClassAPI(g *echo.Group) {
	cg := g.Group("/classes", authRequired(s.conf))
	cg.GET("", s.classList)
	cg.GET("/:id", s.classDetail)
	cg.POST("/:id/practice", s.practiceRecord)
	cg.GET("/:id/practice-history", s.practiceHistory)
}

// classList returns the full catalog for admins and only
// the caller's assigned classes for students.
func (s *server) classList(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	classes, err := s.schoolSvc.ListClasses(ctx.Request().Context(), claims.UserID, claims.IsAdmin())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (s *server) classDetail(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	classID, err := pathID(ctx)
	if err != nil {
		return err
	}

	detail, err := s.schoolSvc.GetClassDetail(ctx.Request().Context(), classID, claims.UserID, claims.IsAdmin())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (s *server) practiceRecord(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	classID, err := pathID(ctx)
	if err != nil {
		return err
	}

	ns := new(practice.NewSession)
	if err = ctx.Bind(ns); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	sess, err := s.practiceSvc.Record(ctx.Request().Context(), claims.UserID, classID, *ns, claims.IsAdmin())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message":   "practice session logged",
		"sessionId": sess.ID,
	})
}

func (s *server) practiceHistory(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	classID, err := pathID(ctx)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	sessions, err := s.practiceSvc.History(ctx.Request().Context(), claims.UserID, classID, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
