package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sadhanalabs/sadhana/core/school"
)

func (s *server) registerAdminAPI(g *echo.Group) {
	ag := g.Group("/admin", authRequired(s.conf), adminRequired())
	ag.GET("/students", s.adminStudents)
	ag.GET("/students/unassigned", s.adminUnassignedStudents)
	ag.GET("/students/:id/classes", s.adminStudentClasses)
	ag.POST("/assign-class", s.adminAssignClass)
	ag.DELETE("/remove-class", s.adminRemoveClass)
	ag.GET("/practice-sessions", s.adminSessions)
	ag.GET("/stats", s.adminStats)
}

func (s *server) adminStudents(ctx echo.Context) error {
	students, err := s.schoolSvc.Students(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (s *server) adminUnassignedStudents(ctx echo.Context) error {
	students, err := s.schoolSvc.UnassignedStudents(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (s *server) adminStudentClasses(ctx echo.Context) error {
	studentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	classes, err := s.schoolSvc.StudentClasses(ctx.Request().Context(), studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (s *server) adminAssignClass(ctx echo.Context) error {
	a := new(school.Assignment)
	if err := ctx.Bind(a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := a.Validate(validate); err != nil {
		return err
	}

	if err := s.schoolSvc.AssignClass(ctx.Request().Context(), *a); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "class assigned successfully"})
}

func (s *server) adminRemoveClass(ctx echo.Context) error {
	a := new(school.Assignment)
	if err := ctx.Bind(a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := a.Validate(validate); err != nil {
		return err
	}

	if err := s.schoolSvc.RemoveClass(ctx.Request().Context(), *a); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "class removed successfully"})
}

func (s *server) adminSessions(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	sessions, err := s.practiceSvc.All(ctx.Request().Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (s *server) adminStats(ctx echo.Context) error {
	stats, err := s.reportSvc.Stats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}
