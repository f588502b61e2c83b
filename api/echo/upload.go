package echoapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core/school"
)

// allowedUploadTypes is the MIME allow-list for material files.
var allowedUploadTypes = map[string]bool{
	"text/plain":      true,
	"application/pdf": true,
	"audio/mpeg":      true,
	"audio/wav":       true,
	"audio/ogg":       true,
	"audio/mp4":       true,
	"video/mp4":       true,
	"video/webm":      true,
}

func (s *server) registerUploadAPI(g *echo.Group) {
	bodyLimit := middleware.BodyLimit(fmt.Sprintf("%dM", s.conf.Uploads.MaxSize>>20))

	ug := g.Group("/upload", authRequired(s.conf), adminRequired())
	ug.POST("/material", s.uploadMaterial, bodyLimit)
	ug.GET("/materials", s.uploadMaterialList)
	ug.DELETE("/material/:id", s.uploadMaterialDelete)
}

// uploadMaterial attaches a lyrics or recording material to a class.
// The file part is optional; lyrics may carry inline content instead.
func (s *server) uploadMaterial(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	classID, _ := strconv.Atoi(ctx.FormValue("classId"))
	nm := school.NewMaterial{
		ClassID:    classID,
		Title:      ctx.FormValue("title"),
		Type:       ctx.FormValue("type"),
		Content:    ctx.FormValue("content"),
		UploadedBy: claims.UserID,
	}
	if err = nm.Validate(validate); err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	switch {
	case err == nil:
		nm.FilePath, err = s.saveUpload(fileHeader)
		if err != nil {
			return err
		}
	case errors.Cause(err) == http.ErrMissingFile:
		// inline-content material
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file upload")
	}

	mat, err := s.schoolSvc.AddMaterial(ctx.Request().Context(), nm)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message":    "material uploaded successfully",
		"materialId": mat.ID,
		"filePath":   mat.FilePath,
	})
}

func (s *server) uploadMaterialList(ctx echo.Context) error {
	mats, err := s.schoolSvc.Materials(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mats)
}

func (s *server) uploadMaterialDelete(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = s.schoolSvc.DeleteMaterial(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "material deleted successfully"})
}

// saveUpload stores the file under the uploads dir with a random name prefix
// and returns the public path it is served from.
func (s *server) saveUpload(fileHeader *multipart.FileHeader) (string, error) {
	contentType := fileHeader.Header.Get(echo.HeaderContentType)
	if !allowedUploadTypes[contentType] {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unsupported file type")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	defer src.Close()

	if err = os.MkdirAll(s.conf.Uploads.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating uploads dir")
	}

	name := uuid.NewString() + "-" + filepath.Base(fileHeader.Filename)
	dst, err := os.Create(filepath.Join(s.conf.Uploads.Dir, name))
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "writing upload file")
	}
	return "/uploads/" + name, nil
}
