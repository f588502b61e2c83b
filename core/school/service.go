package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core"
)

var (
	// errors
	ErrClassNotFound    = errors.New("class not found")
	ErrStudentNotFound  = errors.New("student not found")
	ErrNotEnrolled      = errors.New("access denied to this class")
	ErrNotAssigned      = errors.New("student is not assigned to this class")
	ErrMaterialNotFound = errors.New("material not found")
)

const errLyricsContent = "lyrics content or file is required"

type (
	Repository interface {
		QueryAllClasses(ctx context.Context) ([]Class, error)
		QueryClassesByUser(ctx context.Context, userID int) ([]Class, error)
		GetClassByID(ctx context.Context, id int) (Class, error)
		QueryMaterialsByClass(ctx context.Context, classID int) ([]Material, error)

		StudentExists(ctx context.Context, id int) (bool, error)
		IsEnrolled(ctx context.Context, userID, classID int) (bool, error)
		// CreateEnrollment is an insert-or-ignore on the (userID, classID) pair.
		CreateEnrollment(ctx context.Context, userID, classID int) error
		DeleteEnrollment(ctx context.Context, userID, classID int) (bool, error)

		QueryStudents(ctx context.Context) ([]Student, error)
		QueryUnassignedStudents(ctx context.Context) ([]Student, error)
		QueryStudentClasses(ctx context.Context, userID int) ([]StudentClass, error)

		CreateMaterial(ctx context.Context, mat Material) (Material, error)
		DeleteMaterial(ctx context.Context, id int) (bool, error)
		QueryAllMaterials(ctx context.Context) ([]Material, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListClasses returns the catalog for admins and the enrolled subset for students,
// ordered by name.
func (svc *Service) ListClasses(ctx context.Context, userID int, isAdmin bool) ([]Class, error) {
	if isAdmin {
		return svc.repo.QueryAllClasses(ctx)
	}
	return svc.repo.QueryClassesByUser(ctx, userID)
}

// GetClassDetail returns a class with its materials partitioned by type.
// Students must be enrolled in the class; admins always pass.
func (svc *Service) GetClassDetail(ctx context.Context, classID, userID int, isAdmin bool) (ClassDetail, error) {
	if !isAdmin {
		enrolled, err := svc.repo.IsEnrolled(ctx, userID, classID)
		if err != nil {
			return ClassDetail{}, errors.Wrap(err, "checking enrollment")
		}
		if !enrolled {
			return ClassDetail{}, ErrNotEnrolled
		}
	}

	cls, err := svc.repo.GetClassByID(ctx, classID)
	if err != nil {
		return ClassDetail{}, err
	}

	mats, err := svc.repo.QueryMaterialsByClass(ctx, classID)
	if err != nil {
		return ClassDetail{}, errors.Wrap(err, "querying materials")
	}

	detail := ClassDetail{
		Class: cls,
		Materials: MaterialSet{
			Lyrics:     make([]Material, 0, len(mats)),
			Recordings: make([]Material, 0),
		},
	}
	for _, mat := range mats {
		if mat.Type == MaterialRecording {
			detail.Materials.Recordings = append(detail.Materials.Recordings, mat)
		} else {
			detail.Materials.Lyrics = append(detail.Materials.Lyrics, mat)
		}
	}
	return detail, nil
}

// AssignClass enrolls a student in a class. Assigning an already-assigned
// pair is a no-op; enrollment is set-membership, not an event log.
func (svc *Service) AssignClass(ctx context.Context, a Assignment) error {
	if err := svc.checkPair(ctx, a); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.CreateEnrollment(ctx, a.StudentID, a.ClassID), "creating enrollment")
}

// RemoveClass deletes an enrollment. Removing a pair that is not currently
// assigned is an error, distinct from an unknown student or class.
func (svc *Service) RemoveClass(ctx context.Context, a Assignment) error {
	if err := svc.checkPair(ctx, a); err != nil {
		return err
	}
	deleted, err := svc.repo.DeleteEnrollment(ctx, a.StudentID, a.ClassID)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if !deleted {
		return ErrNotAssigned
	}
	return nil
}

func (svc *Service) checkPair(ctx context.Context, a Assignment) error {
	if _, err := svc.repo.GetClassByID(ctx, a.ClassID); err != nil {
		return err
	}
	exists, err := svc.repo.StudentExists(ctx, a.StudentID)
	if err != nil {
		return errors.Wrap(err, "checking student")
	}
	if !exists {
		return ErrStudentNotFound
	}
	return nil
}

func (svc *Service) Students(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryStudents(ctx)
}

func (svc *Service) UnassignedStudents(ctx context.Context) ([]Student, error) {
	return svc.repo.QueryUnassignedStudents(ctx)
}

func (svc *Service) StudentClasses(ctx context.Context, studentID int) ([]StudentClass, error) {
	return svc.repo.QueryStudentClasses(ctx, studentID)
}

// AddMaterial attaches a lyrics or recording material to a class.
func (svc *Service) AddMaterial(ctx context.Context, nm NewMaterial) (Material, error) {
	if _, err := svc.repo.GetClassByID(ctx, nm.ClassID); err != nil {
		return Material{}, err
	}
	if nm.Type == MaterialLyrics && nm.Content == "" && nm.FilePath == "" {
		return Material{}, core.NewValidationError(nil, core.FieldError{Field: "content", Error: errLyricsContent})
	}

	mat := Material{
		ClassID:    nm.ClassID,
		Title:      nm.Title,
		Type:       nm.Type,
		Content:    nm.Content,
		FilePath:   nm.FilePath,
		UploadedBy: nm.UploadedBy,
	}
	mat, err := svc.repo.CreateMaterial(ctx, mat)
	return mat, errors.Wrap(err, "creating material")
}

func (svc *Service) DeleteMaterial(ctx context.Context, id int) error {
	deleted, err := svc.repo.DeleteMaterial(ctx, id)
	if err != nil {
		return errors.Wrap(err, "deleting material")
	}
	if !deleted {
		return ErrMaterialNotFound
	}
	return nil
}

func (svc *Service) Materials(ctx context.Context) ([]Material, error) {
	return svc.repo.QueryAllMaterials(ctx)
}
