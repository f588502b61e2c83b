package school_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadhanalabs/sadhana/core"
	"github.com/sadhanalabs/sadhana/core/school"
	"github.com/sadhanalabs/sadhana/core/user"
	"github.com/sadhanalabs/sadhana/storage/database/inmem"
)

type fixture struct {
	svc      *school.Service
	repo     school.Repository
	db       *inmem.DB
	kirtanam school.Class
	smaranam school.Class
	student  user.User
	admin    user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := inmem.NewDB()
	repo := inmem.NewSchoolRepository(db)
	usrRepo := inmem.NewUserRepository(db)
	ctx := context.Background()

	student, err := usrRepo.CreateUser(ctx, user.User{
		Name: "Jane Doe", Email: "jane@test.cd", Role: user.RoleStudent, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	admin, err := usrRepo.CreateUser(ctx, user.User{
		Name: "Boss", Email: "admin@test.cd", Role: user.RoleAdmin, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	return &fixture{
		svc:      school.NewService(repo),
		repo:     repo,
		db:       db,
		kirtanam: db.AddClass("Kirtanam", "Kirtanam class for spiritual practice"),
		smaranam: db.AddClass("Smaranam", "Smaranam class for spiritual practice"),
		student:  student,
		admin:    admin,
	}
}

func Test_Service_ListClasses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.CreateEnrollment(ctx, f.student.ID, f.kirtanam.ID))

	classes, err := f.svc.ListClasses(ctx, f.student.ID, false)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, f.kirtanam.ID, classes[0].ID)

	classes, err = f.svc.ListClasses(ctx, f.admin.ID, true)
	require.NoError(t, err)
	assert.Len(t, classes, 2)
}

func Test_Service_GetClassDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.CreateEnrollment(ctx, f.student.ID, f.kirtanam.ID))
	_, err := f.repo.CreateMaterial(ctx, school.Material{
		ClassID: f.kirtanam.ID, Title: "Verse 1", Type: school.MaterialLyrics, Content: "Hare Krishna", UploadedBy: f.admin.ID,
	})
	require.NoError(t, err)
	_, err = f.repo.CreateMaterial(ctx, school.Material{
		ClassID: f.kirtanam.ID, Title: "Chant", Type: school.MaterialRecording, FilePath: "/uploads/chant.mp3", UploadedBy: f.admin.ID,
	})
	require.NoError(t, err)

	t.Run("materials partitioned by type", func(t *testing.T) {
		detail, err := f.svc.GetClassDetail(ctx, f.kirtanam.ID, f.student.ID, false)
		require.NoError(t, err)
		assert.Equal(t, f.kirtanam.ID, detail.ID)
		assert.Len(t, detail.Materials.Lyrics, 1)
		assert.Len(t, detail.Materials.Recordings, 1)
	})

	t.Run("unenrolled student denied", func(t *testing.T) {
		_, err := f.svc.GetClassDetail(ctx, f.smaranam.ID, f.student.ID, false)
		assert.Equal(t, school.ErrNotEnrolled, err)
	})

	t.Run("enrollment check runs before existence", func(t *testing.T) {
		_, err := f.svc.GetClassDetail(ctx, 999, f.student.ID, false)
		assert.Equal(t, school.ErrNotEnrolled, err)
	})

	t.Run("admin skips enrollment check", func(t *testing.T) {
		_, err := f.svc.GetClassDetail(ctx, f.smaranam.ID, f.admin.ID, true)
		assert.NoError(t, err)
	})

	t.Run("unknown class for admin", func(t *testing.T) {
		_, err := f.svc.GetClassDetail(ctx, 999, f.admin.ID, true)
		assert.Equal(t, school.ErrClassNotFound, err)
	})
}

func Test_Service_AssignRemoveClass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pair := school.Assignment{StudentID: f.student.ID, ClassID: f.kirtanam.ID}

	require.NoError(t, f.svc.AssignClass(ctx, pair))

	enrolled, err := f.repo.IsEnrolled(ctx, f.student.ID, f.kirtanam.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)

	t.Run("assign twice is a no-op", func(t *testing.T) {
		assert.NoError(t, f.svc.AssignClass(ctx, pair))
	})

	t.Run("unknown class", func(t *testing.T) {
		err := f.svc.AssignClass(ctx, school.Assignment{StudentID: f.student.ID, ClassID: 999})
		assert.Equal(t, school.ErrClassNotFound, err)
	})

	t.Run("unknown student", func(t *testing.T) {
		err := f.svc.AssignClass(ctx, school.Assignment{StudentID: 999, ClassID: f.kirtanam.ID})
		assert.Equal(t, school.ErrStudentNotFound, err)
	})

	t.Run("admin is not an assignable student", func(t *testing.T) {
		err := f.svc.AssignClass(ctx, school.Assignment{StudentID: f.admin.ID, ClassID: f.kirtanam.ID})
		assert.Equal(t, school.ErrStudentNotFound, err)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, f.svc.RemoveClass(ctx, pair))

		enrolled, err := f.repo.IsEnrolled(ctx, f.student.ID, f.kirtanam.ID)
		require.NoError(t, err)
		assert.False(t, enrolled)
	})

	t.Run("remove unassigned pair", func(t *testing.T) {
		err := f.svc.RemoveClass(ctx, pair)
		assert.Equal(t, school.ErrNotAssigned, err)
	})
}

func Test_Service_AddMaterial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("lyrics with content", func(t *testing.T) {
		mat, err := f.svc.AddMaterial(ctx, school.NewMaterial{
			ClassID: f.kirtanam.ID, Title: "Verse 1", Type: school.MaterialLyrics, Content: "Hare Krishna", UploadedBy: f.admin.ID,
		})
		require.NoError(t, err)
		assert.NotZero(t, mat.ID)
	})

	t.Run("lyrics without content or file rejected", func(t *testing.T) {
		_, err := f.svc.AddMaterial(ctx, school.NewMaterial{
			ClassID: f.kirtanam.ID, Title: "Empty", Type: school.MaterialLyrics, UploadedBy: f.admin.ID,
		})
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("recording needs no content", func(t *testing.T) {
		_, err := f.svc.AddMaterial(ctx, school.NewMaterial{
			ClassID: f.kirtanam.ID, Title: "Chant", Type: school.MaterialRecording, FilePath: "/uploads/chant.mp3", UploadedBy: f.admin.ID,
		})
		assert.NoError(t, err)
	})

	t.Run("unknown class", func(t *testing.T) {
		_, err := f.svc.AddMaterial(ctx, school.NewMaterial{
			ClassID: 999, Title: "X", Type: school.MaterialLyrics, Content: "x", UploadedBy: f.admin.ID,
		})
		assert.Equal(t, school.ErrClassNotFound, err)
	})
}

func Test_Service_DeleteMaterial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mat, err := f.svc.AddMaterial(ctx, school.NewMaterial{
		ClassID: f.kirtanam.ID, Title: "Verse 1", Type: school.MaterialLyrics, Content: "x", UploadedBy: f.admin.ID,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteMaterial(ctx, mat.ID))
	assert.Equal(t, school.ErrMaterialNotFound, f.svc.DeleteMaterial(ctx, mat.ID))
}

func Test_Service_Students(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.CreateEnrollment(ctx, f.student.ID, f.kirtanam.ID))
	require.NoError(t, f.repo.CreateEnrollment(ctx, f.student.ID, f.smaranam.ID))

	students, err := f.svc.Students(ctx)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Kirtanam,Smaranam", students[0].AssignedClasses)

	unassigned, err := f.svc.UnassignedStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, unassigned)

	classes, err := f.svc.StudentClasses(ctx, f.student.ID)
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, "Kirtanam", classes[0].Name)
}
