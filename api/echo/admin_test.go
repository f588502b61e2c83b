package echoapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/sadhanalabs/sadhana/api/echo"
	"github.com/sadhanalabs/sadhana/core/practice"
	"github.com/sadhanalabs/sadhana/core/report"
	"github.com/sadhanalabs/sadhana/core/school"
	"github.com/sadhanalabs/sadhana/core/user"
)

func Test_adminApi_gates(t *testing.T) {
	app := setup(t)
	student := app.createUser(t, "Jane Doe", "jane@test.cd", "secret1", user.RoleStudent)

	tests := []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/api/admin/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", method: http.MethodGet, path: "/api/admin/students", token: app.getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin required for stats", method: http.MethodGet, path: "/api/admin/stats", token: app.getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "admin required for assign", method: http.MethodPost, path: "/api/admin/assign-class", token: app.getToken(t, student),
			body: []byte(`{"studentId": 1, "classId": 1}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_adminApi_students(t *testing.T) {
	app := setup(t)

	kirtanam := app.db.AddClass("Kirtanam", "Kirtanam class for spiritual practice")
	smaranam := app.db.AddClass("Smaranam", "Smaranam class for spiritual practice")

	admin := app.createUser(t, "Boss", adminEmail, "secret1", user.RoleAdmin)
	jane := app.createUser(t, "Jane Doe", "jane@test.cd", "secret1", user.RoleStudent)
	john := app.createUser(t, "John Roe", "john@test.cd", "secret1", user.RoleStudent)
	app.enroll(t, jane.ID, kirtanam.ID)
	app.enroll(t, jane.ID, smaranam.ID)

	adminToken := app.getToken(t, admin)

	t.Run("students with joined class names", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/admin/students", adminToken)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var students []school.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
		require.Len(t, students, 2) // the admin is not listed
		assert.Equal(t, jane.ID, students[0].ID)
		assert.Equal(t, "Kirtanam,Smaranam", students[0].AssignedClasses)
		assert.Equal(t, john.ID, students[1].ID)
		assert.Empty(t, students[1].AssignedClasses)
	})

	t.Run("unassigned students", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/admin/students/unassigned", adminToken)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var students []school.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
		require.Len(t, students, 1)
		assert.Equal(t, john.ID, students[0].ID)
	})

	t.Run("classes for one student", func(t *testing.T) {
		path := fmt.Sprintf("/api/admin/students/%d/classes", jane.ID)
		req, rec := newAuthRequest(http.MethodGet, path, adminToken)
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var classes []school.StudentClass
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
		require.Len(t, classes, 2)
		assert.Equal(t, "Kirtanam", classes[0].Name)
		assert.False(t, classes[0].AssignedAt.IsZero())
	})
}

func Test_adminApi_assignRemoveClass(t *testing.T) {
	app := setup(t)

	kirtanam := app.db.AddClass("Kirtanam", "Kirtanam class for spiritual practice")

	admin := app.createUser(t, "Boss", adminEmail, "secret1", user.RoleAdmin)
	jane := app.createUser(t, "Jane Doe", "jane@test.cd", "secret1", user.RoleStudent)
	adminToken := app.getToken(t, admin)

	assignBody := []byte(fmt.Sprintf(`{"studentId": %d, "classId": %d}`, jane.ID, kirtanam.ID))

	t.Run("assign", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/admin/assign-class", adminToken, assignBody)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		enrolled, err := app.schoolRepo.IsEnrolled(context.Background(), jane.ID, kirtanam.ID)
		require.NoError(t, err)
		assert.True(t, enrolled)
	})

	t.Run("assign is idempotent", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/admin/assign-class", adminToken, assignBody)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("remove", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/api/admin/remove-class", adminToken, assignBody)
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		enrolled, err := app.schoolRepo.IsEnrolled(context.Background(), jane.ID, kirtanam.ID)
		require.NoError(t, err)
		assert.False(t, enrolled)
	})

	tests := []httpTest{
		{
			name: "remove unassigned pair", method: http.MethodDelete, path: "/api/admin/remove-class", body: assignBody,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "student is not assigned to this class"}),
		},
		{
			name: "assign unknown class", path: "/api/admin/assign-class",
			body:     []byte(fmt.Sprintf(`{"studentId": %d, "classId": 999}`, jane.ID)),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
		{
			name: "assign unknown student", path: "/api/admin/assign-class",
			body:     []byte(fmt.Sprintf(`{"studentId": 999, "classId": %d}`, kirtanam.ID)),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			// admins are not assignable targets
			name: "assign admin", path: "/api/admin/assign-class",
			body:     []byte(fmt.Sprintf(`{"studentId": %d, "classId": %d}`, admin.ID, kirtanam.ID)),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{name: "assign missing fields", path: "/api/admin/assign-class", body: []byte(`{}`), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodPost
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, adminToken, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_adminApi_practiceSessions(t *testing.T) {
	app := setup(t)

	kirtanam := app.db.AddClass("Kirtanam", "Kirtanam class for spiritual practice")
	admin := app.createUser(t, "Boss", adminEmail, "secret1", user.RoleAdmin)
	jane := app.createUser(t, "Jane Doe", "jane@test.cd", "secret1", user.RoleStudent)
	app.enroll(t, jane.ID, kirtanam.ID)

	ctx := context.Background()
	now := time.Now().UTC()
	for i := 1; i <= 3; i++ {
		_, err := app.practiceRepo.CreateSession(ctx, practice.Session{
			UserID: jane.ID, ClassID: kirtanam.ID, Duration: i * 100, SessionDate: now.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	t.Run("all sessions with student and class info", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/admin/practice-sessions", app.getToken(t, admin))
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sessions []practice.Session
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
		require.Len(t, sessions, 3)
		assert.Equal(t, 300, sessions[0].Duration) // newest first
		assert.Equal(t, "Jane Doe", sessions[0].StudentName)
		assert.Equal(t, "jane@test.cd", sessions[0].StudentEmail)
		assert.Equal(t, "Kirtanam", sessions[0].ClassName)
	})

	t.Run("limit applies", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/admin/practice-sessions?limit=2", app.getToken(t, admin))
		app.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sessions []practice.Session
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
		assert.Len(t, sessions, 2)
	})
}

func Test_adminApi_stats(t *testing.T) {
	app := setup(t)

	kirtanam := app.db.AddClass("Kirtanam", "Kirtanam class for spiritual practice")
	smaranam := app.db.AddClass("Smaranam", "Smaranam class for spiritual practice")

	admin := app.createUser(t, "Boss", adminEmail, "secret1", user.RoleAdmin)
	jane := app.createUser(t, "Jane Doe", "jane@test.cd", "secret1", user.RoleStudent)
	john := app.createUser(t, "John Roe", "john@test.cd", "secret1", user.RoleStudent)
	app.enroll(t, jane.ID, kirtanam.ID)
	app.enroll(t, john.ID, kirtanam.ID)

	ctx := context.Background()
	_, err := app.practiceRepo.CreateSession(ctx, practice.Session{
		UserID: jane.ID, ClassID: kirtanam.ID, Duration: 600, SessionDate: time.Now().UTC(),
	})
	require.NoError(t, err)
	_, err = app.practiceRepo.CreateSession(ctx, practice.Session{
		UserID: john.ID, ClassID: kirtanam.ID, Duration: 300, SessionDate: time.Now().UTC(),
	})
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodGet, "/api/admin/stats", app.getToken(t, admin))
	app.server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats report.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, int64(900), stats.TotalDuration)
	// classes with no enrollments are still reported, with a zero count
	require.Len(t, stats.StudentsByClass, 2)
	assert.Equal(t, report.ClassCount{ClassName: kirtanam.Name, StudentCount: 2}, stats.StudentsByClass[0])
	assert.Equal(t, report.ClassCount{ClassName: smaranam.Name, StudentCount: 0}, stats.StudentsByClass[1])
}

// End-to-end walkthrough: a student registers, an admin assigns them a class,
// they log a 10 minute session and it shows up in the admin stats.
func Test_adminApi_scenario(t *testing.T) {
	app := setup(t)

	kirtanam := app.db.AddClass("Kirtanam", "Kirtanam class for spiritual practice")
	admin := app.createUser(t, "Boss", adminEmail, "secret1", user.RoleAdmin)
	adminToken := app.getToken(t, admin)

	// register
	body := []byte(`{"name": "Jane Doe", "email": "jane@test.cd", "password": "secret1"}`)
	req, rec := newRequest(http.MethodPost, "/api/auth/register", body)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var auth AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &auth))

	// no classes visible yet
	req, rec = newAuthRequest(http.MethodGet, "/api/classes", auth.Token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	// admin assigns Kirtanam
	assignBody := []byte(fmt.Sprintf(`{"studentId": %d, "classId": %d}`, auth.User.ID, kirtanam.ID))
	req, rec = newAuthRequest(http.MethodPost, "/api/admin/assign-class", adminToken, assignBody)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the class is now visible
	req, rec = newAuthRequest(http.MethodGet, "/api/classes", auth.Token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var classes []school.Class
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &classes))
	require.Len(t, classes, 1)
	assert.Equal(t, "Kirtanam", classes[0].Name)

	// log a 10 minute practice session
	path := fmt.Sprintf("/api/classes/%d/practice", kirtanam.ID)
	req, rec = newAuthRequest(http.MethodPost, path, auth.Token, []byte(`{"duration": 600, "notes": "morning chant"}`))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// it shows up in the admin stats
	req, rec = newAuthRequest(http.MethodGet, "/api/admin/stats", adminToken)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats report.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalStudents)
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, int64(600), stats.TotalDuration)
}
