package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	. "github.com/sadhanalabs/sadhana/api/echo"
	"github.com/sadhanalabs/sadhana/appfs"
	"github.com/sadhanalabs/sadhana/core"
	"github.com/sadhanalabs/sadhana/core/practice"
	"github.com/sadhanalabs/sadhana/core/report"
	"github.com/sadhanalabs/sadhana/core/school"
	"github.com/sadhanalabs/sadhana/core/user"
	emailsvc "github.com/sadhanalabs/sadhana/services/email"
	"github.com/sadhanalabs/sadhana/storage/database/inmem"
)

const adminEmail = "admin@test.cd"

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testApp struct {
	server Server
	conf   *core.Config
	db     *inmem.DB

	usrRepo      user.Repository
	schoolRepo   school.Repository
	practiceRepo practice.Repository
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := newTestConfig(t)

	db := inmem.NewDB()
	usrRepo := inmem.NewUserRepository(db)
	schoolRepo := inmem.NewSchoolRepository(db)
	practiceRepo := inmem.NewPracticeRepository(db)
	reportRepo := inmem.NewReportRepository(db)

	logger := nopLogger{}
	core.ParseEmailTemplates(appfs.FS, logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	server := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		UserSvc:     user.NewService(usrRepo, mailSvc, conf),
		SchoolSvc:   school.NewService(schoolRepo),
		PracticeSvc: practice.NewService(practiceRepo),
		ReportSvc:   report.NewService(reportRepo),
	})

	return &testApp{
		server:       server,
		conf:         conf,
		db:           db,
		usrRepo:      usrRepo,
		schoolRepo:   schoolRepo,
		practiceRepo: practiceRepo,
	}
}

func newTestConfig(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		Env:         "TEST",
		Debug:       true,
		TestMode:    true,
		AppName:     "Sadhana",
		SecretKey:   "test-secret",
		AdminEmails: []string{adminEmail},
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
		},
		Uploads: core.UploadsConfig{
			Dir:     t.TempDir(),
			MaxSize: 50 << 20,
		},
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func (a *testApp) createUser(t *testing.T, name, email, pwd, role string) user.User {
	t.Helper()

	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	usr, err := a.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	return usr
}

func (a *testApp) enroll(t *testing.T, userID, classID int) {
	t.Helper()
	if err := a.schoolRepo.CreateEnrollment(context.Background(), userID, classID); err != nil {
		t.Fatalf("enroll(): %v", err)
	}
}

func (a *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr, a.conf), a.conf)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func (a *testApp) getExpiredToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr, a.conf)
	claims.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	token, err := GenerateToken(claims, a.conf)
	if err != nil {
		t.Fatalf("getExpiredToken(): %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
