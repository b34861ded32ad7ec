package echoapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/progress"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	dummystorage "github.com/darasahq/darasa/services/storage/dummy"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
)

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:         true,
		Env:              "TEST",
		AppName:          "Darasa",
		Build:            "test",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Darasa", Address: "noreply@localhost"},
		Server: core.ServerConfig{
			Host:                      "localhost",
			Addr:                      ":0",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
			DemoHosts:                 []string{".web.app", ".firebaseapp.com"},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	conf := newTestConfig()

	db, err := dummydb.Open()
	require.NoError(t, err)
	db.Seed()

	usrRepo := dummydb.NewUserRepository(db)
	crsRepo := dummydb.NewCourseRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	fileSvc := dummystorage.NewService()

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	return NewServer(ServerDeps{
		Conf:           conf,
		Logger:         testLogger{},
		Validate:       validate,
		Translator:     translator,
		UserSvc:        user.NewService(conf, usrRepo, mailSvc),
		CourseSvc:      course.NewService(crsRepo),
		EnrollSvc:      enroll.NewService(dummydb.NewEnrollRepository(db), crsRepo),
		ProgressSvc:    progress.NewService(dummydb.NewProgressRepository(db), crsRepo),
		AssignmentSvc:  assignment.NewService(dummydb.NewAssignmentRepository(db), usrRepo, mailSvc, fileSvc),
		DisableReqLogs: true,
	})
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echoHeaderContentType, echoMIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

const (
	echoHeaderContentType   = "Content-Type"
	echoMIMEApplicationJSON = "application/json"
)

func login(t *testing.T, srv *Server, uname, pwd string) string {
	rec := doJSON(t, srv, http.MethodPost, "/v1/users/login", "", map[string]string{
		"username": uname,
		"password": pwd,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func activeCourse(t *testing.T, srv *Server, token string) course.Course {
	rec := doJSON(t, srv, http.MethodGet, "/v1/courses", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var courses []course.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
	for _, crs := range courses {
		if crs.IsActive {
			return crs
		}
	}
	t.Fatal("no active course in seed data")
	return course.Course{}
}

func TestServer_health(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "ok", res["status"])
	assert.Equal(t, string(core.ModeDemo), res["mode"])
}

func TestServer_login(t *testing.T) {
	srv := newTestServer(t)

	// bad credentials
	rec := doJSON(t, srv, http.MethodPost, "/v1/users/login", "", map[string]string{
		"username": "demo_student",
		"password": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// good credentials
	login(t, srv, "demo_student", "Demo-pass-123")
}

func TestServer_learnerFlow(t *testing.T) {
	srv := newTestServer(t)

	studentToken := login(t, srv, "demo_student", "Demo-pass-123")
	crs := activeCourse(t, srv, studentToken)

	// lessons are gated behind enrollment
	rec := doJSON(t, srv, http.MethodGet, "/v1/courses/"+crs.ID+"/lessons", studentToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// enroll; twice is fine
	rec = doJSON(t, srv, http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", studentToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var enr enroll.Enrollment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enr))

	rec = doJSON(t, srv, http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", studentToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var enr2 enroll.Enrollment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enr2))
	assert.Equal(t, enr.ID, enr2.ID)

	// lessons now visible
	rec = doJSON(t, srv, http.MethodGet, "/v1/courses/"+crs.ID+"/lessons", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lessons []course.Lesson
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lessons))
	require.Len(t, lessons, 3)

	// complete one lesson; progress reflects it
	rec = doJSON(t, srv, http.MethodPost, "/v1/courses/"+crs.ID+"/lessons/"+lessons[0].ID+"/complete", studentToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/v1/courses/"+crs.ID+"/progress", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var prg ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prg))
	assert.InDelta(t, 100.0/3, prg.Percent, 0.01)
	assert.Len(t, prg.Lessons, 1)
}

func TestServer_submissionFlow(t *testing.T) {
	srv := newTestServer(t)

	studentToken := login(t, srv, "demo_student", "Demo-pass-123")
	teacherToken := login(t, srv, "demo_teacher", "Demo-pass-123")
	crs := activeCourse(t, srv, studentToken)

	// fetch the seeded assignment as the teacher
	rec := doJSON(t, srv, http.MethodGet, "/v1/courses/"+crs.ID+"/assignments", teacherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var asgs []assignment.Assignment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &asgs))
	require.NotEmpty(t, asgs)
	asg := asgs[0]

	// assignments are course content: not reachable before enrolling
	rec = doJSON(t, srv, http.MethodGet, "/v1/assignments/"+asg.ID, studentToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// enroll the student
	rec = doJSON(t, srv, http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", studentToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/v1/assignments/"+asg.ID, studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// submit with a file
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "main.go")
	require.NoError(t, err)
	_, err = fw.Write([]byte("package main\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("notes", "first attempt"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/assignments/"+asg.ID+"/submissions", &buf)
	req.Header.Set(echoHeaderContentType, mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+studentToken)
	recorder := httptest.NewRecorder()
	srv.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var sub assignment.Submission
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &sub))
	require.Len(t, sub.FilePaths, 1)
	assert.Equal(t, "first attempt", sub.Notes)
	assert.False(t, sub.IsLate)

	// the student cannot grade
	rec = doJSON(t, srv, http.MethodPost, "/v1/submissions/"+sub.ID+"/grade", studentToken, map[string]interface{}{"score": 90})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// out-of-range score is rejected with a field error
	rec = doJSON(t, srv, http.MethodPost, "/v1/submissions/"+sub.ID+"/grade", teacherToken, map[string]interface{}{"score": 200})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// the teacher grades
	rec = doJSON(t, srv, http.MethodPost, "/v1/submissions/"+sub.ID+"/grade", teacherToken, map[string]interface{}{
		"score":    85,
		"feedback": "solid work",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var graded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graded))
	assert.Equal(t, string(assignment.StatusGraded), graded["status"])

	// the student downloads their file back
	rec = doJSON(t, srv, http.MethodGet, "/v1/submissions/"+sub.ID+"/files?path="+sub.FilePaths[0], studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "package main\n", rec.Body.String())

	// the teacher lists all submissions; the student may not
	rec = doJSON(t, srv, http.MethodGet, "/v1/assignments/"+asg.ID+"/submissions", teacherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, http.MethodGet, "/v1/assignments/"+asg.ID+"/submissions", studentToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_courseAuthoring(t *testing.T) {
	srv := newTestServer(t)

	studentToken := login(t, srv, "demo_student", "Demo-pass-123")
	teacherToken := login(t, srv, "demo_teacher", "Demo-pass-123")

	// students cannot author courses
	rec := doJSON(t, srv, http.MethodPost, "/v1/courses", studentToken, map[string]interface{}{"title": "Hacking 101"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/v1/courses", teacherToken, map[string]interface{}{
		"title":       "Testing in Go",
		"description": "Tables all the way down.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var crs course.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crs))
	assert.True(t, crs.IsActive)

	rec = doJSON(t, srv, http.MethodPost, "/v1/courses/"+crs.ID+"/lessons", teacherToken, map[string]interface{}{
		"title":    "TestMain",
		"position": 0,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, "/v1/courses/"+crs.ID+"/assignments", teacherToken, map[string]interface{}{
		"title":     "Write a table test",
		"due_date":  time.Now().Add(7 * 24 * time.Hour).UTC().Format(time.RFC3339),
		"max_score": 50,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
