package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platedhq/plated/core"
	"github.com/platedhq/plated/core/curriculum"
	"github.com/platedhq/plated/core/exam"
	"github.com/platedhq/plated/core/student"
	inmemdb "github.com/platedhq/plated/storage/database/inmem"
	testutil "github.com/platedhq/plated/tests"
)

type testLogger struct{}

func (testLogger) Debug(msg string, args ...interface{}) {}
func (testLogger) Info(msg string, args ...interface{})  {}
func (testLogger) Warn(msg string, args ...interface{})  {}
func (testLogger) Error(msg string, args ...interface{}) {}
func (testLogger) Fatal(msg string, args ...interface{}) {}

type testDeps struct {
	server Server
	conf   *core.Config
	db     *inmemdb.DB
	cur    testutil.Curriculum
	st     student.Student
	svc    *exam.Service
}

func setup(t *testing.T) *testDeps {
	t.Helper()

	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = false

	db := inmemdb.NewDB()
	cur := testutil.SeedCurriculum(t, db)
	st := testutil.CreateStudent(t, inmemdb.NewStudentRepository(db),
		"Jane Doe", "janedoe", "jane@test.cd", "v3rys3cret", cur.GradeID, cur.CurriculumID, true)

	curriculumSvc := curriculum.NewService(inmemdb.NewCurriculumRepository(db))
	studentSvc := student.NewService(inmemdb.NewStudentRepository(db))
	examSvc := exam.NewService(inmemdb.NewExamRepository(db), curriculumSvc, exam.NewRandomSampler(), nil, testLogger{})

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     testLogger{},
		StudentSvc: studentSvc,
		ExamSvc:    examSvc,
		Validate:   validate,
		Translator: translator,
	})
	return &testDeps{server: server, conf: conf, db: db, cur: cur, st: st, svc: examSvc}
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

func getToken(t *testing.T, st student.Student, conf *core.Config) string {
	t.Helper()

	token, err := GenerateToken(GetStudentClaims(st, conf))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func Test_examApi_authRequired(t *testing.T) {
	d := setup(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/exams"},
		{http.MethodGet, "/v1/exams"},
		{http.MethodGet, "/v1/exams/options?focus=subject"},
		{http.MethodGet, "/v1/exams/33333333-3333-4333-8333-333333333333"},
		{http.MethodPost, "/v1/exams/33333333-3333-4333-8333-333333333333/submit"},
		{http.MethodGet, "/v1/exams/33333333-3333-4333-8333-333333333333/review"},
		{http.MethodDelete, "/v1/exams/33333333-3333-4333-8333-333333333333"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			req, rec := newAuthRequest(p.method, p.path, "")
			d.server.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func Test_examApi_generate(t *testing.T) {
	d := setup(t)
	testutil.SeedQuestions(t, d.db, d.cur.Lessons[0].ID, 10)
	token := getToken(t, d.st, d.conf)

	tests := []struct {
		name     string
		body     []byte
		wantCode int
		check    func(t *testing.T, res GenerateResponse)
	}{
		{
			name:     "lesson exam created",
			body:     marshallObj(t, exam.GenerateExam{Focus: "lesson", FocusID: d.cur.Lessons[0].ID}),
			wantCode: http.StatusCreated,
			check: func(t *testing.T, res GenerateResponse) {
				assert.True(t, res.Success)
				assert.NotEmpty(t, res.ExamID)
			},
		},
		{
			name:     "empty pool",
			body:     marshallObj(t, exam.GenerateExam{Focus: "lesson", FocusID: d.cur.Lessons[1].ID}),
			wantCode: http.StatusOK,
			check: func(t *testing.T, res GenerateResponse) {
				assert.False(t, res.Success)
				assert.Empty(t, res.ExamID)
				assert.NotEmpty(t, res.Detail)
			},
		},
		{
			name:     "unknown focus",
			body:     marshallObj(t, exam.GenerateExam{Focus: "grade", FocusID: d.cur.Lessons[0].ID}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing focus id",
			body:     marshallObj(t, exam.GenerateExam{Focus: "lesson"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "focus object not found",
			body:     marshallObj(t, exam.GenerateExam{Focus: "lesson", FocusID: "33333333-3333-4333-8333-333333333333"}),
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/exams", token, tt.body)
			d.server.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.check != nil {
				var res GenerateResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				tt.check(t, res)
			}
		})
	}
}

func Test_examApi_retrieve_hidesAnswers(t *testing.T) {
	d := setup(t)
	testutil.SeedQuestions(t, d.db, d.cur.Lessons[0].ID, 5)
	token := getToken(t, d.st, d.conf)

	ex := generateExam(t, d, exam.FocusLesson, d.cur.Lessons[0].ID)

	req, rec := newAuthRequest(http.MethodGet, "/v1/exams/"+ex.ID, token)
	d.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.NotContains(t, body, "is_correct")
	assert.NotContains(t, body, "solution")

	var res struct {
		ID        string                `json:"id"`
		Title     string                `json:"title"`
		MaxScore  int                   `json:"max_score"`
		Questions []curriculum.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, ex.ID, res.ID)
	assert.Equal(t, 5, res.MaxScore)
	assert.Len(t, res.Questions, 5)
	assert.Equal(t, fmt.Sprintf("Exam for %s by %s", d.cur.Lessons[0].Title, d.st.Name), res.Title)

	// another student cannot see it
	other := testutil.CreateStudent(t, inmemdb.NewStudentRepository(d.db),
		"Mallory", "mallory1", "mallory@test.cd", "", d.cur.GradeID, d.cur.CurriculumID, true)
	req, rec = newAuthRequest(http.MethodGet, "/v1/exams/"+ex.ID, getToken(t, other, d.conf))
	d.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_examApi_submitAndReview(t *testing.T) {
	d := setup(t)
	testutil.SeedQuestions(t, d.db, d.cur.Lessons[0].ID, 10)
	token := getToken(t, d.st, d.conf)

	ex := generateExam(t, d, exam.FocusLesson, d.cur.Lessons[0].ID)

	// review before solving is a conflict
	req, rec := newAuthRequest(http.MethodGet, "/v1/exams/"+ex.ID+"/review", token)
	d.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// answer 7 of 10 correctly
	answers := make(map[string]string, len(ex.Questions))
	for i, q := range ex.Questions {
		if i < 7 {
			c, ok := q.CorrectChoice()
			require.True(t, ok)
			answers[q.ID] = c.ID
		} else {
			for _, c := range q.Choices {
				if !c.IsCorrect {
					answers[q.ID] = c.ID
					break
				}
			}
		}
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/exams/"+ex.ID+"/submit", token,
		marshallObj(t, exam.Submission{Answers: answers}))
	d.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res exam.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 7, res.Score)
	assert.Equal(t, 10, res.MaxScore)
	assert.Equal(t, float64(70), res.Percentage)

	// resubmission is a conflict
	req, rec = newAuthRequest(http.MethodPost, "/v1/exams/"+ex.ID+"/submit", token,
		marshallObj(t, exam.Submission{Answers: answers}))
	d.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// review now exposes correctness
	req, rec = newAuthRequest(http.MethodGet, "/v1/exams/"+ex.ID+"/review", token)
	d.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var review ExamReviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &review))
	assert.Equal(t, 7, review.Score)
	assert.Equal(t, 10, review.MaxScore)
	assert.Len(t, review.Questions, 10)

	var correct int
	for _, q := range review.Questions {
		assert.NotEmpty(t, q.CorrectChoiceID)
		if q.IsCorrect {
			correct++
		}
	}
	assert.Equal(t, 7, correct)
}

func Test_examApi_query(t *testing.T) {
	d := setup(t)
	testutil.SeedQuestions(t, d.db, d.cur.Lessons[0].ID, 5)
	token := getToken(t, d.st, d.conf)

	lessonEx := generateExam(t, d, exam.FocusLesson, d.cur.Lessons[0].ID)
	chapterEx := generateExam(t, d, exam.FocusChapter, d.cur.Chapter.ID)

	tests := []struct {
		name      string
		path      string
		wantCode  int
		wantIDs   []string
		wantCount int
	}{
		{name: "all", path: "/v1/exams", wantCode: http.StatusOK, wantIDs: []string{lessonEx.ID, chapterEx.ID}, wantCount: 2},
		{name: "lesson filter", path: "/v1/exams?focus=lesson", wantCode: http.StatusOK, wantIDs: []string{lessonEx.ID}, wantCount: 1},
		{name: "chapter filter by id", path: "/v1/exams?focus=chapter&filter_id=" + d.cur.Chapter.ID, wantCode: http.StatusOK, wantIDs: []string{chapterEx.ID}, wantCount: 1},
		{name: "unsolved", path: "/v1/exams?is_solved=false", wantCode: http.StatusOK, wantIDs: []string{lessonEx.ID, chapterEx.ID}, wantCount: 2},
		{name: "solved", path: "/v1/exams?is_solved=true", wantCode: http.StatusOK, wantIDs: []string{}, wantCount: 0},
		{name: "bad focus", path: "/v1/exams?focus=grade", wantCode: http.StatusBadRequest},
		{name: "malformed filter id", path: "/v1/exams?focus=chapter&filter_id=abc", wantCode: http.StatusBadRequest},
		{name: "page out of range", path: "/v1/exams?page=2", wantCode: http.StatusOK, wantIDs: []string{}, wantCount: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, token)
			d.server.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}

			var res struct {
				Count   int         `json:"count"`
				Page    int         `json:"page"`
				Pages   int         `json:"pages"`
				Results []exam.Exam `json:"results"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
			assert.Equal(t, tt.wantCount, res.Count)
			assert.Len(t, res.Results, len(tt.wantIDs))
			got := make(map[string]bool, len(res.Results))
			for _, ex := range res.Results {
				got[ex.ID] = true
			}
			for _, id := range tt.wantIDs {
				assert.True(t, got[id], "missing exam %s", id)
			}
		})
	}
}

func Test_examApi_options(t *testing.T) {
	d := setup(t)
	token := getToken(t, d.st, d.conf)

	tests := []struct {
		focus   string
		wantIDs []string
	}{
		{focus: "subject", wantIDs: []string{d.cur.Subject.ID}},
		{focus: "unit", wantIDs: []string{d.cur.Unit.ID}},
		{focus: "chapter", wantIDs: []string{d.cur.Chapter.ID}},
		{focus: "lesson", wantIDs: []string{d.cur.Lessons[0].ID, d.cur.Lessons[1].ID}},
	}
	for _, tt := range tests {
		t.Run(tt.focus, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/exams/options?focus="+tt.focus, token)
			d.server.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var opts []curriculum.ScopeOption
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opts))
			require.Len(t, opts, len(tt.wantIDs))
			got := make(map[string]bool, len(opts))
			for _, opt := range opts {
				got[opt.ID] = true
			}
			for _, id := range tt.wantIDs {
				assert.True(t, got[id], "missing option %s", id)
			}
		})
	}

	t.Run("bad focus", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/exams/options?focus=grade", token)
		d.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_examApi_destroy(t *testing.T) {
	d := setup(t)
	testutil.SeedQuestions(t, d.db, d.cur.Lessons[0].ID, 3)
	token := getToken(t, d.st, d.conf)

	ex := generateExam(t, d, exam.FocusLesson, d.cur.Lessons[0].ID)

	req, rec := newAuthRequest(http.MethodDelete, "/v1/exams/"+ex.ID, token)
	d.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/exams/"+ex.ID, token)
	d.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_studentApi_login(t *testing.T) {
	d := setup(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "ok", body: `{"username": "janedoe", "password": "v3rys3cret"}`, wantCode: http.StatusOK},
		{name: "by email", body: `{"username": "jane@test.cd", "password": "v3rys3cret"}`, wantCode: http.StatusOK},
		{name: "wrong password", body: `{"username": "janedoe", "password": "nope"}`, wantCode: http.StatusBadRequest},
		{name: "unknown user", body: `{"username": "nobody", "password": "v3rys3cret"}`, wantCode: http.StatusBadRequest},
		{name: "missing fields", body: `{}`, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/students/login", "", []byte(tt.body))
			d.server.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.True(t, strings.Count(res.Token, ".") == 2, "want a JWT")

				// the token is accepted on authed endpoints
				req, rec = newAuthRequest(http.MethodGet, "/v1/students/me", res.Token)
				d.server.ServeHTTP(rec, req)
				assert.Equal(t, http.StatusOK, rec.Code)
			}
		})
	}
}

func Test_studentApi_noPublicRegistration(t *testing.T) {
	d := setup(t)

	body := []byte(`{"username": "newkid", "name": "New Kid", "password": "v3rys3cret", "password_confirm": "v3rys3cret"}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/students/register", "", body)
	d.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func generateExam(t *testing.T, d *testDeps, kind exam.FocusKind, focusID string) *exam.Exam {
	t.Helper()

	ex, err := d.svc.Generate(context.Background(), d.st, kind, focusID)
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if ex == nil {
		t.Fatal("Generate() returned no exam")
	}
	return ex
}
