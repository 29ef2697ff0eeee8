package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/platedhq/plated/core/curriculum"
	"github.com/platedhq/plated/core/exam"
	"github.com/platedhq/plated/core/student"
)

type examApi struct {
	svc        *exam.Service
	studentSvc *student.Service
	validate   *validator.Validate
}

func registerExamAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *exam.Service, studentSvc *student.Service, validate *validator.Validate) {
	api := examApi{
		svc:        svc,
		studentSvc: studentSvc,
		validate:   validate,
	}

	eg := g.Group("/exams", jwt)
	eg.POST("", api.generate)
	eg.GET("", api.query)
	eg.GET("/options", api.options)

	dg := eg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.POST("/submit", api.submit)
	dg.GET("/review", api.review)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *examApi) generate(ctx echo.Context) error {
	var data exam.GenerateExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	kind, err := exam.ParseFocusKind(data.Focus)
	if err != nil {
		return err
	}

	st, err := getContextStudent(ctx, api.studentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	ex, err := api.svc.Generate(ctx.Request().Context(), st, kind, data.FocusID)
	if err != nil {
		if errors.Cause(err) == exam.ErrScopeUnavailable {
			return ctx.JSON(http.StatusOK, GenerateResponse{Detail: exam.ErrScopeUnavailable.Error()})
		}
		return errors.Wrap(err, "generating exam")
	}
	if ex == nil {
		// empty question pool: nothing to examine
		return ctx.JSON(http.StatusOK, GenerateResponse{Detail: "no questions are available for this focus"})
	}
	return ctx.JSON(http.StatusCreated, GenerateResponse{Success: true, ExamID: ex.ID})
}

func (api *examApi) query(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.studentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	filter := new(exam.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if err := filter.Clean(); err != nil {
		return err
	}
	page := new(Pagination)
	page.Bind(ctx, exam.PageSize)

	exams, count, err := api.svc.Query(ctx.Request().Context(), st.ID, filter, page.Pagination)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	if exams == nil {
		exams = []exam.Exam{}
	}
	return ctx.JSON(http.StatusOK, PaginatedResponse{
		Count:   count,
		Page:    page.Page,
		Pages:   page.Pages(count),
		Results: exams,
	})
}

func (api *examApi) options(ctx echo.Context) error {
	kind, err := exam.ParseFocusKind(ctx.QueryParam("focus"))
	if err != nil {
		return err
	}

	st, err := getContextStudent(ctx, api.studentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	opts, err := api.svc.ScopeOptions(ctx.Request().Context(), st, kind)
	if err != nil {
		if errors.Cause(err) == exam.ErrScopeUnavailable {
			opts = []curriculum.ScopeOption{}
		} else {
			return errors.Wrap(err, "querying scope options")
		}
	}
	if opts == nil {
		opts = []curriculum.ScopeOption{}
	}
	return ctx.JSON(http.StatusOK, opts)
}

func (api *examApi) retrieve(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.studentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	rctx := ctx.Request().Context()
	ex, err := api.svc.Get(rctx, st.ID, ctx.Param("id"))
	if err != nil {
		return err
	}

	title, err := api.svc.Title(rctx, st, ex)
	if err != nil {
		return errors.Wrap(err, "building exam title")
	}
	return ctx.JSON(http.StatusOK, ExamDetailResponse{Exam: ex, Title: title, Questions: ex.Questions})
}

func (api *examApi) submit(ctx echo.Context) error {
	var data exam.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := getContextStudent(ctx, api.studentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	_, res, err := api.svc.Grade(ctx.Request().Context(), st, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *examApi) review(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.studentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	ex, reviews, err := api.svc.Review(ctx.Request().Context(), st, ctx.Param("id"))
	if err != nil {
		return err
	}

	results := make([]QuestionReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		res := QuestionReviewResponse{Question: r.Question, IsCorrect: r.Correct}
		if r.Chosen != nil {
			res.ChosenChoiceID = r.Chosen.ID
		}
		if correct, ok := r.Question.CorrectChoice(); ok {
			res.CorrectChoiceID = correct.ID
		}
		results = append(results, res)
	}
	return ctx.JSON(http.StatusOK, ExamReviewResponse{
		Score:      ex.Score.Int,
		MaxScore:   ex.MaxScore(),
		Percentage: ex.ScorePercentage(),
		Questions:  results,
	})
}

func (api *examApi) destroy(ctx echo.Context) error {
	st, err := getContextStudent(ctx, api.studentSvc)
	if err != nil {
		return errors.Wrap(err, "getting context student")
	}

	if err := api.svc.Delete(ctx.Request().Context(), st.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	GenerateResponse struct {
		Success bool   `json:"success"`
		ExamID  string `json:"exam_id,omitempty"`
		Detail  string `json:"detail,omitempty"`
	}

	PaginatedResponse struct {
		Count   int         `json:"count"`
		Page    int         `json:"page"`
		Pages   int         `json:"pages"`
		Results interface{} `json:"results"`
	}

	ExamDetailResponse struct {
		exam.Exam
		Title     string                `json:"title"`
		Questions []curriculum.Question `json:"questions"`
	}

	QuestionReviewResponse struct {
		Question        curriculum.Question `json:"question"`
		ChosenChoiceID  string              `json:"chosen_choice_id,omitempty"`
		CorrectChoiceID string              `json:"correct_choice_id"`
		IsCorrect       bool                `json:"is_correct"`
	}

	ExamReviewResponse struct {
		Score      int                      `json:"score"`
		MaxScore   int                      `json:"max_score"`
		Percentage float64                  `json:"score_percentage"`
		Questions  []QuestionReviewResponse `json:"questions"`
	}
)
