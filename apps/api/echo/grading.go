package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/grading"
	"github.com/trezcool/academia/core/school"
)

type gradingApi struct {
	svc     *grading.Service
	metrics *metrics
}

func registerGradingAPI(g *echo.Group, svc *grading.Service, m *metrics) {
	api := gradingApi{svc: svc, metrics: m}

	g.POST("/assignments/:id/autograde", api.autoGrade, staffOnly)

	sg := g.Group("/submissions", staffOnly)
	sg.POST("/grade", api.bulkApplyGrade)
	sg.POST("/full-marks", api.fullMarks)
	sg.PUT("/:id/grade", api.setGrade)
	sg.GET("/:id/score", api.score)
}

type (
	GradeRequest struct {
		Grade string `json:"grade"`
	}

	BulkGradeRequest struct {
		IDs   []string `json:"ids"`
		Grade string   `json:"grade"`
	}

	// GradeResponse lists the submissions whose grade was written.
	// Unknown submissions are not an error: they are simply not listed.
	GradeResponse struct {
		Updated     int                 `json:"updated"`
		Submissions []school.Submission `json:"submissions"`
	}

	ScoreResponse struct {
		Score string `json:"score"`
	}
)

func (api *gradingApi) respond(ctx echo.Context, operation string, changed []school.Submission) error {
	api.metrics.grades.WithLabelValues(operation).Add(float64(len(changed)))
	if changed == nil {
		changed = []school.Submission{}
	}
	return ctx.JSON(http.StatusOK, GradeResponse{Updated: len(changed), Submissions: changed})
}

func (api *gradingApi) autoGrade(ctx echo.Context) error {
	changed, err := api.svc.AutoGradeMCQ(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "auto-grading")
	}
	return api.respond(ctx, "auto", changed)
}

func (api *gradingApi) setGrade(ctx echo.Context) error {
	var data GradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	changed, err := api.svc.SetGrade(ctx.Request().Context(), ctx.Param("id"), data.Grade)
	if err != nil {
		return errors.Wrap(err, "setting grade")
	}
	return api.respond(ctx, "set", changed)
}

func (api *gradingApi) bulkApplyGrade(ctx echo.Context) error {
	var data BulkGradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkGradeRequest")
	}
	changed, err := api.svc.BulkApplyGrade(ctx.Request().Context(), data.IDs, data.Grade)
	if err != nil {
		return errors.Wrap(err, "applying grade")
	}
	return api.respond(ctx, "bulk", changed)
}

func (api *gradingApi) fullMarks(ctx echo.Context) error {
	var data BulkGradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkGradeRequest")
	}
	changed, err := api.svc.FullMarks(ctx.Request().Context(), data.IDs)
	if err != nil {
		return errors.Wrap(err, "applying full marks")
	}
	return api.respond(ctx, "full_marks", changed)
}

func (api *gradingApi) score(ctx echo.Context) error {
	score, err := api.svc.Score(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "scoring")
	}
	return ctx.JSON(http.StatusOK, ScoreResponse{Score: score})
}
