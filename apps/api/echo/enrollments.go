package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/school"
)

type enrollmentApi struct {
	svc     *enrollment.Service
	metrics *metrics
}

func registerEnrollmentAPI(g *echo.Group, svc *enrollment.Service, m *metrics) {
	api := enrollmentApi{svc: svc, metrics: m}

	eg := g.Group("/enrollments")
	eg.GET("", api.query)
	eg.POST("", api.enroll)
	eg.DELETE("/:id", api.unenroll)
	eg.PUT("/:id/outcome", api.setOutcome, staffOnly)
}

type (
	// EnrollRequest enrolls StudentID; students may only enroll themselves and can omit it.
	EnrollRequest struct {
		StudentID  string `json:"student_id"`
		CourseID   string `json:"course_id"`
		SemesterID string `json:"semester_id"`
	}

	OutcomeRequest struct {
		Outcome school.EnrollmentOutcome `json:"outcome"`
	}
)

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	data.StudentID = core.CleanString(data.StudentID)
	data.CourseID = core.CleanString(data.CourseID)
	data.SemesterID = core.CleanString(data.SemesterID)

	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	switch {
	case actor.IsStaff():
		if data.StudentID == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "this field is required"})
		}
	case data.StudentID == "":
		data.StudentID = actor.ID
	case data.StudentID != actor.ID:
		return errHttpForbidden
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), data.StudentID, data.CourseID, data.SemesterID)
	switch reason := enrollment.Reason(err); {
	case err == nil:
		api.metrics.enrollments.WithLabelValues("enrolled").Inc()
	case reason != "":
		api.metrics.enrollments.WithLabelValues(reason).Inc()
		return err
	default:
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

// query lists enrollments; students only ever see their own.
func (api *enrollmentApi) query(ctx echo.Context) error {
	var filter enrollment.Filter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Enrollment{})
	}
	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if !actor.IsStaff() {
		filter.StudentID = actor.ID
	}

	enrollments, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollmentApi) unenroll(ctx echo.Context) error {
	id := ctx.Param("id")
	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if !actor.IsStaff() {
		own, err := api.svc.Query(ctx.Request().Context(), enrollment.Filter{StudentID: actor.ID})
		if err != nil {
			return errors.Wrap(err, "querying enrollments")
		}
		var found bool
		for _, e := range own {
			if e.ID == id {
				found = true
				break
			}
		}
		if !found {
			return errHttpNotFound
		}
	}

	if err = api.svc.Unenroll(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "unenrolling")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *enrollmentApi) setOutcome(ctx echo.Context) error {
	var data OutcomeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to OutcomeRequest")
	}
	enr, err := api.svc.SetOutcome(ctx.Request().Context(), ctx.Param("id"), data.Outcome)
	if err != nil {
		return errors.Wrap(err, "setting outcome")
	}
	return ctx.JSON(http.StatusOK, enr)
}
