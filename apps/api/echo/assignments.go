package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/assignment"
	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
)

type assignmentApi struct {
	svc *assignment.Service
}

func registerAssignmentAPI(g *echo.Group, svc *assignment.Service) {
	api := assignmentApi{svc: svc}

	ag := g.Group("/assignments")
	ag.GET("", api.query)
	ag.POST("", api.create, staffOnly)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, staffOnly)
	ag.DELETE("/:id", api.destroy, staffOnly)
	ag.POST("/:id/submissions", api.submit)
	ag.GET("/:id/submissions", api.submissions, staffOnly)
}

type DeleteAssignmentResponse struct {
	RemovedSubmissions int `json:"removed_submissions"`
}

// visibleTo hides the correct answers from students until the results are shown.
func visibleTo(actor user.Actor, a school.Assignment) school.Assignment {
	if actor.IsStaff() || (a.ShowResults && time.Now().After(a.Deadline)) {
		return a
	}
	a = a.Clone()
	for i := range a.Questions {
		a.Questions[i].CorrectAnswer = ""
	}
	return a
}

func (api *assignmentApi) query(ctx echo.Context) error {
	var filter assignment.Filter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Assignment{})
	}
	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	assignments, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	for i, a := range assignments {
		assignments[i] = visibleTo(actor, a)
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting assignment")
	}
	return ctx.JSON(http.StatusOK, visibleTo(actor, a))
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	a, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	removed, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.JSON(http.StatusOK, DeleteAssignmentResponse{RemovedSubmissions: removed})
}

// submit records the work of the calling student. Staff may submit on behalf of a student.
func (api *assignmentApi) submit(ctx echo.Context) error {
	var data assignment.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	data.AssignmentID = ctx.Param("id")
	if !actor.IsStaff() || data.StudentID == "" {
		data.StudentID = actor.ID
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *assignmentApi) submissions(ctx echo.Context) error {
	subs, err := api.svc.Submissions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}
