package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/catalog"
	"github.com/trezcool/academia/core/school"
)

type catalogApi struct {
	svc *catalog.Service
}

func registerCatalogAPI(g *echo.Group, svc *catalog.Service) {
	api := catalogApi{svc: svc}

	g.GET("/semesters", api.querySemesters)
	g.POST("/semesters", api.createSemester, adminOnly)
	g.POST("/semesters/:id/copy-courses", api.copyCourses, adminOnly)

	g.GET("/settings", api.settings)
	g.PUT("/settings/active-semester", api.setActiveSemester, adminOnly)
	g.PUT("/settings/default-semester", api.setDefaultSemester, adminOnly)

	g.GET("/courses", api.queryCourses)
	g.POST("/courses", api.createCourse, staffOnly)
	g.GET("/courses/:id", api.retrieveCourse)
}

type (
	CopyCoursesRequest struct {
		SourceSemesterID string `json:"source_semester_id"`
	}

	SemesterRequest struct {
		SemesterID string `json:"semester_id"`
	}
)

func (api *catalogApi) querySemesters(ctx echo.Context) error {
	semesters, err := api.svc.QuerySemesters(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying semesters")
	}
	return ctx.JSON(http.StatusOK, semesters)
}

func (api *catalogApi) createSemester(ctx echo.Context) error {
	var data catalog.NewSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSemester")
	}
	sem, err := api.svc.CreateSemester(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating semester")
	}
	return ctx.JSON(http.StatusCreated, sem)
}

// copyCourses copies the courses of the source semester into the semester in the path.
func (api *catalogApi) copyCourses(ctx echo.Context) error {
	var data CopyCoursesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CopyCoursesRequest")
	}
	res, err := api.svc.CopyCourses(ctx.Request().Context(), data.SourceSemesterID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "copying courses")
	}
	if res.Courses == nil {
		res.Courses = []school.Course{}
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *catalogApi) settings(ctx echo.Context) error {
	settings, err := api.svc.GetSettings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *catalogApi) setActiveSemester(ctx echo.Context) error {
	var data SemesterRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SemesterRequest")
	}
	settings, err := api.svc.SetActiveSemester(ctx.Request().Context(), data.SemesterID)
	if err != nil {
		return errors.Wrap(err, "setting active semester")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *catalogApi) setDefaultSemester(ctx echo.Context) error {
	var data SemesterRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SemesterRequest")
	}
	settings, err := api.svc.SetDefaultSemester(ctx.Request().Context(), data.SemesterID)
	if err != nil {
		return errors.Wrap(err, "setting default semester")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *catalogApi) queryCourses(ctx echo.Context) error {
	var filter catalog.CourseFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Course{})
	}
	courses, err := api.svc.QueryCourses(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *catalogApi) createCourse(ctx echo.Context) error {
	var data catalog.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	course, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *catalogApi) retrieveCourse(ctx echo.Context) error {
	course, err := api.svc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, course)
}
