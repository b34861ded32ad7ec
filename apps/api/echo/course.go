package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/progress"
)

type courseApi struct {
	svc         *course.Service
	enrollSvc   *enroll.Service
	progressSvc *progress.Service
	asgSvc      *assignment.Service
	validate    *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *course.Service,
	enrollSvc *enroll.Service,
	progressSvc *progress.Service,
	asgSvc *assignment.Service,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:         svc,
		enrollSvc:   enrollSvc,
		progressSvc: progressSvc,
		asgSvc:      asgSvc,
		validate:    validate,
	}

	cg := g.Group("/courses", jwt)

	cg.GET("", api.query)
	cg.POST("", api.create, teacherMiddleware())
	cg.GET("/enrolled", api.enrollments)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, teacherMiddleware())
	dg.POST("/enroll", api.enroll)
	dg.POST("/lessons", api.addLesson, teacherMiddleware())
	dg.GET("/lessons", api.lessons, enrolledMiddleware(enrollSvc))
	dg.POST("/lessons/:lessonID/complete", api.completeLesson, enrolledMiddleware(enrollSvc))
	dg.GET("/progress", api.progress, enrolledMiddleware(enrollSvc))
	dg.POST("/assignments", api.createAssignment, teacherMiddleware())
	dg.GET("/assignments", api.assignments, enrolledMiddleware(enrollSvc))
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	// students only see active courses
	if !(claims.IsTeacher || claims.IsAdmin) {
		active := true
		filter.IsActive = &active
	}

	courses, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(crs, api.validate); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

// enroll registers the authenticated user on the course. Enrolling twice is
// not an error; the existing enrollment is returned.
func (api *courseApi) enroll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	enr, err := api.enrollSvc.Enroll(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) enrollments(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	enrs, err := api.enrollSvc.Enrollments(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enroll.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *courseApi) addLesson(ctx echo.Context) error {
	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lsn, err := api.svc.AddLesson(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *courseApi) lessons(ctx echo.Context) error {
	lessons, err := api.svc.Lessons(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []course.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *courseApi) completeLesson(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	err = api.progressSvc.MarkComplete(ctx.Request().Context(), claims.Subject, ctx.Param("id"), ctx.Param("lessonID"))
	if err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) progress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rctx := ctx.Request().Context()
	courseID := ctx.Param("id")

	pct, err := api.progressSvc.CompletionPercentage(rctx, claims.Subject, courseID)
	if err != nil {
		return errors.Wrap(err, "computing completion percentage")
	}
	lessons, err := api.progressSvc.Progress(rctx, claims.Subject, courseID)
	if err != nil {
		return errors.Wrap(err, "querying lesson progress")
	}
	if lessons == nil {
		lessons = []progress.LessonProgress{}
	}
	return ctx.JSON(http.StatusOK, ProgressResponse{Percent: pct, Lessons: lessons})
}

func (api *courseApi) createAssignment(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// the course must exist
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}

	asg, err := api.asgSvc.Create(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *courseApi) assignments(ctx echo.Context) error {
	asgs, err := api.asgSvc.QueryByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

type ProgressResponse struct {
	Percent float64                   `json:"percent"`
	Lessons []progress.LessonProgress `json:"lessons"`
}
