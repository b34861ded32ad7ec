package echoapi

import (
	"io/ioutil"
	"net/http"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/enroll"
)

// maxSubmissionFileSize caps each uploaded file at 10MB.
const maxSubmissionFileSize = 10 << 20

type submissionApi struct {
	enrollSvc *enroll.Service
	svc       *assignment.Service
	validate  *validator.Validate
}

func registerSubmissionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	enrollSvc *enroll.Service,
	svc *assignment.Service,
	validate *validator.Validate,
) {
	api := submissionApi{enrollSvc: enrollSvc, svc: svc, validate: validate}

	ag := g.Group("/assignments/:id", jwt)
	ag.GET("", api.retrieveAssignment)
	ag.POST("/submissions", api.submit)
	ag.GET("/submissions", api.querySubmissions, teacherMiddleware())

	sg := g.Group("/submissions/:id", jwt)
	sg.GET("", api.retrieve)
	sg.GET("/files", api.downloadFile)
	sg.POST("/grade", api.grade, teacherMiddleware())
}

// Handlers

func (api *submissionApi) retrieveAssignment(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	// same gate as the course content endpoints
	if err = api.checkEnrolled(ctx, claims, asg.CourseID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

// submit accepts a multipart form: any number of files plus an optional
// `notes` field. It replaces the learner's previous attempt for this
// assignment, if any.
func (api *submissionApi) submit(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	assignmentID := ctx.Param("id")

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	asg, err := api.svc.GetByID(rctx, assignmentID)
	if err != nil {
		return err
	}
	if err = api.checkEnrolled(ctx, claims, asg.CourseID); err != nil {
		return err
	}

	data := assignment.NewSubmission{Notes: ctx.FormValue("notes")}

	form, err := ctx.MultipartForm()
	if err != nil && err != http.ErrNotMultipart {
		return errors.Wrap(err, "reading multipart form")
	}
	if form != nil {
		for _, hdr := range form.File["files"] {
			if hdr.Size > maxSubmissionFileSize {
				return core.NewValidationError(nil, core.FieldError{
					Field: "files",
					Error: "file " + hdr.Filename + " exceeds the 10MB limit",
				})
			}
			f, err := hdr.Open()
			if err != nil {
				return errors.Wrap(err, "opening uploaded file")
			}
			content, err := ioutil.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return errors.Wrap(err, "reading uploaded file")
			}

			p, err := api.svc.UploadFile(rctx, assignmentID, claims.Subject, filepath.Base(hdr.Filename), content)
			if err != nil {
				return errors.Wrap(err, "uploading file")
			}
			data.FilePaths = append(data.FilePaths, p)
		}
	}

	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Submit(rctx, assignmentID, claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) querySubmissions(ctx echo.Context) error {
	subs, err := api.svc.Submissions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []assignment.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	sub, err := api.getOwnedSubmission(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) downloadFile(ctx echo.Context) error {
	sub, err := api.getOwnedSubmission(ctx)
	if err != nil {
		return err
	}

	p := ctx.QueryParam("path")
	var found bool
	for _, fp := range sub.FilePaths {
		if fp == p {
			found = true
			break
		}
	}
	if !found {
		return errHttpNotFound
	}

	content, err := api.svc.DownloadFile(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "downloading file")
	}
	return ctx.Blob(http.StatusOK, echo.MIMEOctetStream, content)
}

func (api *submissionApi) grade(ctx echo.Context) error {
	var data assignment.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

// getOwnedSubmission fetches the submission and ensures the caller owns it or
// holds the teacher/admin role.
func (api *submissionApi) getOwnedSubmission(ctx echo.Context) (assignment.Submission, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "getting context claims")
	}

	sub, err := api.svc.GetSubmission(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return assignment.Submission{}, err
	}
	if sub.UserID != claims.Subject && !(claims.IsTeacher || claims.IsAdmin) {
		return assignment.Submission{}, errHttpNotFound
	}
	return sub, nil
}

func (api *submissionApi) checkEnrolled(ctx echo.Context, claims Claims, courseID string) error {
	if claims.IsTeacher || claims.IsAdmin {
		return nil
	}
	enrolled, err := api.enrollSvc.IsEnrolled(ctx.Request().Context(), claims.Subject, courseID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return errHttpForbidden
	}
	return nil
}
