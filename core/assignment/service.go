package assignment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrScoreOutOfRange    = errors.New("score is out of range for this assignment")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		QueryAssignments(ctx context.Context, courseID string) ([]Assignment, error)

		// UpsertSubmission applies the latest-wins policy: it creates the
		// (assignment, user) row or overwrites its content, timeliness and
		// clears any previous grade. The row ID is stable across overwrites.
		UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		QuerySubmissions(ctx context.Context, assignmentID string) ([]Submission, error)
		// UpdateSubmissionGrade sets score/feedback/graded_at only; identity
		// and content fields stay untouched.
		UpdateSubmissionGrade(ctx context.Context, sub Submission) (Submission, error)
	}

	Service struct {
		repo    Repository
		users   user.Repository
		mailSvc core.EmailService
		files   core.FileStorage
	}
)

func NewService(repo Repository, users user.Repository, mailSvc core.EmailService, files core.FileStorage) *Service {
	return &Service{repo: repo, users: users, mailSvc: mailSvc, files: files}
}

func (svc *Service) Create(ctx context.Context, courseID string, na NewAssignment) (Assignment, error) {
	asg := Assignment{
		CourseID:  courseID,
		Title:     na.Title,
		DueDate:   na.DueDate.UTC(),
		MaxScore:  na.MaxScore,
		CreatedAt: NowFunc().UTC(),
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *Service) QueryByCourse(ctx context.Context, courseID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, courseID)
}

// UploadFile stores one submission file and returns its storage path. Paths
// are unique per file so resubmitted files never collide.
func (svc *Service) UploadFile(ctx context.Context, assignmentID, userID, filename string, data []byte) (string, error) {
	p := path.Join("submissions", assignmentID, userID, uuid.New().String()+"_"+path.Base(filename))
	if err := svc.files.Upload(ctx, p, data); err != nil {
		return "", err
	}
	return p, nil
}

// DownloadFile fetches a stored submission file by its opaque path.
func (svc *Service) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	return svc.files.Download(ctx, filePath)
}

// Submit records the learner's current attempt. Timeliness is classified
// against the due date now and fixed forever; a resubmission replaces the
// previous attempt and clears any prior grade.
func (svc *Service) Submit(ctx context.Context, assignmentID, userID string, ns NewSubmission) (Submission, error) {
	asg, err := svc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}

	now := NowFunc().UTC()
	isLate, daysLate := classify(now, asg.DueDate)
	sub := Submission{
		AssignmentID: assignmentID,
		UserID:       userID,
		SubmittedAt:  now,
		IsLate:       isLate,
		DaysLate:     daysLate,
		FilePaths:    ns.FilePaths,
		Notes:        ns.Notes,
	}

	// submit has side effects the learner relies on; retry transient faults
	err = core.Retry(2, func() error {
		var uErr error
		sub, uErr = svc.repo.UpsertSubmission(ctx, sub)
		return uErr
	})
	if err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (svc *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

func (svc *Service) Submissions(ctx context.Context, assignmentID string) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, assignmentID)
}

// Grade scores a submission. The score must fall within [0, max_score] or the
// submission is left untouched. Re-grading overwrites score and feedback but
// never the timeliness classification.
func (svc *Service) Grade(ctx context.Context, submissionID string, gs GradeSubmission) (Submission, error) {
	sub, err := svc.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	asg, err := svc.repo.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	if gs.Score < 0 || gs.Score > asg.MaxScore {
		return Submission{}, core.NewValidationError(ErrScoreOutOfRange, core.FieldError{
			Field: "score",
			Error: fmt.Sprintf("score must be between 0 and %d", asg.MaxScore),
		})
	}

	sub.Score = null.IntFrom(gs.Score)
	sub.Feedback = null.StringFrom(gs.Feedback)
	sub.GradedAt = null.TimeFrom(NowFunc().UTC())

	// grade drives an instructor decision; retry transient faults rather
	// than reporting an unconfirmed action as done
	err = core.Retry(2, func() error {
		var uErr error
		sub, uErr = svc.repo.UpdateSubmissionGrade(ctx, sub)
		return uErr
	})
	if err != nil {
		return Submission{}, err
	}

	svc.notifyGraded(ctx, sub, asg)
	return sub, nil
}

// notifyGraded emails the learner their grade; failures are non-fatal.
func (svc *Service) notifyGraded(ctx context.Context, sub Submission, asg Assignment) {
	if svc.users == nil || svc.mailSvc == nil {
		return
	}
	usr, err := svc.users.GetUser(ctx, user.GetFilter{ID: sub.UserID})
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Submission graded: " + asg.Title,
		TemplateName: "submission_graded",
		TemplateData: map[string]interface{}{
			"Name":            usr.Name,
			"AssignmentTitle": asg.Title,
			"Score":           sub.Score.Int,
			"MaxScore":        asg.MaxScore,
			"Percent":         Percent(sub, asg),
			"Feedback":        sub.Feedback.String,
		},
	})
}
