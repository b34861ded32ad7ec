package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/progress"
	"github.com/darasahq/darasa/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       *user.Service
		CourseSvc     *course.Service
		EnrollSvc     *enroll.Service
		ProgressSvc   *progress.Service
		AssignmentSvc *assignment.Service

		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errChan  chan error
		shutChan chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errChan:  make(chan error, 1),
		shutChan: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutChan, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	appJWTConfig.SigningKey = []byte(conf.SecretKey)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/health", s.health)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, conf, s.deps.UserSvc, s.deps.Validate)
	registerCourseAPI(v1, jwt, s.deps.CourseSvc, s.deps.EnrollSvc, s.deps.ProgressSvc, s.deps.AssignmentSvc, s.deps.Validate)
	registerSubmissionAPI(v1, jwt, s.deps.EnrollSvc, s.deps.AssignmentSvc, s.deps.Validate)
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errChan <- err
	}
}

func (s *Server) Errors() <-chan error            { return s.errChan }
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutChan }

// signalShutdown is called by the error handler when an unrecoverable error
// requires the server to stop taking traffic.
func (s *Server) signalShutdown() {
	s.shutChan <- syscall.SIGTERM
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"mode":   s.deps.Conf.Mode(),
		"build":  s.deps.Conf.Build,
	})
}
