package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/assignment"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/enroll"
	"github.com/darasahq/darasa/core/progress"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	sendgridmail "github.com/darasahq/darasa/services/email/sendgrid"
	logsvc "github.com/darasahq/darasa/services/logger"
	dummystorage "github.com/darasahq/darasa/services/storage/dummy"
	osstorage "github.com/darasahq/darasa/services/storage/oss"
	"github.com/darasahq/darasa/storage/database"
	dummydb "github.com/darasahq/darasa/storage/database/dummy"
	sqlxrepos "github.com/darasahq/darasa/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

type repositories struct {
	user       user.Repository
	course     course.Repository
	enroll     enroll.Repository
	progress   progress.Repository
	assignment assignment.Repository
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// resolve the persistence mode once; everything downstream is wired off
	// this decision and never re-evaluates it
	mode := conf.Mode()
	logger.Info(fmt.Sprintf("Resolved persistence mode: %s", mode))

	var (
		repos   repositories
		fileSvc core.FileStorage
		closeDB func() error
	)
	if mode == core.ModeLive {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		closeDB = db.Close

		repos = repositories{
			user:       sqlxrepos.NewUserRepository(db),
			course:     sqlxrepos.NewCourseRepository(db),
			enroll:     sqlxrepos.NewEnrollRepository(db),
			progress:   sqlxrepos.NewProgressRepository(db),
			assignment: sqlxrepos.NewAssignmentRepository(db),
		}

		fileSvc, err = osstorage.NewService(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up file storage: %v", err), err)
		}
	} else {
		db, err := dummydb.Open()
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up demo database: %v", err), err)
		}
		db.Seed()
		closeDB = func() error { return nil }

		repos = repositories{
			user:       dummydb.NewUserRepository(db),
			course:     dummydb.NewCourseRepository(db),
			enroll:     dummydb.NewEnrollRepository(db),
			progress:   dummydb.NewProgressRepository(db),
			assignment: dummydb.NewAssignmentRepository(db),
		}
		fileSvc = dummystorage.NewService()
	}
	defer func() {
		if err := closeDB(); err != nil {
			logger.Error("Failed to close DB", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || mode == core.ModeDemo {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = sendgridmail.NewService(conf, logger)
	}

	usrSvc := user.NewService(conf, repos.user, mailSvc)
	crsSvc := course.NewService(repos.course)
	enrSvc := enroll.NewService(repos.enroll, repos.course)
	prgSvc := progress.NewService(repos.progress, repos.course)
	asgSvc := assignment.NewService(repos.assignment, repos.user, mailSvc, fileSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			UserSvc:       usrSvc,
			CourseSvc:     crsSvc,
			EnrollSvc:     enrSvc,
			ProgressSvc:   prgSvc,
			AssignmentSvc: asgSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
