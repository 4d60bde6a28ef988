package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/lejardineden/backend/apps/api/echo"
	"github.com/lejardineden/backend/core"
	"github.com/lejardineden/backend/core/contact"
	"github.com/lejardineden/backend/core/enrollment"
	"github.com/lejardineden/backend/core/program"
	"github.com/lejardineden/backend/core/user"
	emailsvc "github.com/lejardineden/backend/services/email"
	logsvc "github.com/lejardineden/backend/services/logger"
	inmemdb "github.com/lejardineden/backend/storage/inmem"
	"github.com/lejardineden/backend/storage/mongodb"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up store
	repos, closeStore, err := setUpStore(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up store: %v", err), err)
	}
	defer func() {
		if err = closeStore(); err != nil {
			logger.Error(fmt.Sprintf("closing store: %v", err), err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrSvc := user.NewService(repos.user, mailSvc, logger)
	progSvc := program.NewService(repos.program)
	enrSvc := enrollment.NewService(repos.enrollment, repos.program, mailSvc, logger)
	cntSvc := contact.NewService(repos.contact, mailSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			UserSvc:       usrSvc,
			ProgramSvc:    progSvc,
			EnrollmentSvc: enrSvc,
			ContactSvc:    cntSvc,
		},
	)
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

type repositories struct {
	user       user.Repository
	program    program.Repository
	enrollment enrollment.Repository
	contact    contact.Repository
}

func setUpStore(conf *core.Config, logger core.Logger) (repositories, func() error, error) {
	switch conf.Database.Engine {
	case "mongodb":
		db, err := mongodb.Open(conf.Database.URI, conf.Database.Name, conf.Database.Timeout)
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			user:       mongodb.NewUserRepository(db),
			program:    mongodb.NewProgramRepository(db),
			enrollment: mongodb.NewEnrollmentRepository(db),
			contact:    mongodb.NewContactRepository(db),
		}, db.Close, nil

	case "memory":
		logger.Warn("using the in-memory store: all data is lost on exit")
		db, err := inmemdb.Open()
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			user:       inmemdb.NewUserRepository(db),
			program:    inmemdb.NewProgramRepository(db),
			enrollment: inmemdb.NewEnrollmentRepository(db),
			contact:    inmemdb.NewContactRepository(db),
		}, func() error { return nil }, nil

	default:
		return repositories{}, nil, fmt.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
