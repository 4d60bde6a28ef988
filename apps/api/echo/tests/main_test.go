package tests

import (
	"os"
	"testing"

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
	inmemdb "github.com/lejardineden/backend/storage/inmem"
	testutil "github.com/lejardineden/backend/tests"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// repos of the server under test; reset by setup()
	usrRepo  user.Repository
	progRepo program.Repository
	enrRepo  enrollment.Repository
	cntRepo  contact.Repository
)

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	_en := en.New()
	translator, _ = ut.New(_en, _en).GetTranslator("en")
	validate = validator.New()
	core.InitValidators(validate, translator)

	os.Exit(m.Run())
}

// setup spins up a Server backed by a fresh in-memory store.
func setup(t *testing.T) echoapi.Server {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed, %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	progRepo = inmemdb.NewProgramRepository(db)
	enrRepo = inmemdb.NewEnrollmentRepository(db)
	cntRepo = inmemdb.NewContactRepository(db)

	logger := testutil.NewLogger(t)
	mailSvc := emailsvc.NewConsoleServiceMock()

	return echoapi.NewServer(
		echoapi.ServerDeps{
			DisableReqLogs: true,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			UserSvc:        user.NewServiceMock(usrRepo, mailSvc, logger),
			ProgramSvc:     program.NewService(progRepo),
			EnrollmentSvc:  enrollment.NewServiceMock(enrRepo, progRepo, mailSvc, logger),
			ContactSvc:     contact.NewServiceMock(cntRepo, mailSvc),
		},
	)
}
