package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/assignment"
	"github.com/trezcool/academia/core/catalog"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/grading"
	"github.com/trezcool/academia/core/school"
	"github.com/trezcool/academia/core/user"
	logsvc "github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage/database"
	badgerdb "github.com/trezcool/academia/storage/database/badger"
	dummydb "github.com/trezcool/academia/storage/database/dummy"
	sqlxdb "github.com/trezcool/academia/storage/database/sqlx"
)

// Database engines
const (
	EngineMemory   = "memory"
	EngineBadger   = "badger"
	EnginePostgres = "postgres"
)

type (
	NewConfigFunc func() *core.Config

	StoreLoggerParam struct {
		dig.In
		Logger core.Logger `name:"storeLogger"`
	}

	ServerParams struct {
		dig.In
		Conf          *core.Config
		Logger        core.Logger
		Translator    ut.Translator
		UserSvc       *user.Service
		CatalogSvc    *catalog.Service
		EnrollmentSvc *enrollment.Service
		AssignmentSvc *assignment.Service
		GradingSvc    *grading.Service
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newStoreLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

// NewStore opens the store of the configured database engine.
func NewStore(conf *core.Config, loggerParam StoreLoggerParam) (school.Store, error) {
	switch conf.Database.Engine {
	case EngineMemory, "":
		return dummydb.Open()
	case EngineBadger:
		return badgerdb.OpenFromConfig(conf, loggerParam.Logger)
	case EnginePostgres:
		if conf.Database.AdminUser != "" {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, errors.Wrap(err, "creating database")
			}
		}
		return sqlxdb.Open(conf)
	}
	return nil, fmt.Errorf("unknown database engine %q", conf.Database.Engine)
}

// NewValidator returns a validator with the validators of every package registered.
func NewValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	catalog.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)
	return validate
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		CatalogSvc:    p.CatalogSvc,
		EnrollmentSvc: p.EnrollmentSvc,
		AssignmentSvc: p.AssignmentSvc,
		GradingSvc:    p.GradingSvc,
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig NewConfigFunc) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(NewStore))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(NewValidator))
	must(c.Provide(school.NewUserRepository))
	must(c.Provide(user.NewService))
	must(c.Provide(catalog.NewService))
	must(c.Provide(enrollment.NewServiceFromConfig))
	must(c.Provide(assignment.NewService))
	must(c.Provide(grading.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
