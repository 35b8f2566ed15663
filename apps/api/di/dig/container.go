package dig_container

import (
	"context"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/studytrack/apps/api/echo"
	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/lab"
	"github.com/trezcool/studytrack/core/semester"
	"github.com/trezcool/studytrack/core/session"
	"github.com/trezcool/studytrack/core/status"
	"github.com/trezcool/studytrack/core/subject"
	logsvc "github.com/trezcool/studytrack/services/logger"
	"github.com/trezcool/studytrack/storage/docstore"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	zl := logsvc.NewZeroLog(os.Stdout, conf.Debug).With().Str("component", "api").Logger()
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStoreLogger(conf *core.Config) core.Logger {
	zl := logsvc.NewZeroLog(os.Stdout, conf.Debug).With().Str("component", "store").Caller().Logger()
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newStatusCodec installs the status codec, extended with the configured variants file, as the default.
func newStatusCodec(conf *core.Config, logger core.Logger) (*status.Codec, error) {
	codec, err := status.Build(conf.Status.VariantsFile)
	if err != nil {
		return nil, err
	}
	status.SetDefault(codec)
	if conf.Status.VariantsFile != "" {
		logger.Info("status variants loaded", map[string]interface{}{"file": conf.Status.VariantsFile})
	}
	return codec, nil
}

func newStore(conf *core.Config, loggerParam StoreLoggerParam) (*docstore.Store, core.DocumentStore, error) {
	store, err := docstore.Open(context.Background(), conf, loggerParam.Logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening document store")
	}
	loggerParam.Logger.Info("document store opened", map[string]interface{}{"engine": conf.Store.Engine})
	return store, store, nil
}

func newSessionRegistry(store core.DocumentStore, logger core.Logger, conf *core.Config) *session.Registry {
	return session.NewRegistry(store, logger, conf.Session)
}

type DepsParam struct {
	dig.In
	Conf        *core.Config
	Logger      core.Logger
	Sessions    *session.Registry
	SemesterSvc *semester.Service
	SubjectSvc  *subject.Service
	LabSvc      *lab.Service
}

func newDeps(p DepsParam) *echoapi.Deps {
	return &echoapi.Deps{
		Conf:        p.Conf,
		Logger:      p.Logger,
		Sessions:    p.Sessions,
		SemesterSvc: p.SemesterSvc,
		SubjectSvc:  p.SubjectSvc,
		LabSvc:      p.LabSvc,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(newStatusCodec))
	must(c.Provide(newStore))
	must(c.Provide(semester.NewService))
	must(c.Provide(subject.NewService))
	must(c.Provide(lab.NewService))
	must(c.Provide(newSessionRegistry))
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
