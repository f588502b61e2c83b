package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sadhanalabs/sadhana/core"
	"github.com/sadhanalabs/sadhana/core/practice"
	"github.com/sadhanalabs/sadhana/core/report"
	"github.com/sadhanalabs/sadhana/core/school"
	"github.com/sadhanalabs/sadhana/core/user"
)

var (
	validate   = validator.New()
	translator ut.Translator
)

func init() {
	enLocale := en.New()
	translator, _ = ut.New(enLocale, enLocale).GetTranslator("en")
	core.InitValidators(validate, translator)
}

type Server interface {
	http.Handler
	Start()
	Shutdown(ctx context.Context) error
	Close() error
	Errors() <-chan error
	ShutdownSignal() <-chan os.Signal
}

type ServerDeps struct {
	Conf        *core.Config
	Logger      core.Logger
	UserSvc     *user.Service
	SchoolSvc   *school.Service
	PracticeSvc *practice.Service
	ReportSvc   *report.Service
}

type server struct {
	app      *echo.Echo
	conf     *core.Config
	logger   core.Logger
	errs     chan error
	shutdown chan os.Signal

	userSvc     *user.Service
	schoolSvc   *school.Service
	practiceSvc *practice.Service
	reportSvc   *report.Service
}

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	srv := &server{
		app:         echo.New(),
		conf:        deps.Conf,
		logger:      deps.Logger,
		errs:        make(chan error, 1),
		shutdown:    make(chan os.Signal, 1),
		userSvc:     deps.UserSvc,
		schoolSvc:   deps.SchoolSvc,
		practiceSvc: deps.PracticeSvc,
		reportSvc:   deps.ReportSvc,
	}
	srv.setup()
	return srv
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.app).handler

	s.app.Pre(middleware.RemoveTrailingSlash())

	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())
	s.app.Use(metricsMiddleware())

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.app.Static("/uploads", s.conf.Uploads.Dir)

	api := s.app.Group("/api")
	s.registerAuthAPI(api)
	s.registerClassAPI(api)
	s.registerAdminAPI(api)
	s.registerUploadAPI(api)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Welcome to the Sadhana API!"})
}

func (s *server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  "OK",
		"message": "Course Management API is running",
	})
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.logger.Info("server listening on " + s.conf.Server.Address())
		s.errs <- s.app.Start(s.conf.Server.Address())
	}()
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}
