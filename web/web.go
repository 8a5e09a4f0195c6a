// Package web assembles the HTTP server of the user-account gateway:
// routing, session store, middleware and the background cleanup job.
package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/usergate/usergate/config"
	"github.com/usergate/usergate/database"
	"github.com/usergate/usergate/logger"
	"github.com/usergate/usergate/util/random"
	"github.com/usergate/usergate/web/cache"
	"github.com/usergate/usergate/web/controller"
	"github.com/usergate/usergate/web/job"
	"github.com/usergate/usergate/web/locale"
	"github.com/usergate/usergate/web/middleware"
	"github.com/usergate/usergate/web/service"
	websession "github.com/usergate/usergate/web/session"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// Server is a standalone instance of the gateway. Embedders that already run
// gin can skip it and mount controller.NewUserController on their own group.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	opts controller.Options
	user *controller.UserController

	userService *service.UserService
	mailService *service.MailService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server for the given gateway options.
func NewServer(opts controller.Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{opts: opts, ctx: ctx, cancel: cancel}
}

// sessionStore selects the Redis store when one is configured, otherwise the
// signed cookie store.
func (s *Server) sessionStore() (sessions.Store, error) {
	secret := config.GetSessionSecret()
	if secret == "" {
		logger.Warning("UG_SESSION_SECRET not set, sessions will not survive a restart")
		secret = random.Seq(32)
	}

	opts := sessions.Options{
		Path:     "/",
		MaxAge:   int(s.opts.SessionMaxAge / time.Second),
		HttpOnly: true,
	}

	if redisAddr := config.GetRedisAddr(); redisAddr != "" {
		if err := cache.InitRedis(redisAddr); err != nil {
			return nil, err
		}
		store := cache.NewRedisStore(cache.GetClient(), []byte(secret))
		store.Options(opts)
		return store, nil
	}

	store := cookie.NewStore([]byte(secret))
	store.Options(opts)
	return store, nil
}

func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	if webDomain := config.GetWebDomain(); webDomain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(webDomain))
	}

	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	store, err := s.sessionStore()
	if err != nil {
		return nil, err
	}
	engine.Use(sessions.Sessions(websession.CookieName, store))

	prefix := s.opts.APIPrefix
	if prefix == "" {
		prefix = controller.DefaultAPIPrefix
	}

	s.userService = service.NewUserService(database.GetDB())
	s.mailService = service.NewMailService(s.opts.Email)
	s.user = controller.NewUserController(engine.Group(prefix), s.opts, s.userService, s.mailService)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules the token cleanup when a TTL is configured.
func (s *Server) startTask() {
	if s.opts.CodeTTL > 0 {
		s.cron.AddJob("@hourly", job.NewCodeCleanupJob(s.userService, s.opts.CodeTTL))
	}
}

// Start initializes localization, routing and the listener, then serves
// until Stop is called.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	if err = locale.InitLocalizer(); err != nil {
		return err
	}

	s.cron = cron.New()
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.startTask()

	s.httpServer = &http.Server{Handler: engine}
	go func() {
		if serveErr := s.httpServer.Serve(s.listener); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("serve failed:", serveErr)
		}
	}()

	logger.Infof("%s %s listening on %s", config.GetName(), config.GetVersion(), addr)
	return nil
}

// Stop shuts the server down and releases its resources.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}

	var firstErr error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if config.GetRedisAddr() != "" {
		if err := cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
