package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/charlie0129/appraise/pkg/config"
	"github.com/charlie0129/appraise/pkg/events"
)

const shutdownTimeout = 5 * time.Second

// Server holds the daemon state shared by the HTTP handlers. The valuation
// pipeline itself is stateless; everything here is bookkeeping around it.
type Server struct {
	conf     config.Config
	hub      *events.EventHub
	stats    *Stats
	limiter  *RateLimiter
	exporter *Scheduler
	router   *gin.Engine
}

func NewServer(conf config.Config) *Server {
	s := &Server{
		conf:    conf,
		hub:     events.NewEventHub(),
		stats:   NewStats(),
		limiter: NewRateLimiter(conf.RateLimit(), conf.RateLimitWindow()),
	}
	s.exporter = NewScheduler(s.exportStats, func(data any) {
		logrus.Errorf("scheduled stats export failed: %v", data)
	})
	s.router = s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	// Clients reach us over a unix socket or directly over TCP. Never trust
	// X-Forwarded-For for rate limiting.
	_ = router.SetTrustedProxies(nil)
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(ginLogger(logrus.StandardLogger()))

	ops := router.Group("", s.rateLimit())
	ops.POST("/calibrate", s.calibrate)
	ops.POST("/yield", s.projectYield)
	ops.POST("/zakat", s.assessZakat)

	router.GET("/constants", s.getConstants)
	router.GET("/stats", s.getStats)
	router.DELETE("/stats", s.resetStats)
	router.GET("/stats-export", s.getStatsExport)
	router.POST("/stats-export/skip", s.skipStatsExport)
	router.GET("/config", s.getConfig)
	router.PUT("/rate-limit", s.setRateLimit)
	router.GET("/events", s.streamEvents)
	router.GET("/version", s.getVersion)

	return router
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ApplyConfig pushes the current config into the rate limiter and the stats
// export schedule. It is called at startup and after every reload.
func (s *Server) ApplyConfig() error {
	s.limiter.SetLimit(s.conf.RateLimit(), s.conf.RateLimitWindow())

	expr := s.conf.StatsExportSchedule()
	if expr == "" {
		s.exporter.Unschedule()
		return nil
	}
	if err := s.exporter.Schedule(expr); err != nil {
		return pkgerrors.Wrapf(err, "invalid stats export schedule %q", expr)
	}
	s.exporter.Start()

	logrus.WithFields(logrus.Fields{
		"schedule": expr,
		"path":     s.conf.StatsExportPath(),
	}).Info("stats export scheduled")

	return nil
}

func (s *Server) exportStats() error {
	path := s.conf.StatsExportPath()
	if err := s.stats.Export(path); err != nil {
		return err
	}
	logrus.WithField("path", path).Debug("stats exported")
	return nil
}

// Close stops background work and disconnects event subscribers.
func (s *Server) Close() {
	s.hub.Close()
	s.exporter.Stop()
	s.limiter.Stop()
}

func Run(configPath string, unixSocketPath string, listenAddr string, allowNonRoot bool) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	srv := NewServer(conf)
	defer srv.Close()

	if err := srv.ApplyConfig(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reload := func(reason string) {
		if err := conf.Load(); err != nil {
			logrus.Errorf("failed to reload config: %v", err)
			return
		}
		if err := srv.ApplyConfig(); err != nil {
			logrus.Errorf("failed to apply reloaded config: %v", err)
			return
		}
		logrus.WithFields(conf.LogrusFields()).Infof("config reloaded (%s)", reason)
	}

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		defer signal.Stop(sigc)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigc:
				reload("SIGHUP")
			}
		}
	}()

	// Also reload when the file is edited in place.
	go func() {
		err := watchConfig(ctx, configPath, func() { reload("file changed") })
		if err != nil {
			logrus.Warnf("config file will only be reloaded on SIGHUP: %v", err)
		}
	}()

	// --listen only affects this run. It is never written to the config file.
	if listenAddr == "" {
		listenAddr = conf.ListenAddr()
	}
	listeners, err := listen(unixSocketPath, listenAddr, conf.AllowNonRootAccess() || allowNonRoot)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Event streams never go idle on their own.
	httpSrv.RegisterOnShutdown(srv.hub.Close)

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		l := l
		g.Go(func() error {
			logrus.Infof("http server listening on %s", l.Addr().String())
			if err := httpSrv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return pkgerrors.Wrapf(err, "failed to serve on %s", l.Addr().String())
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logrus.Info("caught signal: shutting down.")
		}

		logrus.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("failed to shutdown http server: %v", err)
		}
		return nil
	})

	err = g.Wait()

	if conf.StatsExportPath() != "" {
		if err := srv.exportStats(); err != nil {
			logrus.Errorf("failed to export stats before exiting: %v", err)
		}
	}

	logrus.Info("exiting")
	return err
}

func listen(unixSocketPath string, tcpAddr string, allowNonRoot bool) ([]net.Listener, error) {
	var listeners []net.Listener

	// Remove a socket left behind by an unclean exit.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		return nil, pkgerrors.Wrapf(err, "failed to remove stale socket %s", unixSocketPath)
	}

	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}
	listeners = append(listeners, l)

	if allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		if err := os.Chmod(unixSocketPath, 0777); err != nil {
			_ = l.Close()
			return nil, pkgerrors.Wrapf(err, "failed to chmod %s", unixSocketPath)
		}
	}

	if tcpAddr != "" {
		tl, err := net.Listen("tcp", tcpAddr)
		if err != nil {
			_ = l.Close()
			return nil, pkgerrors.Wrapf(err, "failed to listen on %s", tcpAddr)
		}
		listeners = append(listeners, tl)
	}

	return listeners, nil
}
