package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/httputil"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	reporter "github.com/ethereum-optimism/infra/op-reporter"
	"github.com/ethereum-optimism/infra/op-reporter/metrics"
)

var _ cliapp.Lifecycle = (*Service)(nil)

// Service is the long-running report server started by the serve command
type Service struct {
	log     log.Logger
	cfg     *reporter.Config
	metrics *metrics.Metrics
	handler *Handler

	server        *httputil.HTTPServer
	metricsServer *httputil.HTTPServer
	metricsCfg    opmetrics.CLIConfig

	stopped atomic.Bool
}

// New builds the service. Default report filenames carry the run ID so
// concurrent requests do not overwrite each other.
func New(log log.Logger, cfg *reporter.Config, metricsCfg opmetrics.CLIConfig, opts ...reporter.EngineOption) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	m := metrics.NewMetrics(opmetrics.NewRegistry())

	engine, err := reporter.NewEngine(cfg, m, append([]reporter.EngineOption{reporter.WithRunSuffix()}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create report engine: %w", err)
	}

	return &Service{
		log:        log,
		cfg:        cfg,
		metrics:    m,
		handler:    NewHandler(log, engine, m),
		metricsCfg: metricsCfg,
	}, nil
}

func (s *Service) Start(ctx context.Context) error {
	s.log.Info("service starting")

	if s.metricsCfg.Enabled {
		s.log.Info("Starting metrics server", "addr", s.metricsCfg.ListenAddr, "port", s.metricsCfg.ListenPort)
		metricsServer, err := opmetrics.StartServer(s.metrics.Registry(), s.metricsCfg.ListenAddr, s.metricsCfg.ListenPort)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		s.log.Info("Started metrics server", "endpoint", metricsServer.Addr())
		s.metricsServer = metricsServer
	}

	recorder := opmetrics.NewPromHTTPRecorder(s.metrics.Registry(), metrics.MetricsNamespace)
	handler := opmetrics.NewHTTPRecordingMiddleware(recorder, s.handler.Routes())

	addr := net.JoinHostPort(s.cfg.HTTPAddr, strconv.Itoa(s.cfg.HTTPPort))
	server, err := httputil.StartHTTPServer(addr, handler)
	if err != nil {
		return errors.Join(fmt.Errorf("failed to start report server: %w", err), s.Stop(ctx))
	}
	s.server = server
	s.log.Info("service started", "endpoint", server.Addr())
	return nil
}

// Addr returns the address the report server listens on, once started
func (s *Service) Addr() net.Addr {
	if s.server == nil {
		return nil
	}
	return s.server.Addr()
}

func (s *Service) Stop(ctx context.Context) error {
	s.log.Info("service shutting down")
	var result error
	if s.server != nil {
		if err := s.server.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop report server: %w", err))
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	s.stopped.Store(true)
	s.log.Info("service stopped")
	return result
}

func (s *Service) Stopped() bool {
	return s.stopped.Load()
}
