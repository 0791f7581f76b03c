package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/mthomas46/Hackathon-sub022/internal/discovery"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/config"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/logging"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/monitoring"
	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/resilience"
	"github.com/mthomas46/Hackathon-sub022/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewWithLevel(cfg.Logging.Level)
	}
	defer logger.Sync()

	logger.Info("Initializing communication layer",
		zap.String("port", cfg.Server.Port),
		zap.Int("discovery_interval_s", cfg.Discovery.IntervalSeconds),
	)

	metrics := monitoring.NewMetrics()

	services := map[string]discovery.ServiceConfig{}
	breakerConfigs := map[string]resilience.BreakerConfig{}
	for name, entry := range cfg.Services.Entries() {
		services[name] = discovery.ServiceConfig{
			URL:         entry.URL,
			FallbackURL: entry.FallbackURL,
		}
		breakerConfigs[name] = breakerConfig(cfg, entry.Critical)
	}

	probeTimeout := time.Duration(cfg.Discovery.ProbeTimeoutSeconds * float64(time.Second))
	var locator *discovery.Locator
	locator, err = discovery.NewLocator(services, probeTimeout, logger,
		discovery.WithProbeObserver(func(service string, healthy bool, duration time.Duration) {
			metrics.RecordProbe(service, healthy, duration)
			summary := locator.Summarize()
			metrics.SetServiceCounts(summary.Total, summary.Healthy)
		}),
	)
	if err != nil {
		log.Fatalf("Failed to create service locator: %v", err)
	}

	breakers := resilience.NewRegistry(breakerConfigs, logger,
		resilience.WithStateChangeHook(func(name string, from, to resilience.State) {
			metrics.RecordBreakerState(name, float64(to))
			if to == resilience.StateOpen {
				metrics.RecordBreakerTrip(name)
			}
		}),
	)

	locator.StartDiscovery(time.Duration(cfg.Discovery.IntervalSeconds) * time.Second)
	logger.Info("Service discovery started", zap.Int("services", len(services)))

	srv := server.New(cfg, logger, metrics, locator, breakers)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("Server error", zap.Error(err))
	}
}

func breakerConfig(cfg *config.Config, critical bool) resilience.BreakerConfig {
	if critical {
		return resilience.BreakerConfig{
			Criticality:      resilience.CriticalityCritical,
			FailureThreshold: cfg.Breaker.CriticalFailureThreshold,
			SuccessThreshold: cfg.Breaker.SuccessThreshold,
			RecoveryTimeout:  time.Duration(cfg.Breaker.CriticalRecoverySeconds * float64(time.Second)),
		}
	}
	return resilience.BreakerConfig{
		Criticality:      resilience.CriticalityStandard,
		FailureThreshold: cfg.Breaker.StandardFailureThreshold,
		SuccessThreshold: cfg.Breaker.SuccessThreshold,
		RecoveryTimeout:  time.Duration(cfg.Breaker.StandardRecoverySeconds * float64(time.Second)),
	}
}
