// Command ziplog is a small ingest daemon: it reads lines from stdin and
// appends them to a rolling zip archive, demonstrating the sink wired into a
// full zap logger with console tee and scheduled retention sweeps.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/raoulx24/ziplog/internal/config"
	"github.com/raoulx24/ziplog/internal/logging"
	"github.com/raoulx24/ziplog/internal/sweeper"
	"github.com/raoulx24/ziplog/pkg/ziplog"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		cancel()
	}()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Console logger doubles as the diagnostics channel
	console := newConsole(cfg.Logging)
	diag := logging.Zap{S: console.Sugar()}

	// Rolling archive sink
	interval, err := ziplog.ParseInterval(cfg.Archive.Interval)
	if err != nil {
		log.Fatalf("invalid rolling interval: %v", err)
	}
	var ageLimit *time.Duration
	if cfg.Archive.RetainedFileAgeLimit != nil {
		d := cfg.Archive.RetainedFileAgeLimit.Std()
		ageLimit = &d
	}
	core, err := ziplog.NewCore(newEncoder(cfg.Logging), zap.InfoLevel, ziplog.Options{
		Path:                   cfg.Archive.Path,
		Interval:               interval,
		RetainedFileCountLimit: cfg.Archive.RetainedFileCountLimit,
		RetainedFileAgeLimit:   ageLimit,
		PropagateOpenErrors:    cfg.Archive.PropagateOpenErrors,
		Diagnostics:            diag,
	})
	if err != nil {
		log.Fatalf("failed to build archive sink: %v", err)
	}

	logger := zap.New(zapcore.NewTee(core, console.Core()))
	defer func() {
		_ = logger.Sync()
		if err := core.Close(); err != nil {
			diag.Error("closing archive: %v", err)
		}
	}()

	// Scheduled retention sweep
	if cfg.Sweep.Enabled {
		sw, err := sweeper.New(cfg.Sweep.Schedule, core, diag)
		if err != nil {
			log.Fatalf("failed to build sweeper: %v", err)
		}
		sw.Start()
		defer sw.Stop()
	}

	// Ingest stdin lines until EOF or shutdown
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			logger.Info(line)
		}
	}
}

func newEncoder(cfg config.LoggingConfig) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "json" {
		return zapcore.NewJSONEncoder(encCfg)
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encCfg)
}

func newConsole(cfg config.LoggingConfig) *zap.Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.OutputPaths = []string{"stderr"}
	if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("failed to build console logger: %v", err)
	}
	return logger
}
