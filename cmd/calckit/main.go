package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/iwvelando/calckit/internal/cache"
	"github.com/iwvelando/calckit/internal/calculator"
	"github.com/iwvelando/calckit/internal/config"
	"github.com/iwvelando/calckit/internal/logging"
	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/output"
	"github.com/iwvelando/calckit/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	requestedFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		requestedFormat = *outputFormatFlag
	}
	outputFormat, err := validation.OutputFormat(requestedFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resultCache, err := cache.New(ctx, conf.Cache, logger)
	if err != nil {
		logger.Fatal("failed to open result cache",
			zap.String("op", "main"),
			zap.String("backend", conf.Cache.Backend),
			zap.Error(err),
		)
	}
	defer func() {
		if err := resultCache.Close(); err != nil {
			logger.Warn("failed to close result cache",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	svc := calculator.NewService(logger, resultCache, nil, conf.ResolvedTables())
	results := calculator.RunJobs(ctx, logger, svc, conf.Jobs)

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, results)
	case constants.OutputFormatCSV:
		if err := output.CsvFormat(os.Stdout, results); err != nil {
			logger.Error("failed to write csv output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
