package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	healthCheckProvider "github.com/evap/user-merge-service/internal/health_check/provider"
	"github.com/evap/user-merge-service/internal/system/config"
	"github.com/evap/user-merge-service/internal/system/constants"
	umsContext "github.com/evap/user-merge-service/internal/system/context"
	"github.com/evap/user-merge-service/internal/system/database/migrations"
	"github.com/evap/user-merge-service/internal/system/database/provider"
	"github.com/evap/user-merge-service/internal/system/log"
	"github.com/evap/user-merge-service/internal/user_merge/model"
	userMergeProvider "github.com/evap/user-merge-service/internal/user_merge/provider"
	"github.com/joho/godotenv"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitBlocked = 2
)

type options struct {
	umsHome       string
	mainUsername  string
	otherUsername string
	initiator     string
	preview       bool
	check         bool
	history       bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {

	opts, err := parseFlags(args, stderr)
	if err != nil {
		return exitFailure
	}
	umsHome := getUMSHome(opts.umsHome)

	envFiles, err := filepath.Glob(filepath.Join(umsHome, constants.EnvFilesGlob))
	if err == nil && len(envFiles) > 0 {
		_ = godotenv.Load(envFiles...)
	}

	umsConfig, err := config.LoadConfig(umsHome, constants.DeploymentConfigPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitFailure
	}
	if err := config.InitializeUMSRuntime(umsHome, umsConfig); err != nil {
		fmt.Fprintf(stderr, "Failed to initialize runtime: %v\n", err)
		return exitFailure
	}

	// Logs go to stderr so stdout only carries the report.
	if err := log.InitWithWriter(stderr, umsConfig.Log.LogLevel); err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return exitFailure
	}
	logger := log.GetLogger()

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		logger.Error("Failed to connect to the database", log.Error(err))
		return exitFailure
	}
	defer func() {
		if err := provider.Close(); err != nil {
			logger.Warn("Failed to close the database pool", log.Error(err))
		}
	}()

	if umsConfig.Database.AutoMigrate {
		migrationService := migrations.NewMigrationService(umsConfig.Database.MigrationVersion)
		if err := migrationService.Migrate(ctx, dbClient.DB()); err != nil {
			logger.Error("Failed to migrate the database", log.Error(err))
			return exitFailure
		}
	}

	if opts.check {
		return checkReadiness(ctx, stdout)
	}

	mergeProvider := userMergeProvider.NewUserMergeProvider()
	mergeService, err := mergeProvider.GetUserMergeService(ctx)
	if err != nil {
		logger.Error("Failed to initialize the user merge service", log.Error(err))
		return exitFailure
	}
	defer func() {
		if err := mergeProvider.Close(ctx); err != nil {
			logger.Warn("Failed to close the merge archive", log.Error(err))
		}
	}()

	ctx = umsContext.WithTraceID(ctx, umsContext.GenerateTraceID())
	ctx = umsContext.WithInitiator(ctx, opts.initiator)
	if opts.history {
		history, err := mergeService.GetMergeHistoryByUsername(ctx, opts.mainUsername)
		if err != nil {
			logger.Error("Failed to fetch merge history", log.String("main", opts.mainUsername), log.Error(err))
			return exitFailure
		}
		if err := writeReport(stdout, history); err != nil {
			logger.Error("Failed to write the merge history", log.Error(err))
			return exitFailure
		}
		return exitOK
	}
	result, err := mergeService.MergeUsersByUsername(ctx, opts.mainUsername, opts.otherUsername, opts.preview)
	if err != nil {
		logger.Error("User merge failed", log.String("main", opts.mainUsername),
			log.String("other", opts.otherUsername), log.Error(err))
		return exitFailure
	}
	if err := writeReport(stdout, result); err != nil {
		logger.Error("Failed to write the merge report", log.Error(err))
		return exitFailure
	}
	return exitCode(result)
}

func checkReadiness(ctx context.Context, stdout io.Writer) int {

	logger := log.GetLogger()
	healthCheckService, err := healthCheckProvider.NewHealthCheckProvider().GetHealthCheckService()
	if err != nil {
		logger.Error("Failed to initialize the health check service", log.Error(err))
		return exitFailure
	}
	if err := healthCheckService.CheckReadiness(ctx); err != nil {
		logger.Error("Readiness check failed", log.Error(err))
		return exitFailure
	}
	fmt.Fprintln(stdout, "ready")
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {

	opts := &options{}
	flags := flag.NewFlagSet("usermerge", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.umsHome, "umsHome", "", "Path to the user merge service home directory")
	flags.StringVar(&opts.mainUsername, "main", "", "Username of the user profile that survives the merge")
	flags.StringVar(&opts.otherUsername, "other", "", "Username of the user profile merged into main")
	flags.StringVar(&opts.initiator, "initiator", log.InitiatorTypeSystem, "Who requested the merge, for the audit log")
	flags.BoolVar(&opts.preview, "preview", false, "Report the merge result without writing anything")
	flags.BoolVar(&opts.check, "check", false, "Only check that the database is reachable and migrated")
	flags.BoolVar(&opts.history, "history", false, "Print the merges the -main user profile survived")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if opts.check {
		return opts, nil
	}
	if opts.history {
		if opts.mainUsername == "" {
			err := fmt.Errorf("-history requires -main")
			fmt.Fprintln(stderr, err)
			return nil, err
		}
		return opts, nil
	}

	if opts.mainUsername == "" || opts.otherUsername == "" {
		err := fmt.Errorf("both -main and -other are required")
		fmt.Fprintln(stderr, err)
		flags.Usage()
		return nil, err
	}
	if opts.mainUsername == opts.otherUsername {
		err := fmt.Errorf("-main and -other must name different user profiles")
		fmt.Fprintln(stderr, err)
		return nil, err
	}
	return opts, nil
}

func getUMSHome(flagValue string) string {

	if flagValue != "" {
		return flagValue
	}
	// If no command line argument is provided, use the current working directory.
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// writeReport prints a merge result or a merge history as indented JSON.
func writeReport(w io.Writer, report interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func exitCode(result *model.MergeResult) int {
	if !result.Succeeded() {
		return exitBlocked
	}
	return exitOK
}
