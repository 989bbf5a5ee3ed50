package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/godilite/evalreport/internal/app"
	"github.com/godilite/evalreport/internal/config"
	"github.com/godilite/evalreport/internal/repository"
	"github.com/godilite/evalreport/internal/service"
	dbbuilder "github.com/godilite/evalreport/pkg/database"
)

var (
	envFile   string
	verbose   bool
	adminName string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "evalreport",
	Short: "Generate teacher evaluation reports",
	Long: `evalreport reads student evaluations of teachers and writes one report per
evaluation, a summary per section, a system-wide summary and a CSV export
to a folder or an S3 bucket.

Configuration comes from the environment (and an optional .env file).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg = config.LoadFromEnv()
		cfg.Verbose = verbose

		var err error
		logger, err = config.NewLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate every report once and print the run summary",
	Args:  cobra.NoArgs,
	RunE:  runOnce,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin gRPC API and run the optional report schedule",
	Long: `serve exposes GenerateReports and GetLastRun over gRPC for callers holding
ADMIN_TOKEN. With REPORT_SCHEDULE set (5-field cron, e.g. "0 6 * * 1-5")
reports are also generated on that schedule in TIMEZONE.`,
	Args: cobra.NoArgs,
	RunE: serve,
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the evaluation tables in a local SQLite database",
	Args:  cobra.NoArgs,
	RunE:  initDB,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	runCmd.Flags().StringVar(&adminName, "admin", os.Getenv("USER"), "Administrator recorded on the run")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initDBCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if adminName == "" {
		return errors.New("--admin is required when USER is not set")
	}
	summary, err := application.RunOnce(ctx, service.Admin{ID: "cli:" + adminName, Name: adminName})
	if summary.ID != "" {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
	}
	return err
}

func serve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Serve(ctx)
}

func initDB(cmd *cobra.Command, args []string) error {
	if cfg.DBDriver != "sqlite3" {
		return fmt.Errorf("init-db only manages sqlite3 databases, DB_DRIVER is %q", cfg.DBDriver)
	}
	db, err := dbbuilder.New(context.Background(),
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(cmd.Context(), repository.SQLiteSchema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	logger.Info("schema ready", zap.String("path", cfg.DBPath))
	return nil
}
