package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/config"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/database"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crowdstatus-api",
		Short: "Crowdsourced printer and study space status service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
		SilenceUsage: true,
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newServeCommand(), newInitDBCommand(), newSeedCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("env", defaults.GetString("app.env"), "Environment (development, production, test)")
	cmd.PersistentFlags().String("variant", defaults.GetString("app.variant"), "Application variant (printers, spaces)")
	cmd.PersistentFlags().String("database-dsn", defaults.GetString("database.dsn"), "SQLite path or postgres:// DSN")
	cmd.PersistentFlags().Int("database-max-open-conns", defaults.GetInt("database.max_open_conns"), "Maximum open database connections")
	cmd.PersistentFlags().Int("database-max-idle-conns", defaults.GetInt("database.max_idle_conns"), "Maximum idle database connections")
	cmd.PersistentFlags().StringSlice("allowed-origins", defaults.GetStringSlice("http.allowed_origins"), "CORS allowed origins")
	cmd.PersistentFlags().Float64("report-rate", defaults.GetFloat64("http.report_rate_per_sec"), "Report submissions per second per client")
	cmd.PersistentFlags().Int("report-burst", defaults.GetInt("http.report_burst"), "Report submission burst per client")
	cmd.PersistentFlags().Int("session-ttl-minutes", defaults.GetInt("auth.session_ttl_minutes"), "Session TTL in minutes")
	cmd.PersistentFlags().String("session-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().Bool("auth-debug", defaults.GetBool("auth.debug"), "Enable the development login endpoint outside production")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "app.env", "env")
	bindFlag(cmd, "app.variant", "variant")
	bindFlag(cmd, "database.dsn", "database-dsn")
	bindFlag(cmd, "database.max_open_conns", "database-max-open-conns")
	bindFlag(cmd, "database.max_idle_conns", "database-max-idle-conns")
	bindFlag(cmd, "http.allowed_origins", "allowed-origins")
	bindFlag(cmd, "http.report_rate_per_sec", "report-rate")
	bindFlag(cmd, "http.report_burst", "report-burst")
	bindFlag(cmd, "auth.session_ttl_minutes", "session-ttl-minutes")
	bindFlag(cmd, "auth.session_secret", "session-secret")
	bindFlag(cmd, "auth.debug", "auth-debug")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// app bundles what every command needs: parsed configuration, a logger
// and an open store.
type app struct {
	config config.AppConfig
	logger *zap.Logger
	db     *gorm.DB
}

func openApp() (*app, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.Environment)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(database.Config{
		DSN:                    appConfig.DatabaseDSN,
		MaxOpenConns:           appConfig.MaxOpenConns,
		MaxIdleConns:           appConfig.MaxIdleConns,
		ConnMaxLifetimeMinutes: appConfig.ConnMaxLifetimeMinutes,
		Debug:                  appConfig.LogLevel == "debug",
	}, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &app{config: appConfig, logger: logger, db: db}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}
