package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/auth"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/database"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/printers"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/seed"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/server"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/spaces"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Initialise the schema and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func newInitDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the collections and indexes for the configured variant",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			steps, err := database.EnsureSchema(a.db, a.config.Variant, a.logger)
			for _, step := range steps {
				state := "exists"
				if step.Created {
					state = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-60s %s\n", step.Name, state)
			}
			return err
		},
	}
}

func newSeedCommand() *cobra.Command {
	var (
		datasetName string
		file        string
		replace     bool
		assumeYes   bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a curated dataset into empty collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var dataset seed.Dataset
			if file != "" {
				dataset, err = seed.LoadFile(file)
			} else {
				dataset, err = seed.Builtin(datasetName)
			}
			if err != nil {
				return err
			}

			if _, err := database.EnsureSchema(a.db, a.config.Variant, a.logger); err != nil {
				return err
			}

			var confirmer seed.Confirmer = seed.NewPrompt(cmd.InOrStdin(), cmd.OutOrStdout())
			if assumeYes {
				confirmer = seed.AssumeYes{}
			}
			loader, err := seed.NewLoader(seed.Config{
				Database:   a.db,
				Variant:    a.config.Variant,
				IDProvider: domain.NewUUIDProvider(),
				Logger:     a.logger,
				Confirmer:  confirmer,
			})
			if err != nil {
				return err
			}

			opts := seed.Options{Replace: replace}
			if file == "" && datasetName == seed.DatasetProduction {
				opts.MinimumEntities = seed.ProductionMinimum
			}
			result, err := loader.Load(cmd.Context(), dataset, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case result.Cancelled:
				fmt.Fprintln(out, "seed cancelled; nothing was written")
			case result.Skipped:
				fmt.Fprintf(out, "database already contains %d %s; rerun with --replace to reseed\n", result.Existing, a.config.Variant)
			default:
				fmt.Fprintf(out, "inserted %d %s and %d reports\n", result.Entities, a.config.Variant, result.Reports)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetName, "dataset", seed.DatasetSample, "Built-in dataset (sample, production)")
	cmd.Flags().StringVar(&file, "file", "", "YAML dataset file; overrides --dataset")
	cmd.Flags().BoolVar(&replace, "replace", false, "Clear non-empty collections before inserting")
	cmd.Flags().BoolVar(&assumeYes, "yes", false, "Answer yes to every confirmation")
	return cmd
}

func runServer(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	appConfig := a.config
	logger := a.logger

	if _, err := database.EnsureSchema(a.db, appConfig.Variant, logger); err != nil {
		return err
	}

	issuer, err := auth.NewSessionIssuer(auth.SessionIssuerConfig{
		SigningSecret: []byte(appConfig.SessionSecret),
		Issuer:        auth.DefaultSessionIssuer,
		TTL:           appConfig.SessionTTL,
	})
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(appConfig.SessionSecret),
		Issuer:        auth.DefaultSessionIssuer,
		CookieName:    appConfig.CookieName,
	})
	if err != nil {
		return err
	}

	deps := server.Dependencies{
		Variant:        appConfig.Variant,
		Sessions:       sessions,
		Issuer:         issuer,
		Database:       a.db,
		Logger:         logger,
		AllowedOrigins: appConfig.AllowedOrigins,
		ReportRate:     rate.Limit(appConfig.ReportRate),
		ReportBurst:    appConfig.ReportBurst,
		DevLogin:       appConfig.DevLoginEnabled(),
		SecureCookies:  appConfig.IsProduction(),
	}

	if appConfig.SSOEnabled() {
		verifier, err := auth.NewSSOVerifier(auth.SSOVerifierConfig{
			Audience:       appConfig.SSOAudience,
			JWKSURL:        appConfig.SSOJWKSURL,
			AllowedIssuers: appConfig.SSOIssuers,
			Strict:         appConfig.SSOStrict,
			AllowedDomain:  appConfig.SSOAllowedDomain,
			ReplayTTL:      appConfig.SSOReplayTTL,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		deps.SSO = verifier
	} else {
		logger.Info("single sign-on disabled; set auth.sso.jwks_url and auth.sso.audience to enable it")
	}

	switch appConfig.Variant {
	case domain.VariantPrinters:
		service, err := printers.NewService(printers.ServiceConfig{
			Database:        a.db,
			Clock:           time.Now,
			IDProvider:      domain.NewUUIDProvider(),
			Logger:          logger,
			RequireIdentity: appConfig.RequireIdentity,
		})
		if err != nil {
			return err
		}
		deps.PrinterService = service
	case domain.VariantSpaces:
		service, err := spaces.NewService(spaces.ServiceConfig{
			Database:        a.db,
			Clock:           time.Now,
			IDProvider:      domain.NewUUIDProvider(),
			Logger:          logger,
			RequireIdentity: appConfig.RequireIdentity,
		})
		if err != nil {
			return err
		}
		deps.SpaceService = service
	}

	handler, err := server.NewHTTPHandler(deps)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("variant", string(appConfig.Variant)),
			zap.Bool("require_identity", appConfig.RequireIdentity),
		)
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
