package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/waypointhq/waypoint/backend/internal/academics"
	"github.com/waypointhq/waypoint/backend/internal/auth"
	"github.com/waypointhq/waypoint/backend/internal/autosave"
	"github.com/waypointhq/waypoint/backend/internal/colleges"
	"github.com/waypointhq/waypoint/backend/internal/config"
	"github.com/waypointhq/waypoint/backend/internal/database"
	"github.com/waypointhq/waypoint/backend/internal/logging"
	"github.com/waypointhq/waypoint/backend/internal/portfolio"
	"github.com/waypointhq/waypoint/backend/internal/resume"
	"github.com/waypointhq/waypoint/backend/internal/server"
	"github.com/waypointhq/waypoint/backend/internal/sharing"
	"github.com/waypointhq/waypoint/backend/internal/users"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "waypoint-api",
		Short: "Waypoint college application backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("session-issuer", defaults.GetString("session.issuer"), "Expected issuer of session tokens")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("token.ttl_minutes"), "Backend token TTL in minutes")
	cmd.PersistentFlags().String("share-base-url", defaults.GetString("share.base_url"), "Base URL for public share links")
	cmd.PersistentFlags().Int("autosave-delay-ms", defaults.GetInt("autosave.delay_ms"), "Debounce window for draft auto-save in milliseconds")
	cmd.PersistentFlags().String("session-signing-secret", "", "Session token signing secret (overrides env)")
	cmd.PersistentFlags().String("token-signing-secret", "", "Backend token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "session.issuer", "session-issuer")
	bindFlag(cmd, "token.ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "share.base_url", "share-base-url")
	bindFlag(cmd, "autosave.delay_ms", "autosave-delay-ms")
	bindFlag(cmd, "session.signing_secret", "session-signing-secret")
	bindFlag(cmd, "token.signing_secret", "token-signing-secret")
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

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	sessionValidator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(appConfig.SessionSigningKey),
		Issuer:        appConfig.SessionIssuer,
	})
	if err != nil {
		return err
	}
	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.TokenSigningKey),
		TokenTTL:      appConfig.TokenTTL,
	})

	identityService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		return err
	}

	idProvider := academics.NewUUIDProvider()

	academicsService, err := academics.NewService(academics.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	collegesService, err := colleges.NewService(colleges.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	portfolioService, err := portfolio.NewService(portfolio.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	resumeService, err := resume.NewService(resume.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	sharingService, err := sharing.NewService(sharing.ServiceConfig{
		Database:      db,
		Clock:         time.Now,
		IDProvider:    idProvider,
		TokenProvider: sharing.NewNUIDProvider(),
		BaseURL:       appConfig.ShareBaseURL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	debouncer, err := autosave.NewDebouncer(appConfig.AutosaveDelay, logger)
	if err != nil {
		return err
	}
	defer debouncer.Stop()

	handler, err := server.NewHTTPHandler(server.Dependencies{
		SessionVerifier:  sessionValidator,
		IdentityResolver: identityService,
		TokenManager:     tokenManager,
		Academics:        academicsService,
		Colleges:         collegesService,
		Portfolio:        portfolioService,
		Resumes:          resumeService,
		Sharing:          sharingService,
		Debouncer:        debouncer,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
