package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moringadesk/backend/internal/admin"
	"github.com/moringadesk/backend/internal/auth"
	"github.com/moringadesk/backend/internal/blog"
	"github.com/moringadesk/backend/internal/config"
	"github.com/moringadesk/backend/internal/database"
	"github.com/moringadesk/backend/internal/email"
	"github.com/moringadesk/backend/internal/faqs"
	"github.com/moringadesk/backend/internal/feedback"
	"github.com/moringadesk/backend/internal/ids"
	"github.com/moringadesk/backend/internal/logging"
	"github.com/moringadesk/backend/internal/notifications"
	"github.com/moringadesk/backend/internal/questions"
	"github.com/moringadesk/backend/internal/realtime"
	"github.com/moringadesk/backend/internal/server"
	"github.com/moringadesk/backend/internal/solutions"
	"github.com/moringadesk/backend/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "moringadesk-api",
		Short: "MoringaDesk Q&A backend service",
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
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("auth.token_ttl_minutes"), "Access token TTL in minutes")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("public-url", defaults.GetString("app.public_url"), "Public base URL used in email links")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "auth.token_ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "app.public_url", "public-url")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
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

// tokenVerifierAdapter narrows the token issuer to the shape the realtime
// handshake needs.
type tokenVerifierAdapter struct {
	issuer *auth.TokenIssuer
}

func (a tokenVerifierAdapter) VerifyToken(tokenString string) (string, error) {
	identity, err := a.issuer.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return identity.UserID, nil
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

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "moringadesk-auth",
		Audience:      "moringadesk-api",
		TokenTTL:      appConfig.TokenTTL,
	})

	idGenerator := ids.NewGenerator()

	var mailSender users.MailSender = email.NopSender{}
	if appConfig.EmailAPIKey != "" {
		mailSender = email.NewResendSender(appConfig.EmailAPIKey, appConfig.EmailFrom, appConfig.PublicURL)
	}

	usersService, err := users.NewService(users.ServiceConfig{
		Database:   db,
		Hasher:     auth.NewPasswordHasher(),
		IDProvider: idGenerator,
		Mail:       mailSender,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	hub := realtime.NewHub(logger)
	defer hub.Shutdown()

	notificationsService, err := notifications.NewService(notifications.ServiceConfig{
		Database:   db,
		IDProvider: idGenerator,
		Broadcast:  hub,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	questionsService, err := questions.NewService(questions.ServiceConfig{
		Database:      db,
		IDProvider:    idGenerator,
		Notifications: notificationsService,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	solutionsService, err := solutions.NewService(solutions.ServiceConfig{
		Database:      db,
		IDProvider:    idGenerator,
		Questions:     questionsService,
		Notifications: notificationsService,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	notificationsService.SetResolver(solutionsService)

	faqsService, err := faqs.NewService(faqs.ServiceConfig{
		Database:   db,
		IDProvider: idGenerator,
	})
	if err != nil {
		return err
	}

	blogService, err := blog.NewService(blog.ServiceConfig{
		Database:   db,
		IDProvider: idGenerator,
	})
	if err != nil {
		return err
	}

	adminService, err := admin.NewService(admin.ServiceConfig{
		Database:   db,
		IDProvider: idGenerator,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	feedbackService, err := feedback.NewService(feedback.ServiceConfig{
		Database:   db,
		IDProvider: idGenerator,
	})
	if err != nil {
		return err
	}

	realtimeHandler, err := realtime.NewHandler(realtime.HandlerConfig{
		Hub:      hub,
		Verifier: tokenVerifierAdapter{issuer: tokenIssuer},
		Counter:  notificationsService,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Tokens:        tokenIssuer,
		Users:         usersService,
		Questions:     questionsService,
		Solutions:     solutionsService,
		Notifications: notificationsService,
		FAQs:          faqsService,
		Blog:          blogService,
		Admin:         adminService,
		Feedback:      feedbackService,
		Realtime:      realtimeHandler,
		CORSOrigins:   appConfig.CORSOrigins,
		Logger:        logger,
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
