package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/term"

	"cloudsqlconsole/internal/api"
	"cloudsqlconsole/internal/config"
	"cloudsqlconsole/internal/core"
	"cloudsqlconsole/internal/data"
	"cloudsqlconsole/internal/logger"
	"cloudsqlconsole/internal/service"
)

func main() {
	// Under the Windows service manager the server is started by the
	// service handler instead of directly.
	if maybeRunAsService() {
		return
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "reset-password":
			handleResetPassword(os.Args[2:])
			return
		case "help", "--help", "-h":
			printHelp()
			return
		default:
			if handleServiceCommand(os.Args[1]) {
				return
			}
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printHelp()
			os.Exit(1)
		}
	}

	// No subcommand — start server
	startServer()
}

func printHelp() {
	fmt.Println("CloudSqlConsole - Role-gated SQL console server")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cloudsqlconsole                          Start the server")
	fmt.Println("  cloudsqlconsole reset-password -u <user>   Reset user password (interactive)")
	fmt.Println("  cloudsqlconsole help                     Show this help")
}

func handleResetPassword(args []string) {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	username := fs.String("u", "", "Username to reset")
	fs.Parse(args)

	if *username == "" {
		fmt.Println("Usage: cloudsqlconsole reset-password -u <username>")
		os.Exit(1)
	}

	// Interactive password input (hidden)
	fmt.Print("New password: ")
	passBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Printf("Failed to read password: %v\n", err)
		os.Exit(1)
	}
	password := string(passBytes)

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Printf("Failed to read password: %v\n", err)
		os.Exit(1)
	}

	if password != string(confirmBytes) {
		fmt.Println("Passwords do not match.")
		os.Exit(1)
	}

	if password == "" {
		fmt.Println("Password cannot be empty.")
		os.Exit(1)
	}

	logger.InitDiscard()

	db, err := data.InitDB(data.DefaultDBPath())
	if err != nil {
		fmt.Printf("Failed to init database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := data.NewUserRepo(db)
	sessionRepo := data.NewSessionRepo(db)
	authSvc := service.NewAuthService(userRepo, sessionRepo)

	if err := authSvc.ResetPassword(*username, password); err != nil {
		fmt.Printf("Failed to reset password: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password for user '%s' has been reset successfully.\n", *username)
}

func startServer() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\nCheck .env file or CONSOLE_KEY environment variable.\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	if err := logger.Init("logs"); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info.Println("Starting CloudSqlConsole...")

	// 3. Initialize metadata store
	db, err := data.InitDB(data.DefaultDBPath())
	if err != nil {
		logger.Error.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	// 4. Initialize repos
	userRepo := data.NewUserRepo(db)
	sessionRepo := data.NewSessionRepo(db)
	connRepo := data.NewConnectionRepo(db)
	historyRepo := data.NewHistoryRepo(db)
	savedRepo := data.NewSavedQueryRepo(db)

	// 5. Initialize services
	cipher, err := service.NewSecretCipher(cfg.ConsoleKey)
	if err != nil {
		logger.Error.Fatalf("Failed to init secret cipher: %v", err)
	}

	authSvc := service.NewAuthService(userRepo, sessionRepo)
	gate := service.NewPermissionGate(service.NewClassifier())
	executor := service.NewQueryExecutor(cipher)

	if err := authSvc.BootstrapDefaultAdmin(); err != nil {
		logger.Error.Fatalf("Failed to bootstrap admin account: %v", err)
	}
	if err := seedBootstrapConnection(cfg, connRepo, cipher); err != nil {
		logger.Error.Printf("Failed to seed bootstrap connection: %v", err)
	}

	// Hourly sweep of expired session rows
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := sessionRepo.DeleteExpired(); err != nil {
				logger.Error.Printf("Session cleanup failed: %v", err)
			} else if n > 0 {
				logger.Info.Printf("Removed %d expired sessions", n)
			}
		}
	}()

	// 6. Initialize handlers
	authHandler := api.NewAuthHandler(authSvc, cfg.ConsoleKey)
	queryHandler := api.NewQueryHandler(executor, gate, connRepo, historyRepo, savedRepo)
	adminHandler := api.NewAdminHandler(connRepo, userRepo, executor, authSvc, gate, cipher)
	docHandler := api.NewDocHandler()

	// 7. Router
	r := chi.NewRouter()
	r.Use(api.LoggingMiddleware)

	loginLimiter := api.NewRateLimiter(5, 3)  // brute force protection
	apiLimiter := api.NewRateLimiter(60, 10)

	r.Route("/api", func(r chi.Router) {
		r.Get("/docs", docHandler.ServeSwaggerUI)
		r.Get("/docs/openapi.json", docHandler.GetOpenAPISpec)

		r.With(loginLimiter.Middleware).Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireAuth)
			r.Use(apiLimiter.MiddlewareBySession(authHandler.Token))
			r.Get("/auth/me", authHandler.Me)
			queryHandler.RegisterRoutes(r)
			adminHandler.RegisterRoutes(r)
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	// Graceful shutdown channel
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info.Printf("Server listening on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error.Fatalf("Server startup failed: %v", err)
		}
	}()

	<-stop
	logger.Info.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error.Printf("Server shutdown error: %v", err)
	}
	logger.Info.Println("Server stopped")
}

// seedBootstrapConnection registers the PGHOST-described profile once, on a
// fresh install, and marks it active.
func seedBootstrapConnection(cfg *config.Config, connRepo core.ConnectionRepository, cipher *service.SecretCipher) error {
	if cfg.BootstrapPG.Host == "" {
		return nil
	}
	count, err := connRepo.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	secretEnc, err := cipher.Encrypt(cfg.BootstrapPG.Password)
	if err != nil {
		return err
	}

	profile := &core.ConnectionProfile{
		Name:      "default-postgres",
		Engine:    core.EnginePostgreSQL,
		Host:      cfg.BootstrapPG.Host,
		Port:      cfg.BootstrapPG.Port,
		Database:  cfg.BootstrapPG.Database,
		Username:  cfg.BootstrapPG.User,
		SecretEnc: secretEnc,
		IsActive:  true,
	}
	if err := connRepo.Create(profile); err != nil {
		return err
	}
	logger.Info.Printf("Seeded bootstrap PostgreSQL profile for %s", cfg.BootstrapPG.Host)
	return nil
}
