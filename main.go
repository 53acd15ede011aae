package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitts-go/internal/config"
	"fitts-go/internal/database"
	logger "fitts-go/internal/logging"
	"fitts-go/internal/recorder"
	"fitts-go/internal/repository"
	"fitts-go/internal/router"
	"fitts-go/internal/services"
	"fitts-go/internal/utils"

	"go.uber.org/zap"
)

func main() {
	root := flag.String("root", ".", "project root containing config/")
	newToken := flag.Bool("new-admin-token", false, "print a new experimenter token and its bcrypt hash, then exit")
	flag.Parse()

	if *newToken {
		if err := printAdminToken(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	v, conf, err := config.Load(*root)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize Logger
	log, err := logger.Init(conf.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	config.Watch(v, *root, log)

	// Initialize Database
	dialector, err := database.Dialector(conf.Database)
	if err != nil {
		log.Fatal("Invalid database configuration", zap.Error(err))
	}
	db, err := database.Open(dialector, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	store := repository.NewStore(db)

	// Load the study design at startup
	design, err := config.LoadDesign(conf.Study.DesignFile)
	if err != nil {
		log.Fatal("Failed to load study design", zap.String("file", conf.Study.DesignFile), zap.Error(err))
	}
	log.Info("Study design loaded",
		zap.String("name", design.Name),
		zap.String("cursor", design.CursorType),
		zap.Int("trials", design.TrialCount()),
	)

	csvSink, err := recorder.NewCSV(conf.Study.DataDir)
	if err != nil {
		log.Fatal("Failed to prepare trial log", zap.Error(err))
	}
	manager, err := services.NewManager(services.ManagerOptions{
		Design: design,
		Store:  store,
		Sink:   recorder.Multi{recorder.NewDB(store), csvSink},
		Logger: log,
		Clock:  conf.Study.Clock,
	})
	if err != nil {
		log.Fatal("Failed to create session manager", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services.NewReaper(log, manager, conf.Study.ReapEvery, conf.Study.IdleTimeout).Start(ctx)

	if conf.Server.AdminTokenHash == "" {
		log.Warn("No admin token hash configured; results, export and metrics are disabled")
	}

	srv := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           router.Setup(log, conf, manager, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening on http://localhost" + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shut down", zap.Error(err))
	}
}

func printAdminToken() error {
	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return err
	}
	hash, err := utils.HashToken(token)
	if err != nil {
		return err
	}
	fmt.Printf("token: %s\nserver.admin_token_hash: %s\n", token, hash)
	return nil
}
