package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"shortlink/auth"
	"shortlink/config"
	"shortlink/database"
	"shortlink/handlers"
	"shortlink/repository"
	"shortlink/services"
	"shortlink/shortid"
	"shortlink/workers"
)

var runServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Start the HTTP server and the click workers",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("%v", err)
		}

		linkRepo := repository.NewLinkRepository(db, cfg.StoreTimeout())
		userRepo := repository.NewUserRepository(db, cfg.StoreTimeout())

		gen := shortid.NewGenerator(cfg.ShortID.Length)
		linkService := services.NewLinkService(linkRepo, userRepo, gen, cfg.ShortID.MaxAttempts)
		userService := services.NewUserService(userRepo)
		authManager := auth.NewManager(cfg.Auth.JWTSecret, cfg.TokenTTL())

		clickQueue := workers.StartClickWorkers(
			cfg.Analytics.WorkerCount,
			cfg.Analytics.BufferSize,
			cfg.AppendTimeout(),
			linkService,
		)
		log.Printf("Started %d click worker(s), buffer %d", cfg.Analytics.WorkerCount, cfg.Analytics.BufferSize)

		router := gin.Default()
		h := handlers.New(cfg, authManager, linkService, userService, clickQueue)
		h.SetupRoutes(router)

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: router,
		}

		go func() {
			log.Printf("Server listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutdown signal received, stopping server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}

		// Drain queued clicks before exiting so analytics are not lost.
		clickQueue.Close()
		log.Println("Server stopped")
	},
}

func init() {
	RootCmd.AddCommand(runServerCmd)
}
