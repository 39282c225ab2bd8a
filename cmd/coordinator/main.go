package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/athulya-anil/axon-orchestrator/pkg/api"
	"github.com/athulya-anil/axon-orchestrator/pkg/config"
	"github.com/athulya-anil/axon-orchestrator/pkg/coordinator"
	"github.com/athulya-anil/axon-orchestrator/pkg/dashboard"
	"github.com/athulya-anil/axon-orchestrator/pkg/journal"
)

func main() {
	// .env is optional; settings fall back to defaults
	_ = godotenv.Load()

	settings, err := config.Load("")
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	var jrnl coordinator.Journal
	if settings.JournalPath != "" {
		j, err := journal.Open(settings.JournalPath)
		if err != nil {
			log.Fatalf("❌ Failed to open journal: %v", err)
		}
		defer j.Close()
		jrnl = j
		log.Printf("📓 Journal enabled at %s", j.Path())
	}

	coord := coordinator.New(settings.BuildTTL, jrnl)

	router := gin.Default()
	api.NewAPI(coord, settings.Token).SetupRoutes(router)
	dashboard.NewDashboard(coord).SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", settings.Port),
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Axon Orchestrator listening on port %d (build TTL: %v)", settings.Port, settings.BuildTTL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("🛑 Shutting down coordinator...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Shutdown failed: %v", err)
	}

	log.Println("👋 Coordinator stopped")
}
