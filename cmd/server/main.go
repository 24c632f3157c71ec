package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"patchbay/internal/adapter"
	"patchbay/internal/config"
	"patchbay/internal/editor"
	"patchbay/internal/handler"
	"patchbay/internal/hub"
	"patchbay/internal/mutate"
	"patchbay/internal/repository/sqlite"
	"patchbay/internal/service"
	"patchbay/internal/watcher"
)

func main() {
	configPath := flag.String("config", "./patchbay.yaml", "config file path")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Patchbay server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	policy, err := mutate.ParsePolicy(cfg.Connections.Policy)
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	eventBus := service.NewEventBus()

	sseHub := hub.New(eventBus)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go sseHub.Run(hubCtx)

	ed := editor.New(mutate.NewEngine(policy, mutate.DefaultSizing()), cfg.History.Depth)

	var gen *adapter.GenerationAdapter
	if cfg.Generation.Endpoint != "" {
		gen = adapter.NewGenerationAdapter(cfg.Generation.Endpoint, nil)
		log.Printf("Generation adapter configured: %s", cfg.Generation.Endpoint)
	}

	svc := service.NewDiagramService(ed, repo, eventBus, gen)

	if err := svc.Restore(context.Background()); err != nil {
		log.Fatalf("Failed to restore graph: %v", err)
	}
	log.Printf("Graph restored: %d devices", len(svc.Graph().Devices))

	if cfg.Inventory.Endpoint != "" {
		err := svc.Registry().Register(
			adapter.NewInventoryAdapter(cfg.Inventory.Endpoint, nil),
			adapter.Config{Enabled: cfg.Inventory.Enabled},
		)
		if err != nil {
			log.Fatalf("Failed to register inventory adapter: %v", err)
		}
	}

	adapterCtx, adapterCancel := context.WithCancel(context.Background())
	if err := svc.Registry().Start(adapterCtx); err != nil {
		log.Printf("Warning: Failed to start adapter registry: %v", err)
	}

	saverCtx, saverCancel := context.WithCancel(context.Background())
	saver := service.NewAutosaver(svc, eventBus, cfg.Autosave.Debounce)
	saverDone := make(chan struct{})
	go func() {
		defer close(saverDone)
		saver.Run(saverCtx)
	}()

	if cfg.Snapshot.Path != "" {
		snapWatcher := watcher.New(cfg.Snapshot.Path, func() {
			data, err := os.ReadFile(cfg.Snapshot.Path)
			if err != nil {
				log.Printf("Failed to read snapshot file: %v", err)
				return
			}
			if err := svc.ImportJSON(data); err != nil {
				log.Printf("Snapshot reload rejected: %v", err)
			}
		})
		go func() {
			if err := snapWatcher.Watch(hubCtx); err != nil && err != context.Canceled {
				log.Printf("Snapshot watcher stopped: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	handler.NewDiagramHandler(svc, service.NewCatalogService()).Register(mux)
	mux.Handle("GET /events", sseHub)

	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	adapterCancel()
	if err := svc.Registry().Stop(); err != nil {
		log.Printf("Adapter registry shutdown error: %v", err)
	}

	// Stopping the autosaver flushes any pending save.
	saverCancel()
	<-saverDone

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if err := svc.Persist(context.Background()); err != nil {
		log.Printf("Final save failed: %v", err)
	}

	log.Println("Server stopped")
}
