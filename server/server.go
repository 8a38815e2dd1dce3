package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gopxl/beep"
	"github.com/gorilla/mux"

	"DeckFM/cache"
	"DeckFM/config"
	"DeckFM/core/library"
	"DeckFM/core/party"
	"DeckFM/db"
	"DeckFM/logger"
	"DeckFM/model"
	"DeckFM/repository"
	"DeckFM/storage"
)

const speakerSampleRate = beep.SampleRate(44100)

// Start initializes every subsystem and runs the HTTP server until SIGINT or
// SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	if err := storage.InitMinio(cfg); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect GORM: %v", err)
	}
	defer db.CloseGormDB()
	if err := db.AutoMigrateModels(&model.MixSettings{}); err != nil {
		log.Fatalf("Failed to migrate models: %v", err)
	}

	if err := db.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer db.CloseRedis()
	log.Println("Successfully connected to Redis")

	ensureDirExists(cfg.ImportDir)

	trackRepo := repository.NewMySQLTrackRepository()
	settingsRepo, err := repository.NewGormSettingsRepository()
	if err != nil {
		log.Fatalf("Failed to load mix settings: %v", err)
	}

	importer := library.NewImporter(cfg, trackRepo)
	importer.Start(cfg.AnalysisWorkers)
	defer importer.Stop()

	hub := NewPartyHub()
	go hub.Run()
	defer hub.Stop()

	// Engine events are re-broadcast on the feed outside the engine lock.
	eventCh := make(chan party.Event, 64)
	engine := party.NewEngine(trackRepo, settingsRepo, buildOutputs(cfg), func(ev party.Event) {
		select {
		case eventCh <- ev:
		default:
		}
	})

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go forwardEvents(rootCtx, eventCh, engine, hub)
	go runTickLoop(rootCtx, cfg, engine, hub)
	go func() {
		if err := importer.Watch(rootCtx); err != nil && rootCtx.Err() == nil {
			logger.Error("import watcher stopped", logger.ErrorField(err))
		}
	}()

	restoreQueue(rootCtx, engine)

	apiHandler := NewAPIHandler(trackRepo, settingsRepo, engine, importer, hub, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Library
	router.HandleFunc("/api/tracks", apiHandler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.DeleteTrackHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/upload", apiHandler.UploadTrackHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/import", apiHandler.ImportScanHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/import/url", apiHandler.ImportURLHandler).Methods(http.MethodPost)

	// Mix settings
	router.HandleFunc("/api/settings", apiHandler.GetSettingsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/settings", apiHandler.UpdateSettingsHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/settings/reset", apiHandler.ResetSettingsHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/presets", apiHandler.GetPresetsHandler).Methods(http.MethodGet)

	// Party transport
	router.HandleFunc("/api/party/queue", apiHandler.GetQueueHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/party/queue", apiHandler.SetQueueHandler).Methods(http.MethodPut)
	router.HandleFunc("/api/party/play", apiHandler.PlayHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/party/pause", apiHandler.PauseHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/party/skip", apiHandler.SkipHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/party/stop", apiHandler.StopHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/party/status", apiHandler.StatusHandler).Methods(http.MethodGet)

	// Live feed
	router.HandleFunc("/ws/party", apiHandler.PartyFeedHandler)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s...", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	engine.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// buildOutputs wires the two deck outputs. With the speaker disabled (or the
// audio device unavailable) the decks run on silent wall-clock outputs so the
// engine and feed still work headless.
func buildOutputs(cfg *config.Config) [2]party.DeckOutput {
	fetch := func(ctx context.Context, objectPath string) (io.ReadCloser, error) {
		return storage.FetchAudio(ctx, cfg.MinioBucket, objectPath)
	}

	if cfg.SpeakerEnabled {
		mixer, err := party.InitSpeaker(speakerSampleRate)
		if err == nil {
			return [2]party.DeckOutput{
				party.NewBeepOutput(fetch, mixer, speakerSampleRate),
				party.NewBeepOutput(fetch, mixer, speakerSampleRate),
			}
		}
		logger.Warn("speaker unavailable, falling back to silent outputs", logger.ErrorField(err))
	}

	return [2]party.DeckOutput{party.NewClockOutput(), party.NewClockOutput()}
}

// runTickLoop drives the engine scheduler and pushes a status snapshot to the
// feed after every tick.
func runTickLoop(ctx context.Context, cfg *config.Config, engine *party.Engine, hub *PartyHub) {
	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			engine.Tick(ctx, now)
			if hub.ClientCount() > 0 {
				hub.BroadcastFeed("status", engine.Status())
			}
		}
	}
}

// forwardEvents re-broadcasts engine events and persists the queue position
// whenever a new track starts.
func forwardEvents(ctx context.Context, events <-chan party.Event, engine *party.Engine, hub *PartyHub) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			hub.BroadcastFeed("event", ev)
			if ev.Type == party.EventTrackStarted {
				if err := cache.SaveNowPlayingIndex(ctx, engine.Status().NowPlayingIndex); err != nil {
					logger.Warn("failed to persist queue index", logger.ErrorField(err))
				}
			}
		}
	}
}

// restoreQueue reloads the party queue saved by a previous run. Playback is
// not resumed automatically; the queue just survives the restart.
func restoreQueue(ctx context.Context, engine *party.Engine) {
	ids, err := cache.LoadQueue(ctx)
	if err != nil {
		logger.Warn("failed to restore party queue", logger.ErrorField(err))
		return
	}
	if len(ids) == 0 {
		return
	}
	index, err := cache.LoadNowPlayingIndex(ctx)
	if err != nil {
		index = 0
	}
	engine.SetQueue(ids, index)
	logger.Info("party queue restored",
		logger.Int("tracks", len(ids)), logger.Int("nowPlayingIndex", index))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Creating directory: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
