package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"nia-content-studio/modules/assets"
	"nia-content-studio/modules/common/config"
	"nia-content-studio/modules/common/database"
	"nia-content-studio/modules/common/logger"
	"nia-content-studio/modules/common/media"
	"nia-content-studio/modules/common/queue"
	"nia-content-studio/modules/common/response"
	"nia-content-studio/modules/common/storage"
	"nia-content-studio/modules/common/vertexai"
	"nia-content-studio/modules/generate"
	"nia-content-studio/modules/templates"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"project": cfg.ProjectName,
		})
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}
	defer logg.Sync()

	ctx := context.Background()

	genaiClient, err := vertexai.NewClient(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("❌ Failed to initialize GenAI client", "error", err)
	}

	st, err := storage.New(ctx, cfg.GCSBucketName, cfg.CredentialsFile, logg)
	if err != nil {
		logg.Fatal("❌ Failed to initialize storage client", "error", err)
	}

	db, err := database.New(cfg.SupabaseURL, cfg.SupabaseKey, logg)
	if err != nil {
		logg.Fatal("❌ Failed to initialize Supabase client", "error", err)
	}

	// The queue alone degrades instead of failing fast: requests that do
	// not publish still work, and the batch endpoint reports an empty
	// message id.
	publisher := queue.Unavailable()
	var subscriber *queue.Subscriber
	queueClient, err := queue.Connect(ctx, cfg.GoogleCloudProject, cfg.CredentialsFile, logg)
	if err != nil {
		logg.Warn("⚠️ Queue unavailable, publishing disabled", "error", err)
	} else {
		publisher = queue.NewPublisher(queueClient, cfg.PubSubTopicName, logg)
		if cfg.PubSubSubscriptionName != "" {
			subscriber = queue.NewSubscriber(queueClient, cfg.PubSubSubscriptionName, logg)
		}
	}

	pipeline := media.NewPipeline(st, db, logg)
	genService := generate.NewService(genaiClient, st, pipeline, cfg, logg)
	assetService := assets.NewService(pipeline, db, st, logg)
	templateService := templates.NewService(db, st, logg)

	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck(cfg)).Methods("GET")
	r.HandleFunc("/health", healthCheck(cfg)).Methods("GET")

	api := r.PathPrefix("/generate").Subrouter()
	generate.NewHandler(genService, assetService, db, publisher, logg).RegisterRoutes(api)
	templates.NewHandler(templateService, logg).RegisterRoutes(api)
	assets.NewHandler(assetService, logg).RegisterRoutes(api)

	if subscriber != nil {
		worker := generate.NewWorker(genService, subscriber, logg)
		go worker.Start(ctx)
	}

	if cfg.OrphanSweepMinutes > 0 {
		reconciler := assets.NewReconciler(db, st,
			time.Duration(cfg.OrphanSweepMinutes)*time.Minute, logg)
		go reconciler.Start(ctx)
	}

	logg.Info("🚀 Server starting",
		"project", cfg.ProjectName, "version", cfg.Version, "port", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		logg.Fatal("❌ Server failed", "error", err)
	}
}
