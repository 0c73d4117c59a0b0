package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jaeyoon-oh/rarebooks/cache"
	"github.com/jaeyoon-oh/rarebooks/config"
	"github.com/jaeyoon-oh/rarebooks/handlers"
	"github.com/jaeyoon-oh/rarebooks/middleware"
	"github.com/jaeyoon-oh/rarebooks/service"
	"github.com/jaeyoon-oh/rarebooks/store"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}
	if err := cfg.Validate(); err != nil {
		if cfg.Store != "memory" {
			log.Fatal("config:", err)
		}
		log.Println("warning:", err)
	}

	ctx := context.Background()

	var books store.BookRepository
	var db *store.DB
	if cfg.Store == "memory" {
		log.Println("using in-memory store (STORE=memory); data is not persisted")
		books = store.NewMemoryStore()
	} else {
		db, err = store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			log.Fatal("mongodb:", err)
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				log.Println("mongodb disconnect:", err)
			}
		}()
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal("schema migration:", err)
		}
		books = store.NewBookStore(db)
	}

	var archive *service.CoverArchive
	if cfg.S3Bucket != "" {
		archive, err = service.NewCoverArchive(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.Fatal("s3:", err)
		}
	} else {
		log.Println("warning: AWS_S3_BUCKET not set; uploaded covers are kept inline only")
	}

	var extractor handlers.CoverExtractor
	if cfg.GeminiAPIKey != "" {
		extractor = service.NewExtractor(cfg.GeminiAPIKey)
	} else {
		log.Println("warning: GEMINI_API_KEY not set; adding books will fail")
	}

	recommender := &service.Recommender{
		Providers: []service.AuthorSearcher{
			service.NewOpenLibraryClient(cfg.ProviderTimeout),
			service.NewGoogleBooksClient(cfg.ProviderTimeout),
		},
	}
	if cfg.RedisAddr != "" {
		related, err := cache.NewRedisCache(cfg.RedisAddr, time.Hour)
		if err != nil {
			log.Fatal("redis:", err)
		}
		defer related.Close()
		recommender.Cache = related
	}

	authHandler := &handlers.AuthHandler{
		DB:         db,
		JWTSecret:  cfg.JWTSecret,
		AdminEmail: cfg.AdminEmail,
		AdminPass:  cfg.AdminPass,
	}
	booksHandler := &handlers.BooksHandler{
		Books:       books,
		Recommender: recommender,
	}
	adminHandler := &handlers.AdminHandler{
		Books:     books,
		Extractor: extractor,
		Archive:   archive,
		MaxBytes:  cfg.MaxUploadMB * 1024 * 1024,
	}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(rate.Limit(10), 20))

		r.Post("/auth/login", authHandler.Login)

		r.Get("/books", booksHandler.List)
		r.Get("/books/{id}", booksHandler.Get)
		r.Get("/books/{id}/cover", booksHandler.Cover)
		r.Get("/books/{id}/related", booksHandler.Related)
		r.Post("/books/{id}/purchase", booksHandler.Purchase)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Post("/books", adminHandler.Create)
			r.Put("/books/{id}", adminHandler.Update)
			r.Delete("/books/{id}", adminHandler.Delete)
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}
