package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/jun/babymemories/internal/app"
	"github.com/jun/babymemories/internal/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	logging.Setup(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	application := app.NewApp(context.Background(), app.LoadConfig())

	r := mux.NewRouter()
	r.PathPrefix("/api/").Handler(application)
	r.PathPrefix("/").Handler(spaHandler{root: envOr("STATIC_DIR", "dist")})

	addr := ":" + envOr("PORT", "8080")
	srv := &http.Server{
		Handler:           r,
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	slog.Info("Starting local server", "addr", addr)
	log.Fatal(srv.ListenAndServe())
}

// spaHandler serves the built frontend and falls back to index.html for
// client-side routes.
type spaHandler struct {
	root string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.root, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		http.ServeFile(w, r, filepath.Join(h.root, "index.html"))
		return
	}
	http.FileServer(http.Dir(h.root)).ServeHTTP(w, r)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
