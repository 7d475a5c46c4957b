package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlomkt/codisec-itca/internal/auth"
	"github.com/carlomkt/codisec-itca/internal/httpapi"
	"github.com/carlomkt/codisec-itca/internal/obs"
	"github.com/carlomkt/codisec-itca/internal/resource"
	"github.com/carlomkt/codisec-itca/internal/store/pg"
)

var version = "1.0.0"

func main() {
	obs.Init()

	var (
		authStore     auth.Store
		resourceStore resource.Store
		probe         httpapi.ReadyProbe
	)

	dsn := os.Getenv("CODISEC_PG_DSN")
	if dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()
		authStore = store
		resourceStore = store
		probe = httpapi.ReadyProbe{DB: store.DB()}
	} else {
		// Without a DSN the portal runs fully in memory, which is enough
		// for local frontend development.
		log.Println("CODISEC_PG_DSN not set, using in-memory stores")
		authStore = auth.NewMemoryStore()
		resourceStore = resource.NewMemoryStore()
	}

	directory, err := auth.NewDirectory(authStore)
	if err != nil {
		log.Fatalf("directory: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := directory.EnsureBuiltins(ctx); err != nil {
		cancel()
		log.Fatalf("ensure permissions: %v", err)
	}
	cancel()

	addr := os.Getenv("CODISEC_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	uploadDir := os.Getenv("CODISEC_UPLOAD_DIR")
	if uploadDir != "" {
		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			log.Fatalf("upload dir: %v", err)
		}
	}

	api := httpapi.New(httpapi.Options{
		Directory:  directory,
		Resources:  resourceStore,
		ReadyProbe: probe,
		UploadDir:  uploadDir,
		Version:    version,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting codisec-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Println("Stopped")
}
