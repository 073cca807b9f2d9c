// wallquant serves the wall quantity-takeoff API: drawing import,
// segment categorization, parallel-wall merge consolidation, and
// summary export, backed by a sqlite database.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/takeoff-data/wallquant/internal/api"
	"github.com/takeoff-data/wallquant/internal/db"
	"github.com/takeoff-data/wallquant/internal/version"
)

var (
	listen = flag.String("listen", ":8080", "Listen address")
	dbFile = flag.String("db", "wallquant.db", "Path to the takeoff database")
)

func main() {
	flag.Parse()

	// "wallquant migrate up" and friends run against the database and
	// exit without starting the server.
	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], *dbFile)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// admin debugging routes (tailsql console and backup download)
		database.AttachAdminRoutes(mux, "wallquant")

		mux.Handle("/api/", api.NewServer(database).ServeMux())

		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			io.WriteString(w, "wallquant takeoff server\n")
		})

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("wallquant %s (%s) listening on %s (db %s)",
				version.Version, version.GitSHA, *listen, *dbFile)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
