package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ahamlinman/tilehost/internal/assets"
	"github.com/ahamlinman/tilehost/internal/livereload"
	"github.com/ahamlinman/tilehost/internal/tiles"
)

var (
	flagAddr     = flag.String("addr", ":8000", "Address to serve HTTP requests on")
	flagRoot     = flag.String("root", ".", "Project root directory containing the public directory")
	flagPublic   = flag.String("public", "public", "Name of the public directory under the project root")
	flagIndex    = flag.String("index", "index.html", "Document under the public directory served for /")
	flagNoCache  = flag.Bool("no-cache", true, "Forbid clients from caching any response")
	flagRate     = flag.Int("rate-limit", 0, "Per-response throughput limit for tile archives in bytes per second (0 for unlimited)")
	flagReload   = flag.Bool("livereload", false, "Notify clients of tile archive changes at "+livereloadPath)
	flagInterval = flag.Duration("livereload-interval", 2*time.Second, "How often to scan for tile archive changes")
)

const livereloadPath = "/_livereload"

func main() {
	flag.Parse()

	root, err := filepath.Abs(*flagRoot)
	if err != nil {
		log.Fatalf("Invalid project root: %v", err)
	}
	if *flagReload && *flagInterval <= 0 {
		log.Fatalf("Invalid -livereload-interval %v: must be positive", *flagInterval)
	}
	if info, err := os.Stat(filepath.Join(root, *flagPublic)); err != nil || !info.IsDir() {
		log.Printf("Warning: public directory %q not found under %s", *flagPublic, root)
	}

	cfg := tiles.Config{
		Root:      root,
		PublicDir: *flagPublic,
		Index:     *flagIndex,
		NoCache:   *flagNoCache,
		RateLimit: *flagRate,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/", tiles.NewHandler(cfg, assets.NewHandler(os.DirFS(root))))

	if *flagReload {
		publicFS := os.DirFS(filepath.Join(root, *flagPublic))
		poller := livereload.NewPoller(publicFS, *flagPublic, tiles.ArchiveExt)
		go func() {
			if err := poller.Run(ctx, *flagInterval); err != nil {
				log.Printf("Live reload stopped: %v", err)
			}
		}()
		mux.Handle(livereloadPath, tiles.WithPolicyHeaders(livereload.NewHandler(poller), cfg.NoCache))
		log.Printf("Live reload enabled at %s", livereloadPath)
	}

	server := &http.Server{
		Addr:    *flagAddr,
		Handler: mux,
		// Bodies are streamed without a deadline, so only the request header is
		// subject to a timeout.
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Print("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown incomplete: %v", err)
			server.Close()
		}
	}()

	log.Printf("Serving %s on %s", filepath.Join(root, *flagPublic), *flagAddr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Print("Server stopped")
}
