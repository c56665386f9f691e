// Command pepmap-server provides a REST API for mapping peptides and
// sequence tags onto a protein database.
//
// Usage:
//
//	pepmap-server --fasta proteins.fasta [options]
//
// Options:
//
//	--settings  YAML settings file
//	--fasta     Protein FASTA database
//	--decoys    Index reversed decoys
//	--port      Port to listen on (default: 8080)
//	--host      Host to bind to (default: 0.0.0.0)
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aria-lang/pepmap-go/api/handlers"
	"github.com/aria-lang/pepmap-go/api/middleware"
	"github.com/aria-lang/pepmap-go/internal/config"
	"github.com/aria-lang/pepmap-go/pkg/pepmap"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	settings     = viper.New()
	settingsFile string
)

var rootCmd = &cobra.Command{
	Use:          "pepmap-server",
	Short:        "Serve peptide and sequence tag mapping over HTTP",
	Version:      pepmap.Version(),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsFile != "" {
			settings.SetConfigFile(settingsFile)
			if err := settings.ReadInConfig(); err != nil {
				return &config.Error{Key: "file", Err: err}
			}
		}
		cfg, err := config.New(settings)
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	config.SetDefaults(settings)

	flags := rootCmd.Flags()
	flags.StringVar(&settingsFile, "settings", "", "YAML settings file")
	flags.StringP("fasta", "f", "", "protein FASTA database")
	flags.Bool("decoys", false, "index reversed decoy proteins")
	flags.String("host", "", "host to bind to")
	flags.IntP("port", "p", 0, "port to listen on")
	flags.IntP("workers", "w", 0, "queries of a request mapped in parallel")

	for flag, key := range map[string]string{
		"fasta":   "fasta",
		"decoys":  "decoys",
		"host":    "server.host",
		"port":    "server.port",
		"workers": "search.workers",
	} {
		if err := settings.BindPFlag(key, flags.Lookup(flag)); err != nil {
			log.Fatalf("failed to bind flag %s: %v", flag, err)
		}
	}
	settings.SetEnvPrefix("pepmap")
	settings.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	settings.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildIndex(cfg config.Config) (*pepmap.Index, error) {
	if cfg.FASTA == "" {
		return nil, fmt.Errorf("no FASTA database given, use --fasta")
	}
	start := time.Now()
	proteins, err := pepmap.LoadFASTA(cfg.FASTA)
	if err != nil {
		return nil, err
	}
	idx, err := pepmap.BuildIndex(context.Background(), proteins, pepmap.IndexOptions{
		Decoys:     cfg.Decoys,
		DecoyTag:   cfg.DecoyTag,
		SampleRate: cfg.Search.SampleRate,
		Progress: func(stage string, done, total int) {
			log.Printf("Indexing %s: %s (%d/%d)", cfg.FASTA, stage, done, total)
		},
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Indexed %s proteins (%s) in %s",
		humanize.Comma(int64(len(idx.Corpus().Entries()))),
		humanize.Bytes(uint64(idx.SizeBytes())),
		time.Since(start).Round(time.Millisecond))
	return idx, nil
}

func serve(cfg config.Config) error {
	idx, err := buildIndex(cfg)
	if err != nil {
		return err
	}
	api, err := handlers.NewServer(idx, cfg)
	if err != nil {
		return err
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Mount("/", api.Routes())

	addr := cfg.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Could not gracefully shutdown: %v\n", err)
		}
		close(done)
	}()

	log.Printf("pepmap API server starting on http://%s\n", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}

	<-done
	log.Println("Server stopped")
	return nil
}
