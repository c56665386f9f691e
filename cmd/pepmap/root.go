package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aria-lang/pepmap-go/internal/config"
	"github.com/aria-lang/pepmap-go/pkg/pepmap"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var (
	settings = viper.New()

	settingsFile string

	quiet bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pepmap",
	Short: "Map peptides and sequence tags onto a protein database",
	Long: `Map peptides and mass spectrometry sequence tags onto the proteins of a
FASTA database. Matching tolerates residue ambiguity, modifications and
sequence variants.`,
	Version:       pepmap.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("%v", err)
	}
}

func init() {
	log.SetFlags(0)
	config.SetDefaults(settings)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsFile, "settings", "", "YAML settings file")
	flags.BoolVarP(&quiet, "quiet", "q", false, "hide progress output")

	flags.StringP("fasta", "f", "", "protein FASTA database")
	flags.Bool("decoys", false, "index reversed decoy proteins")
	flags.String("decoy-tag", "", "accession suffix of decoys")
	flags.Int("sample-rate", 0, "suffix array sampling distance")

	flags.StringP("matching", "m", "", "matching type: string, amino-acid or indistinguishable")
	flags.Float64("limit-x", 0, "share of peptide residues corpus X may match")
	flags.Float64("tolerance", 0, "mass tolerance")
	flags.String("unit", "", "tolerance unit: da or ppm")
	flags.StringSlice("fixed", nil, "fixed modification identifiers")
	flags.StringSlice("variable", nil, "variable modification identifiers")
	flags.String("catalog", "", "YAML modification catalog merged over the built-in one")

	flags.String("variants", "", "variant type: none, generic, specific or fixed")
	flags.Int("max-total", 0, "generic variant budget")
	flags.Int("max-substitutions", 0, "specific substitution budget")
	flags.Int("max-insertions", 0, "specific insertion budget")
	flags.Int("max-deletions", 0, "specific deletion budget")
	flags.String("matrix", "", `allowed substitutions: all, single-base or a list like "A>G,D>E"`)
	flags.String("variant-table", "", "TSV of fixed variants")

	flags.Int("max-paths", 0, "search paths explored per query")
	flags.IntP("workers", "w", 0, "queries mapped in parallel")

	bind := map[string]string{
		"fasta":             "fasta",
		"decoys":            "decoys",
		"decoy-tag":         "decoy-tag",
		"sample-rate":       "search.sample-rate",
		"matching":          "matching.type",
		"limit-x":           "matching.limit-x",
		"tolerance":         "tolerance.value",
		"unit":              "tolerance.unit",
		"fixed":             "modifications.fixed",
		"variable":          "modifications.variable",
		"catalog":           "modifications.catalog",
		"variants":          "variants.type",
		"max-total":         "variants.max-total",
		"max-substitutions": "variants.max-substitutions",
		"max-insertions":    "variants.max-insertions",
		"max-deletions":     "variants.max-deletions",
		"matrix":            "variants.matrix",
		"variant-table":     "variants.table",
		"max-paths":         "search.max-paths",
		"workers":           "search.workers",
	}
	for flag, key := range bind {
		if err := settings.BindPFlag(key, flags.Lookup(flag)); err != nil {
			log.Fatalf("failed to bind flag %s: %v", flag, err)
		}
	}

	settings.SetEnvPrefix("pepmap")
	settings.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	settings.AutomaticEnv()
}

// loadConfig reads the settings file, when given, under the command line
// flags.
func loadConfig() (config.Config, error) {
	if settingsFile != "" {
		settings.SetConfigFile(settingsFile)
		if err := settings.ReadInConfig(); err != nil {
			return config.Config{}, &config.Error{Key: "file", Err: err}
		}
	}
	return config.New(settings)
}

// loadIndex reads the configured FASTA database and builds its index.
func loadIndex(ctx context.Context, cfg config.Config) (*pepmap.Index, error) {
	if cfg.FASTA == "" {
		return nil, fmt.Errorf("no FASTA database given, use --fasta")
	}
	start := time.Now()
	proteins, err := pepmap.LoadFASTA(cfg.FASTA)
	if err != nil {
		return nil, err
	}

	progress, done := progressBar()
	idx, err := pepmap.BuildIndex(ctx, proteins, pepmap.IndexOptions{
		Decoys:     cfg.Decoys,
		DecoyTag:   cfg.DecoyTag,
		SampleRate: cfg.Search.SampleRate,
		Progress:   progress,
	})
	done(err == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", cfg.FASTA, err)
	}

	if !quiet {
		log.Printf("indexed %s proteins (%s text symbols, %s) in %s",
			humanize.Comma(int64(len(idx.Corpus().Entries()))),
			humanize.Comma(int64(idx.Len())),
			humanize.Bytes(uint64(idx.SizeBytes())),
			time.Since(start).Round(time.Millisecond))
	}
	return idx, nil
}

// progressBar returns an index build progress hook drawing to stderr and a
// function that finishes the bar.
func progressBar() (func(stage string, done, total int), func(ok bool)) {
	if quiet {
		return nil, func(bool) {}
	}

	var stage atomic.Value
	stage.Store("")
	p := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	var bar *mpb.Bar

	progress := func(name string, done, total int) {
		if bar == nil {
			bar = p.AddBar(int64(total),
				mpb.PrependDecorators(
					decor.Name("indexing: ", decor.WC{W: len("indexing: "), C: decor.DindentRight}),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Any(func(decor.Statistics) string { return stage.Load().(string) }),
					decor.OnComplete(decor.Name(""), " done"),
				),
			)
		}
		stage.Store(name)
		bar.SetCurrent(int64(done))
	}
	finish := func(ok bool) {
		if bar != nil && !ok {
			bar.Abort(false)
		}
		p.Wait()
	}
	return progress, finish
}
