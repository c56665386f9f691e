package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aria-lang/pepmap-go/internal/mapping"
	"github.com/aria-lang/pepmap-go/pkg/pepmap"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	inputFile  string
	outputJSON bool
	expand     bool
)

// peptideCmd maps peptides onto the database.
var peptideCmd = &cobra.Command{
	Use:   "peptide [peptide...]",
	Short: "Map peptides onto a protein database",
	Long: `Map peptides onto the proteins of a FASTA database. Peptides are read from
the arguments or, with --input, one per line from a file ("-" for the stdin).
Each mapping is written as a tab separated row to the stdout.`,
	Example: `  pepmap peptide --fasta uniprot.fasta PEPTIDE ELVISLIVES
  pepmap peptide -f uniprot.fasta --variants specific --max-substitutions 1 --input peptides.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMapping(cmd.Context(), args, pepmap.MapPeptides)
	},
}

// tagCmd maps sequence tags onto the database.
var tagCmd = &cobra.Command{
	Use:   "tag [tag...]",
	Short: "Map sequence tags onto a protein database",
	Long: `Map sequence tags onto the proteins of a FASTA database. A tag interleaves
residues with mass gaps in angle brackets, like "<120.05>PEPT<0>", and
residues may declare a modification in parentheses.`,
	Example: `  pepmap tag --fasta uniprot.fasta --tolerance 10 --unit ppm "<259.1354>TAYIAK"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMapping(cmd.Context(), args, pepmap.MapTags)
	},
}

func init() {
	for _, c := range []*cobra.Command{peptideCmd, tagCmd} {
		c.Flags().StringVarP(&inputFile, "input", "i", "", `file of queries, one per line ("-" for the stdin)`)
		c.Flags().BoolVar(&outputJSON, "json", false, "write mappings as JSON")
		rootCmd.AddCommand(c)
	}
	peptideCmd.Flags().BoolVar(&expand, "expand", false, "expand B, J and Z residues into concrete peptides")
}

type mapFunc func(ctx context.Context, s *pepmap.Searcher, queries []string, workers int) []pepmap.Result

func runMapping(ctx context.Context, args []string, mapAll mapFunc) error {
	queries, err := readQueries(args, inputFile)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return errors.New("no queries given")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	searchSettings, err := cfg.Settings()
	if err != nil {
		return err
	}
	idx, err := loadIndex(ctx, cfg)
	if err != nil {
		return err
	}
	searcher, err := pepmap.NewSearcher(idx, searchSettings)
	if err != nil {
		return err
	}

	start := time.Now()
	results := mapAll(ctx, searcher, queries, cfg.Search.Workers)
	if err := ctx.Err(); err != nil {
		return err
	}

	failed, total := 0, 0
	for i := range results {
		res := &results[i]
		switch {
		case errors.Is(res.Err, pepmap.ErrPathLimit):
			log.Printf("WARN: %q: %v, mappings are incomplete", res.Query, res.Err)
		case res.Err != nil:
			log.Printf("WARN: %q: %v", res.Query, res.Err)
			failed++
		}
		if expand {
			var skipped int
			res.Mappings, skipped = mapping.ExpandCombinations(res.Mappings)
			if skipped > 0 {
				log.Printf("WARN: %q: %d mappings hold more than %d combinations and were not expanded",
					res.Query, skipped, mapping.MaxExpansions)
			}
		}
		total += len(res.Mappings)
	}

	if outputJSON {
		err = writeJSON(os.Stdout, results)
	} else {
		err = writeTSV(os.Stdout, results)
	}
	if err != nil {
		return err
	}

	if !quiet {
		log.Printf("mapped %s queries to %s mappings in %s",
			humanize.Comma(int64(len(queries))), humanize.Comma(int64(total)),
			time.Since(start).Round(time.Millisecond))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d queries failed", failed, len(queries))
	}
	return nil
}

// readQueries returns args followed by the non-blank lines of filename.
func readQueries(args []string, filename string) ([]string, error) {
	queries := append([]string(nil), args...)
	if filename == "" {
		return queries, nil
	}

	var r io.Reader = os.Stdin
	if filename != "-" {
		f, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open queries: %w", err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	return queries, nil
}

func writeTSV(w io.Writer, results []pepmap.Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "query\tpeptide\taccession\tindex\tdecoy\tmodifications\tvariants")
	for _, res := range results {
		for _, m := range res.Mappings {
			fmt.Fprintf(bw, "%s\t%s\t%s\t%d\t%t\t%s\t%s\n",
				res.Query, m.Peptide, m.Accession, m.Index, m.Decoy,
				formatModifications(m), formatVariants(m))
		}
	}
	return bw.Flush()
}

func formatModifications(m pepmap.Mapping) string {
	var parts []string
	for _, s := range m.FixedModifications {
		parts = append(parts, fmt.Sprintf("%s@%d", s.ID, s.Site))
	}
	for _, s := range m.Modifications {
		parts = append(parts, fmt.Sprintf("%s@%d", s.ID, s.Site))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ";")
}

func formatVariants(m pepmap.Mapping) string {
	sites := m.VariantSites()
	if len(sites) == 0 {
		return "-"
	}
	parts := make([]string, len(sites))
	for i, site := range sites {
		parts[i] = fmt.Sprintf("%s@%d", m.Variants[site], site)
	}
	return strings.Join(parts, ";")
}

type jsonResult struct {
	Query    string           `json:"query"`
	Mappings []pepmap.Mapping `json:"mappings"`
	Error    string           `json:"error,omitempty"`
}

func writeJSON(w io.Writer, results []pepmap.Result) error {
	out := make([]jsonResult, len(results))
	for i, res := range results {
		out[i] = jsonResult{Query: res.Query, Mappings: res.Mappings}
		if out[i].Mappings == nil {
			out[i].Mappings = []pepmap.Mapping{}
		}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
