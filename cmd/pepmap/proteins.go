package main

import (
	"fmt"

	"github.com/aria-lang/pepmap-go/internal/stats"
	"github.com/aria-lang/pepmap-go/pkg/pepmap"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	histogramBins int
	perProtein    bool
)

// proteinsCmd summarizes a FASTA database without indexing it.
var proteinsCmd = &cobra.Command{
	Use:     "proteins",
	Short:   "Show statistics of a FASTA database",
	Example: "  pepmap proteins --fasta uniprot.fasta --bins 20",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.FASTA == "" {
			return fmt.Errorf("no FASTA database given, use --fasta")
		}
		proteins, err := pepmap.LoadFASTA(cfg.FASTA)
		if err != nil {
			return err
		}

		set, err := stats.FromProteins(proteins)
		if err != nil {
			return err
		}
		fmt.Println(set)
		fmt.Printf("Total residues: %s\n", humanize.Comma(int64(set.TotalResidues)))

		if histogramBins > 0 {
			h, err := stats.NewLengthHistogram(proteins, histogramBins)
			if err != nil {
				return err
			}
			fmt.Print(h)
		}
		if perProtein {
			for _, p := range proteins {
				fmt.Println(stats.FromProtein(p))
			}
		}
		return nil
	},
}

// versionCmd prints details of the build.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(pepmap.Info())
	},
}

func init() {
	proteinsCmd.Flags().IntVar(&histogramBins, "bins", 10, "length histogram bins, 0 to skip")
	proteinsCmd.Flags().BoolVar(&perProtein, "each", false, "show statistics of every protein")
	rootCmd.AddCommand(proteinsCmd, versionCmd)
}
