package main

import (
	"fmt"
	"os"

	"github.com/aria-lang/pepmap-go/pkg/pepmap"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// indexCmd builds the index of a database and reports on it.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the index of a FASTA database and show its statistics",
	Long: `Build the FM-index of a FASTA database, with reversed decoys when asked,
and write its statistics to the stdout.`,
	Example: "  pepmap index --fasta uniprot.fasta --decoys",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		idx, err := loadIndex(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		st, err := pepmap.Stats(idx)
		if err != nil {
			return err
		}

		fmt.Println(st)
		fmt.Printf("Index size: %s\n", humanize.Bytes(uint64(st.SizeBytes)))

		if writeFASTA != "" {
			return writeDatabase(writeFASTA, cfg.FASTA, cfg.DecoyTag, cfg.Decoys)
		}
		return nil
	},
}

var writeFASTA string

func init() {
	indexCmd.Flags().StringVar(&writeFASTA, "write-fasta", "", "write the target and decoy database to a FASTA file")
	rootCmd.AddCommand(indexCmd)
}

// writeDatabase writes the proteins of the database, followed by their
// decoys when asked, to filename.
func writeDatabase(filename, database, decoyTag string, decoys bool) error {
	proteins, err := pepmap.LoadFASTA(database)
	if err != nil {
		return err
	}
	if decoys {
		proteins = append(proteins, pepmap.Decoys(proteins, decoyTag)...)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := pepmap.WriteFASTA(f, proteins); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
