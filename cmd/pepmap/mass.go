package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/sequence"
	"github.com/spf13/cobra"
)

// massCmd prints the monoisotopic masses of peptides.
var massCmd = &cobra.Command{
	Use:   "mass <peptide...>",
	Short: "Calculate peptide masses",
	Long: `Calculate the neutral monoisotopic mass of peptides. Fixed modifications
given with --fixed are applied wherever they match, with the peptide
termini as the only termini.`,
	Example: `  pepmap mass --fixed "Carbamidomethylation of C" PEPTCIDE`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		searchSettings, err := cfg.Settings()
		if err != nil {
			return err
		}
		for _, arg := range args {
			line, err := peptideMass(strings.ToUpper(strings.TrimSpace(arg)), searchSettings.Catalog)
			if err != nil {
				return err
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(massCmd)
}

// peptideMass formats the mass of peptide with the fixed modifications of
// catalog applied.
func peptideMass(peptide string, catalog *modification.Catalog) (string, error) {
	if err := sequence.ValidateResidues(peptide); err != nil {
		return "", err
	}
	class := func(i int) modification.PositionClass {
		return modification.PositionClass{PeptideNTerm: i == 0, PeptideCTerm: i == len(peptide)-1}
	}

	sites := catalog.Annotate(peptide, class)
	deltas := make([]float64, 0, len(sites))
	ids := make([]string, 0, len(sites))
	for _, s := range sites {
		m, ok := catalog.Lookup(s.ID)
		if !ok {
			return "", fmt.Errorf("unknown modification %q", s.ID)
		}
		deltas = append(deltas, m.Mass)
		ids = append(ids, fmt.Sprintf("%s@%d", s.ID, s.Site))
	}

	mass, ok := sequence.PeptideMass(peptide, deltas...)
	if !ok {
		return "", errors.New(peptide + ": combination or wildcard residues have no mass")
	}
	mods := "-"
	if len(ids) > 0 {
		mods = strings.Join(ids, ";")
	}
	return peptide + "\t" + formatMass(mass) + "\t" + mods, nil
}

func formatMass(m float64) string {
	return fmt.Sprintf("%.6f", m)
}
