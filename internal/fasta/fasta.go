// Package fasta reads protein FASTA files into validated proteins.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aria-lang/pepmap-go/internal/sequence"
)

const maxLine = 64 * 1024 * 1024

// Read reads proteins from a FASTA file.
func Read(filename string) ([]*sequence.Protein, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse parses protein FASTA from a reader.
func Parse(r io.Reader) ([]*sequence.Protein, error) {
	proteins := make([]*sequence.Protein, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var accession, header string
	var residues strings.Builder
	lineNum := 0

	flush := func() error {
		if accession == "" && residues.Len() == 0 {
			return nil
		}
		p, err := sequence.New(accession, header, residues.String())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		proteins = append(proteins, p)
		residues.Reset()
		return nil
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}

		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			accession, header = ParseHeader(line[1:])
			if accession == "" {
				return nil, fmt.Errorf("line %d: %w", lineNum, &sequence.MissingAccessionError{})
			}
			continue
		}
		if accession == "" {
			return nil, fmt.Errorf("line %d: sequence data before first header", lineNum)
		}
		// trailing stop codons are common in translated databases
		residues.WriteString(strings.TrimRight(line, "*"))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return proteins, nil
}

// ParseHeader splits a FASTA header line (without '>') into accession and
// description. UniProt style identifiers (db|accession|entry) yield the
// middle field.
func ParseHeader(line string) (accession, description string) {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
	id := parts[0]
	if len(parts) > 1 {
		description = strings.TrimSpace(parts[1])
	}

	fields := strings.Split(id, "|")
	if len(fields) >= 3 && (fields[0] == "sp" || fields[0] == "tr") {
		return fields[1], description
	}
	return id, description
}

// Write writes proteins to w in FASTA format.
func Write(w io.Writer, proteins []*sequence.Protein) error {
	for _, p := range proteins {
		if _, err := io.WriteString(w, p.ToFASTA()); err != nil {
			return fmt.Errorf("writing protein %s: %w", p.Accession, err)
		}
	}
	return nil
}
