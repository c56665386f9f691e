// Command pepmap maps peptides and sequence tags onto a protein database.
//
// Usage:
//
//	pepmap [command] [options]
//
// Commands:
//
//	index       Build the index of a FASTA database and show its statistics
//	peptide     Map peptides
//	tag         Map sequence tags
//	proteins    Show statistics of a FASTA database
//	mass        Calculate peptide masses
//	version     Show version information
package main

func main() {
	Execute()
}
