package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/aria-lang/pepmap-go/internal/modification"
	"github.com/aria-lang/pepmap-go/internal/sequence"
	"github.com/aria-lang/pepmap-go/internal/stats"
	"github.com/go-chi/chi/v5"
)

// ProteinResponse represents one indexed protein.
type ProteinResponse struct {
	Accession   string   `json:"accession"`
	Description string   `json:"description,omitempty"`
	Sequence    string   `json:"sequence"`
	Length      int      `json:"length"`
	Mass        *float64 `json:"mass,omitempty"`
	Decoy       bool     `json:"decoy,omitempty"`
}

// ProteinHandler handles GET /api/protein/{accession}.
func (s *Server) ProteinHandler(w http.ResponseWriter, r *http.Request) {
	accession := chi.URLParam(r, "accession")
	entry, ok := s.index.Entry(accession)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown accession %q", accession))
		return
	}
	residues, _ := s.index.Sequence(accession)

	resp := ProteinResponse{
		Accession:   entry.Accession,
		Description: entry.Header,
		Sequence:    residues,
		Length:      entry.Length,
		Decoy:       entry.Decoy,
	}
	if m, ok := sequence.PeptideMass(residues); ok {
		resp.Mass = &m
	}
	writeJSON(w, http.StatusOK, resp)
}

// AccessionsResponse lists indexed accessions.
type AccessionsResponse struct {
	Accessions []string `json:"accessions"`
	Count      int      `json:"count"`
}

// AccessionsHandler handles GET /api/proteins. Decoys are left out unless
// the decoys query parameter is true.
func (s *Server) AccessionsHandler(w http.ResponseWriter, r *http.Request) {
	withDecoys := false
	if v := r.URL.Query().Get("decoys"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid decoys parameter %q", v))
			return
		}
		withDecoys = b
	}

	accessions := make([]string, 0)
	for _, e := range s.index.Corpus().Entries() {
		if e.Decoy && !withDecoys {
			continue
		}
		accessions = append(accessions, e.Accession)
	}
	writeJSON(w, http.StatusOK, AccessionsResponse{Accessions: accessions, Count: len(accessions)})
}

// StatsResponse represents index statistics.
type StatsResponse struct {
	Proteins      int     `json:"proteins"`
	Decoys        int     `json:"decoys"`
	TotalResidues int     `json:"total_residues"`
	MinLength     int     `json:"min_length"`
	MaxLength     int     `json:"max_length"`
	MeanLength    float64 `json:"mean_length"`
	MedianLength  int     `json:"median_length"`
	N50           int     `json:"n50"`
	Wildcards     int     `json:"wildcards"`
	TextLength    int     `json:"text_length"`
	Alphabet      string  `json:"alphabet"`
	SampleRate    int     `json:"sample_rate"`
	SizeBytes     int     `json:"size_bytes"`
	Settings      string  `json:"settings"`
}

// StatsHandler handles GET /api/index/stats.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	st, err := stats.FromIndex(s.index)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	p := st.Proteins
	writeJSON(w, http.StatusOK, StatsResponse{
		Proteins:      p.Count,
		Decoys:        p.Decoys,
		TotalResidues: p.TotalResidues,
		MinLength:     p.MinLength,
		MaxLength:     p.MaxLength,
		MeanLength:    p.MeanLength,
		MedianLength:  p.MedianLength,
		N50:           p.N50,
		Wildcards:     p.TotalWildcards,
		TextLength:    st.TextLength,
		Alphabet:      st.Alphabet,
		SampleRate:    st.SampleRate,
		SizeBytes:     st.SizeBytes,
		Settings:      s.searcher.Settings().String(),
	})
}

// ModificationsHandler handles GET /api/modifications: the modifications
// requests may select by identifier.
func (s *Server) ModificationsHandler(w http.ResponseWriter, r *http.Request) {
	defs := s.resources.Library.Definitions()
	if defs == nil {
		defs = []modification.Definition{}
	}
	writeJSON(w, http.StatusOK, defs)
}
