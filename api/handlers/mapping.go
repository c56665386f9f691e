package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aria-lang/pepmap-go/internal/config"
	"github.com/aria-lang/pepmap-go/internal/fmindex"
	"github.com/aria-lang/pepmap-go/internal/mapping"
	"github.com/aria-lang/pepmap-go/internal/search"
	"github.com/aria-lang/pepmap-go/pkg/pepmap"
)

// maxBatch caps the queries of one request.
const maxBatch = 10000

// Server answers API requests against one index.
type Server struct {
	index     *fmindex.Index
	config    config.Config
	resources config.Resources
	searcher  *search.Searcher
}

// NewServer creates a server with the search settings of cfg. The files cfg
// refers to are read once here.
func NewServer(index *fmindex.Index, cfg config.Config) (*Server, error) {
	resources, err := cfg.LoadResources()
	if err != nil {
		return nil, err
	}
	settings, err := cfg.SettingsWith(resources)
	if err != nil {
		return nil, err
	}
	s, err := search.New(index, settings)
	if err != nil {
		return nil, err
	}
	return &Server{index: index, config: cfg, resources: resources, searcher: s}, nil
}

// SettingsOverride changes search settings for one request. File backed
// settings (modification catalog, variant table) can not be overridden;
// requests use the files loaded by NewServer.
type SettingsOverride struct {
	Matching         *string  `json:"matching,omitempty"`
	LimitX           *float64 `json:"limit_x,omitempty"`
	Tolerance        *float64 `json:"tolerance,omitempty"`
	Unit             *string  `json:"unit,omitempty"`
	Fixed            []string `json:"fixed,omitempty"`
	Variable         []string `json:"variable,omitempty"`
	Variants         *string  `json:"variants,omitempty"`
	MaxTotal         *int     `json:"max_total,omitempty"`
	MaxSubstitutions *int     `json:"max_substitutions,omitempty"`
	MaxInsertions    *int     `json:"max_insertions,omitempty"`
	MaxDeletions     *int     `json:"max_deletions,omitempty"`
	Matrix           *string  `json:"matrix,omitempty"`
}

func (o *SettingsOverride) apply(c config.Config) config.Config {
	if o.Matching != nil {
		c.Matching.Type = *o.Matching
	}
	if o.LimitX != nil {
		c.Matching.LimitX = *o.LimitX
	}
	if o.Tolerance != nil {
		c.Tolerance.Value = *o.Tolerance
	}
	if o.Unit != nil {
		c.Tolerance.Unit = *o.Unit
	}
	if o.Fixed != nil {
		c.Modifications.Fixed = o.Fixed
	}
	if o.Variable != nil {
		c.Modifications.Variable = o.Variable
	}
	if o.Variants != nil {
		c.Variants.Type = *o.Variants
	}
	if o.MaxTotal != nil {
		c.Variants.MaxTotal = *o.MaxTotal
	}
	if o.MaxSubstitutions != nil {
		c.Variants.MaxSubstitutions = *o.MaxSubstitutions
	}
	if o.MaxInsertions != nil {
		c.Variants.MaxInsertions = *o.MaxInsertions
	}
	if o.MaxDeletions != nil {
		c.Variants.MaxDeletions = *o.MaxDeletions
	}
	if o.Matrix != nil {
		c.Variants.Matrix = *o.Matrix
	}
	return c
}

// searcherFor returns the server's searcher, or a new one when o changes
// the settings.
func (s *Server) searcherFor(o *SettingsOverride) (*search.Searcher, error) {
	if o == nil {
		return s.searcher, nil
	}
	settings, err := o.apply(s.config).SettingsWith(s.resources)
	if err != nil {
		return nil, err
	}
	return search.New(s.index, settings)
}

// MapPeptideRequest represents a request to map peptides.
type MapPeptideRequest struct {
	Peptides []string          `json:"peptides"`
	Settings *SettingsOverride `json:"settings,omitempty"`
	// Expand fans combination residues out into concrete peptides.
	Expand bool `json:"expand,omitempty"`
}

// MapTagRequest represents a request to map sequence tags.
type MapTagRequest struct {
	Tags     []string          `json:"tags"`
	Settings *SettingsOverride `json:"settings,omitempty"`
}

// QueryResult holds the mappings of one query.
type QueryResult struct {
	Query    string           `json:"query"`
	Mappings []pepmap.Mapping `json:"mappings"`
	Count    int              `json:"count"`
	// Truncated is set when the search hit its path limit.
	Truncated bool `json:"truncated,omitempty"`
	// Unexpanded counts mappings left as they are because they hold too
	// many combination residues to expand.
	Unexpanded int `json:"unexpanded,omitempty"`
}

// MapResponse represents the response of a mapping request.
type MapResponse struct {
	Results []QueryResult              `json:"results"`
	Summary []mapping.AccessionSummary `json:"summary"`
}

// MapPeptideHandler handles POST /api/map/peptide.
func (s *Server) MapPeptideHandler(w http.ResponseWriter, r *http.Request) {
	var req MapPeptideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if err := checkBatch(len(req.Peptides)); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	searcher, err := s.searcherFor(req.Settings)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	results := pepmap.MapPeptides(r.Context(), searcher, req.Peptides, s.config.Search.Workers)
	var unexpanded []int
	if req.Expand {
		unexpanded = make([]int, len(results))
		for i := range results {
			results[i].Mappings, unexpanded[i] = mapping.ExpandCombinations(results[i].Mappings)
		}
	}
	s.respond(w, results, unexpanded)
}

// MapTagHandler handles POST /api/map/tag.
func (s *Server) MapTagHandler(w http.ResponseWriter, r *http.Request) {
	var req MapTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if err := checkBatch(len(req.Tags)); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	searcher, err := s.searcherFor(req.Settings)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	s.respond(w, pepmap.MapTags(r.Context(), searcher, req.Tags, s.config.Search.Workers), nil)
}

func checkBatch(n int) error {
	if n == 0 {
		return errors.New("no queries given")
	}
	if n > maxBatch {
		return fmt.Errorf("at most %d queries per request, got %d", maxBatch, n)
	}
	return nil
}

// respond writes results. unexpanded, when not nil, holds per result the
// mappings combination expansion skipped.
func (s *Server) respond(w http.ResponseWriter, results []pepmap.Result, unexpanded []int) {
	resp := MapResponse{Results: make([]QueryResult, len(results))}
	var all []pepmap.Mapping
	for i, res := range results {
		truncated := errors.Is(res.Err, search.ErrPathLimit)
		if res.Err != nil && !truncated {
			writeError(w, statusFor(res.Err), fmt.Errorf("query %d (%q): %w", i+1, res.Query, res.Err))
			return
		}
		mappings := res.Mappings
		if mappings == nil {
			mappings = []pepmap.Mapping{}
		}
		resp.Results[i] = QueryResult{
			Query:     res.Query,
			Mappings:  mappings,
			Count:     len(mappings),
			Truncated: truncated,
		}
		if unexpanded != nil {
			resp.Results[i].Unexpanded = unexpanded[i]
		}
		all = append(all, mappings...)
	}
	resp.Summary = mapping.Summary(all)
	writeJSON(w, http.StatusOK, resp)
}
