package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teranos/taxa/taxonomy"
)

// Handler returns the full HTTP surface with middleware applied
func (s *TaxaServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupHTTPRoutes(mux)
	return s.requestIDMiddleware(s.accessLogMiddleware(s.rateLimitMiddleware(mux)))
}

// setupHTTPRoutes registers every endpoint on mux
func (s *TaxaServer) setupHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/record/{taxid}", s.engineHandler(handleRecord))
	mux.HandleFunc("GET /api/parent/{taxid}", s.engineHandler(handleParent))
	mux.HandleFunc("GET /api/lineage/{taxid}", s.engineHandler(handleLineage))
	mux.HandleFunc("GET /api/genus/{taxid}", s.engineHandler(rankHandler(taxonomy.RankGenus, (*taxonomy.Engine).GenusOf)))
	mux.HandleFunc("GET /api/species/{taxid}", s.engineHandler(rankHandler(taxonomy.RankSpecies, (*taxonomy.Engine).SpeciesOf)))
	mux.HandleFunc("GET /api/superkingdom/{taxid}", s.engineHandler(rankHandler(taxonomy.RankSuperkingdom, (*taxonomy.Engine).SuperkingdomOf)))
	mux.HandleFunc("GET /api/status/{taxid}", s.engineHandler(handleStatus))
	mux.HandleFunc("GET /api/common/{a}/{b}", s.engineHandler(handleCommon))
	mux.HandleFunc("GET /api/levels/{a}/{b}", s.engineHandler(handleLevels))
	mux.HandleFunc("GET /api/clade/{clade}/{taxid}", s.engineHandler(handleClade))
	mux.HandleFunc("GET /api/clades/{taxid}", s.engineHandler(handleClades))
	mux.HandleFunc("GET /api/graph", s.engineHandler(handleGraph))
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
}
