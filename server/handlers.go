package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/teranos/taxa/db"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/graph"
	"github.com/teranos/taxa/taxonomy"
	"github.com/teranos/taxa/version"
)

// ParentResponse answers /api/parent
type ParentResponse struct {
	Taxid  taxonomy.Taxid `json:"taxid"`
	Parent taxonomy.Taxid `json:"parent"`
}

// RankResponse answers /api/genus, /api/species and /api/superkingdom
type RankResponse struct {
	Taxid taxonomy.Taxid `json:"taxid"`
	Rank  string         `json:"rank"`
	Found taxonomy.Taxid `json:"found"`
}

// CommonResponse answers /api/common
type CommonResponse struct {
	LCA       taxonomy.Record `json:"lca"`
	DistanceA int             `json:"distance_a"`
	DistanceB int             `json:"distance_b"`
}

// CladeResponse answers /api/clade
type CladeResponse struct {
	Taxid  taxonomy.Taxid `json:"taxid"`
	Clade  string         `json:"clade"`
	Member bool           `json:"member"`
}

// CladesResponse answers /api/clades
type CladesResponse struct {
	Taxid  taxonomy.Taxid `json:"taxid"`
	Clades []string       `json:"clades"`
}

// HealthResponse answers /health
type HealthResponse struct {
	Status        string       `json:"status"` // "ok" or "degraded" (no cache loaded)
	State         string       `json:"state"`
	Version       version.Info `json:"version"`
	Records       int          `json:"records"`
	Cache         *db.Metadata `json:"cache,omitempty"`
	DatabasePath  string       `json:"database_path"`
	UptimeSeconds int64        `json:"uptime_seconds"`
}

// currentEngine returns the serving engine or a 503-mapped error
func (s *TaxaServer) currentEngine() (*taxonomy.Engine, error) {
	e := s.engine.Load()
	if e == nil {
		return nil, errors.WithHint(db.ErrEmptyCache, "build the cache with 'taxa taxonomy set <url>'; the server picks it up on the next config reload")
	}
	return e, nil
}

// taxidParam parses a path value. With ?follow_merged=true merged ids are
// resolved to their replacement first.
func taxidParam(r *http.Request, e *taxonomy.Engine, name string) (taxonomy.Taxid, error) {
	id, err := taxonomy.ParseTaxid(r.PathValue(name))
	if err != nil {
		return 0, err
	}
	return follow(r, e, id)
}

func follow(r *http.Request, e *taxonomy.Engine, id taxonomy.Taxid) (taxonomy.Taxid, error) {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("follow_merged")); ok {
		return e.Current(id)
	}
	return id, nil
}

// engineHandler resolves the engine before calling fn and maps its error
func (s *TaxaServer) engineHandler(fn func(*http.Request, *taxonomy.Engine) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := s.currentEngine()
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		result, err := fn(r, e)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleRecord(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
	id, err := taxidParam(r, e, "taxid")
	if err != nil {
		return nil, err
	}
	return e.Record(id)
}

func handleParent(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
	id, err := taxidParam(r, e, "taxid")
	if err != nil {
		return nil, err
	}
	parent, err := e.Parent(id)
	if err != nil {
		return nil, err
	}
	return ParentResponse{Taxid: id, Parent: parent}, nil
}

func handleLineage(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
	id, err := taxidParam(r, e, "taxid")
	if err != nil {
		return nil, err
	}
	return e.Lineage(id)
}

func rankHandler(rank string, lookup func(*taxonomy.Engine, taxonomy.Taxid) (taxonomy.Taxid, error)) func(*http.Request, *taxonomy.Engine) (interface{}, error) {
	return func(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
		id, err := taxidParam(r, e, "taxid")
		if err != nil {
			return nil, err
		}
		found, err := lookup(e, id)
		if err != nil {
			return nil, err
		}
		return RankResponse{Taxid: id, Rank: rank, Found: found}, nil
	}
}

// handleStatus never follows merges: the point is to report them
func handleStatus(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
	id, err := taxonomy.ParseTaxid(r.PathValue("taxid"))
	if err != nil {
		return nil, err
	}
	st, err := e.ResolveStatus(id)
	if err != nil {
		return nil, err
	}
	return st.Report(), nil
}

func handleCommon(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
	a, err := taxidParam(r, e, "a")
	if err != nil {
		return nil, err
	}
	b, err := taxidParam(r, e, "b")
	if err != nil {
		return nil, err
	}
	anc, err := e.CommonAncestor(a, b)
	if err != nil {
		return nil, err
	}
	rec, err := e.Record(anc.LCA)
	if err != nil {
		return nil, err
	}
	return CommonResponse{LCA: rec, DistanceA: anc.DistanceA, DistanceB: anc.DistanceB}, nil
}

func handleLevels(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
	a, err := taxidParam(r, e, "a")
	if err != nil {
		return nil, err
	}
	b, err := taxidParam(r, e, "b")
	if err != nil {
		return nil, err
	}
	return e.LevelsBetween(a, b)
}

func handleClade(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
	id, err := taxidParam(r, e, "taxid")
	if err != nil {
		return nil, err
	}
	clade := r.PathValue("clade")
	member, err := e.IsClade(id, clade)
	if err != nil {
		return nil, err
	}
	return CladeResponse{Taxid: id, Clade: clade, Member: member}, nil
}

func handleClades(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
	id, err := taxidParam(r, e, "taxid")
	if err != nil {
		return nil, err
	}
	clades, err := e.CladesOf(id)
	if err != nil {
		return nil, err
	}
	return CladesResponse{Taxid: id, Clades: clades}, nil
}

// handleGraph answers /api/graph?taxid=562&taxid=623
func handleGraph(r *http.Request, e *taxonomy.Engine) (interface{}, error) {
	ids, err := taxonomy.ParseTaxids(r.URL.Query()["taxid"])
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		if ids[i], err = follow(r, e, id); err != nil {
			return nil, err
		}
	}
	return graph.Build(e, ids...)
}

// HandleHealth reports liveness. Without a cache it still answers 200 with
// status "degraded".
func (s *TaxaServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		State:         stateString(s.getState()),
		Version:       version.Get(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if path, ok := s.dbPath.Load().(string); ok {
		resp.DatabasePath = path
	}
	if e := s.engine.Load(); e != nil {
		resp.Records = e.Store().Len()
		resp.Cache = s.meta.Load()
	} else {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}
