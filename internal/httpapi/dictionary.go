package httpapi

import (
	"net/http"

	"github.com/tallyhq/tally/internal/dictionary"
	"github.com/tallyhq/tally/internal/ledger"
)

// GET /v1/categories?kind=
func (s *Server) getCategories(w http.ResponseWriter, r *http.Request) {
	defs := dictionary.All()
	if ks := r.URL.Query().Get("kind"); ks != "" {
		kind := ledger.Kind(ks)
		if !kind.Valid() {
			badRequest(w, "invalid kind")
			return
		}
		filtered := defs[:0]
		for _, def := range defs {
			for _, k := range def.Kinds {
				if k == kind {
					filtered = append(filtered, def)
					break
				}
			}
		}
		defs = filtered
	}
	out := struct {
		Items []dictionary.CategoryDef `json:"items"`
	}{Items: defs}
	toJSON(w, http.StatusOK, out)
}
