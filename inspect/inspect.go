// Package inspect exposes the bindings of an injector over HTTP.
//
//	inj := graft.New()
//	http.Handle("/debug/graft/", http.StripPrefix("/debug/graft", inspect.Handler(inj)))
package inspect

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/overdevelop/graft"
)

// BindingSource is implemented by *graft.Injector.
type BindingSource interface {
	Bindings() []graft.Binding
}

// Item is the JSON form of a binding.
type Item struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	Qualifier string `json:"qualifier,omitempty"`
	Target    string `json:"target"`
	Resolved  bool   `json:"resolved"`
	Singleton bool   `json:"singleton"`
	Eager     bool   `json:"eager"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Handler serves
//
//	GET /bindings         every installed binding
//	GET /bindings/{type}  the bindings whose type string equals {type}
func Handler(src BindingSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/bindings", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, items(src.Bindings(), ""))
	})

	r.Get("/bindings/{type}", func(w http.ResponseWriter, req *http.Request) {
		typ, err := url.PathUnescape(chi.URLParam(req, "type"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}

		found := items(src.Bindings(), typ)
		if len(found) == 0 {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "no binding for type " + typ})
			return
		}
		writeJSON(w, http.StatusOK, found)
	})

	return r
}

func items(bindings []graft.Binding, typ string) []Item {
	out := make([]Item, 0, len(bindings))

	for _, b := range bindings {
		t := b.Key.Type().String()
		if typ != "" && t != typ {
			continue
		}

		out = append(out, Item{
			Key:       b.Key.String(),
			Type:      t,
			Qualifier: b.Key.Qualifier().String(),
			Target:    b.Target,
			Resolved:  b.Resolved,
			Singleton: b.Singleton,
			Eager:     b.Eager,
		})
	}

	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
