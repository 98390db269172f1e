package scrollwatch

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/scrollscope/kit"
)

// Handler returns the local HTTP status API.
//
//	GET  /health          liveness probe
//	GET  /status          watcher state
//	GET  /report          on-demand report (404 with empty buffer)
//	POST /enable          enable diagnostics
//	POST /disable         disable diagnostics
//	POST /grid            {"cards": n, "columns": m}
func (w *Watcher) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			ctx := kit.WithTransport(req.Context(), "http")
			ctx = kit.WithRemoteAddr(ctx, req.RemoteAddr)
			next.ServeHTTP(rw, req.WithContext(ctx))
		})
	})

	r.Get("/health", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})

	r.Get("/status", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, http.StatusOK, w.Status())
	})

	r.Get("/report", func(rw http.ResponseWriter, _ *http.Request) {
		rep, ok := w.Report()
		if !ok {
			writeJSON(rw, http.StatusNotFound, map[string]string{"error": "no samples collected"})
			return
		}
		writeJSON(rw, http.StatusOK, rep)
	})

	r.Post("/enable", func(rw http.ResponseWriter, req *http.Request) {
		w.Enable(req.Context())
		writeJSON(rw, http.StatusOK, w.Status())
	})

	r.Post("/disable", func(rw http.ResponseWriter, req *http.Request) {
		w.Disable(req.Context())
		writeJSON(rw, http.StatusOK, w.Status())
	})

	r.Post("/grid", func(rw http.ResponseWriter, req *http.Request) {
		var body struct {
			Cards   int `json:"cards"`
			Columns int `json:"columns"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(rw, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		w.UpdateGrid(body.Cards, body.Columns)
		writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func writeJSON(rw http.ResponseWriter, code int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	json.NewEncoder(rw).Encode(v)
}
