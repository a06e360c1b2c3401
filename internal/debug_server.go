package internal

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"outmentor/repositories"

	"github.com/dgraph-io/badger/v4"
)

//go:embed inspect.html
var templatesFS embed.FS

const (
	defaultPrefix = "profile:"
	maxRows       = 500
)

type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []repositories.Entry
	Stats  map[string]any
}

// DebugHandler renders the Badger records under ?prefix= along with live stats.
func DebugHandler(db *badger.DB, endpoint string, statsProvider StatsProvider) http.Handler {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = defaultPrefix
		}
		limit := maxRows
		if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n < maxRows {
			limit = n
		}

		data := PageData{Prefix: prefix, Stats: make(map[string]any)}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}
		items, err := repositories.Dump(r.Context(), db, prefix, limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data.Items = items

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})
	return mux
}

// StartDebugServer serves DebugHandler in the background; the caller shuts the server down.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, endpoint string, statsProvider StatsProvider) *http.Server {
	srv := &http.Server{
		Addr:    "0.0.0.0:" + strconv.Itoa(port),
		Handler: DebugHandler(db, endpoint, statsProvider),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("debug server stopped", "error", err)
		}
	}()
	log.Info("Debug inspector listening", "url", "http://localhost:"+strconv.Itoa(port)+endpoint)
	return srv
}
