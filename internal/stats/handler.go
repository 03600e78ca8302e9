package stats

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Handler serves the collected history as JSON. The optional "since"
// query parameter is a unix timestamp.
func Handler(c Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var since int64
		if s, err := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64); err == nil {
			since = s
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(c.GetHistory(since))
	}
}
