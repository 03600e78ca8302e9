package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

type healthResp struct {
	OK      bool      `json:"ok"`
	Status  string    `json:"status"`
	Version string    `json:"version"`
	Time    time.Time `json:"time"`
	Uptime  uint64    `json:"uptime,omitempty"`
}

// Health returns basic health info. Served on /health, /ping and the
// /homecam/health path the frontend polls.
func Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResp{
		OK:      true,
		Status:  "ok",
		Version: BackendVersion,
		Time:    time.Now().UTC(),
	}
	if up, err := host.Uptime(); err == nil {
		resp.Uptime = up
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
