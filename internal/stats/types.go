package stats

// Snapshot is one sample of media storage and host health.
type Snapshot struct {
	Timestamp  int64   `json:"timestamp"`
	Files      int     `json:"files"`
	MediaBytes int64   `json:"mediaBytes"`
	MediaHuman string  `json:"mediaHuman"`
	DiskFree   uint64  `json:"diskFree"`
	Disk       float64 `json:"disk"`   // used percentage of the media volume
	CPU        float64 `json:"cpu"`    // usage percentage
	Memory     float64 `json:"memory"` // usage percentage
	Uptime     uint64  `json:"uptime"` // seconds
}

// Collector gathers and stores snapshots.
type Collector interface {
	Start()
	Stop()
	GetHistory(since int64) []Snapshot
}
