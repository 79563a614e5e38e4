package obs

import (
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	Commit    string
	GoVersion string
	StartedAt time.Time
}

var buildInfoOnce sync.Once

// NewBuildInfo stamps version and commit with the toolchain and the current time.
func NewBuildInfo(version, commit string) BuildInfo {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	return BuildInfo{Version: version, Commit: commit, GoVersion: runtime.Version(), StartedAt: time.Now()}
}

// Collectors returns teamhub_build_info (constant 1) and teamhub_start_time_seconds.
func (b BuildInfo) Collectors() []prometheus.Collector {
	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "teamhub_build_info",
		Help: "teamhub API build information.",
		ConstLabels: prometheus.Labels{
			"version":    b.Version,
			"commit":     b.Commit,
			"go_version": b.GoVersion,
		},
	})
	info.Set(1)

	started := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "teamhub_start_time_seconds",
		Help: "Unix time the process started serving.",
	})
	started.Set(float64(b.StartedAt.UnixNano()) / 1e9)
	return []prometheus.Collector{info, started}
}

// Register adds the build collectors to reg.
func (b BuildInfo) Register(reg prometheus.Registerer) error {
	for _, c := range b.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// InitBuildInfo registers build information in the default registry once.
func InitBuildInfo(version, commit string) BuildInfo {
	info := NewBuildInfo(version, commit)
	buildInfoOnce.Do(func() {
		if err := info.Register(prometheus.DefaultRegisterer); err != nil {
			Error("register build info", err, nil)
		}
	})
	return info
}
