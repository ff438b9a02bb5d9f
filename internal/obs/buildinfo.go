package obs

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Store backends reported on directory_build_info.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

var (
	buildInfoOnce sync.Once

	directoryBuildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "directory_build_info",
			Help: "Constant 1, labelled with the running directory build and its employee store.",
		},
		[]string{"version", "commit", "go_version", "store"},
	)
)

// InitBuildInfo publishes directory_build_info. An empty or "none" commit is
// filled from the VCS revision stamped by the Go toolchain when available.
func InitBuildInfo(version, commit, store string) {
	buildInfoOnce.Do(func() {
		prometheus.MustRegister(directoryBuildInfo)
	})
	if commit == "" || commit == "none" {
		commit = vcsRevision()
	}
	if store == "" {
		store = StorePostgres
	}
	directoryBuildInfo.Reset()
	directoryBuildInfo.WithLabelValues(version, commit, runtime.Version(), store).Set(1)
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 12 {
				return s.Value[:12]
			}
			return s.Value
		}
	}
	return "unknown"
}
