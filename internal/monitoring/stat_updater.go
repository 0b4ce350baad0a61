package monitoring

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time view of the process and its host.
type Stats struct {
	StartedAt        time.Time `json:"started_at"`
	UptimeSeconds    int64     `json:"uptime_seconds"`
	Goroutines       int       `json:"goroutines"`
	ProcessRSSBytes  uint64    `json:"process_rss_bytes"`
	ProcessCPU       float64   `json:"process_cpu_percent"`
	HostMemoryUsed   float64   `json:"host_memory_used_percent"`
	HostUptimeSecond uint64    `json:"host_uptime_seconds"`
	SampledAt        time.Time `json:"sampled_at"`
}

// StatUpdater periodically samples runtime stats for the status endpoint.
type StatUpdater struct {
	mu       sync.RWMutex
	latest   Stats
	started  time.Time
	proc     *process.Process
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewStatUpdater creates a new StatUpdater and takes a first sample.
func NewStatUpdater(interval time.Duration) *StatUpdater {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	su := &StatUpdater{
		started:  time.Now().UTC(),
		interval: interval,
		done:     make(chan struct{}),
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn().Err(err).Msg("Process stats unavailable")
	} else {
		su.proc = proc
	}
	su.sample()
	return su
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Dur("interval", su.interval).Msg("Starting background stat updater...")
	ticker := time.NewTicker(su.interval)
	defer ticker.Stop()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-ticker.C:
			su.sample()
		}
	}
}

// Stop halts the updater.
func (su *StatUpdater) Stop() {
	su.stopOnce.Do(func() { close(su.done) })
}

// Snapshot returns the latest sample with a fresh uptime.
func (su *StatUpdater) Snapshot() Stats {
	su.mu.RLock()
	s := su.latest
	su.mu.RUnlock()

	s.UptimeSeconds = int64(time.Since(su.started).Seconds())
	s.Goroutines = runtime.NumGoroutine()
	return s
}

// sample gathers what it can; a failing probe leaves its field at zero.
func (su *StatUpdater) sample() {
	s := Stats{StartedAt: su.started, SampledAt: time.Now().UTC()}

	if su.proc != nil {
		if mi, err := su.proc.MemoryInfo(); err == nil {
			s.ProcessRSSBytes = mi.RSS
		} else {
			log.Debug().Err(err).Msg("Failed to read process memory")
		}
		if cpu, err := su.proc.CPUPercent(); err == nil {
			s.ProcessCPU = cpu
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.HostMemoryUsed = vm.UsedPercent
	}
	if up, err := host.Uptime(); err == nil {
		s.HostUptimeSecond = up
	}

	su.mu.Lock()
	su.latest = s
	su.mu.Unlock()
}
