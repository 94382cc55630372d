package capacity

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Estimator derives the OCR worker count from host and container CPU limits.
// The zero value inspects the real host.
type Estimator struct {
	// Override wins over every detected value when positive.
	Override int
	// Root is prepended to /proc, /sys and /.dockerenv lookups. Empty means "/".
	Root string
	// NumCPU reports logical CPUs. Defaults to runtime.NumCPU.
	NumCPU func() int
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Estimate returns the worker capacity using the real host with the given override.
func Estimate(override int) int {
	return Estimator{Override: override}.Estimate()
}

// Estimate returns a worker count of at least 1.
//
// Order of precedence: explicit override, cgroup CPU quota (quota/period/2),
// container CPU count (cpus/3), host CPU count (cpus/2).
func (e Estimator) Estimate() int {
	if e.Override > 0 {
		return e.Override
	}

	cpus := e.numCPU()
	workers := cpus / 2
	source := "host"

	if e.containerized() {
		workers = cpus / 3
		source = "container"
	}
	if quota, ok := e.cpuQuota(); ok {
		workers = int(quota / 2)
		source = "cgroup_quota"
	}
	if workers < 1 {
		workers = 1
	}

	log.Debug().
		Int("cpus", cpus).
		Int("workers", workers).
		Str("source", source).
		Msg("estimated OCR worker capacity")
	return workers
}

func (e Estimator) numCPU() int {
	if e.NumCPU != nil {
		return e.NumCPU()
	}
	return runtime.NumCPU()
}

func (e Estimator) getenv(k string) string {
	if e.Getenv != nil {
		return e.Getenv(k)
	}
	return os.Getenv(k)
}

func (e Estimator) path(p string) string {
	if e.Root == "" {
		return p
	}
	return filepath.Join(e.Root, p)
}

// containerized looks for the usual Docker/Kubernetes/containerd markers.
func (e Estimator) containerized() bool {
	if e.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}
	if _, err := os.Stat(e.path("/.dockerenv")); err == nil {
		return true
	}
	b, err := os.ReadFile(e.path("/proc/1/cgroup"))
	if err != nil {
		return false
	}
	s := string(b)
	for _, marker := range []string{"docker", "kubepods", "containerd", "libpod", "lxc"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// cpuQuota returns quota/period in CPUs if a limit is set (cgroup v2 first, then v1).
func (e Estimator) cpuQuota() (float64, bool) {
	if b, err := os.ReadFile(e.path("/sys/fs/cgroup/cpu.max")); err == nil {
		fields := strings.Fields(string(b))
		if len(fields) == 2 && fields[0] != "max" {
			return ratio(fields[0], fields[1])
		}
		return 0, false
	}
	q, err := os.ReadFile(e.path("/sys/fs/cgroup/cpu/cpu.cfs_quota_us"))
	if err != nil {
		return 0, false
	}
	p, err := os.ReadFile(e.path("/sys/fs/cgroup/cpu/cpu.cfs_period_us"))
	if err != nil {
		return 0, false
	}
	return ratio(strings.TrimSpace(string(q)), strings.TrimSpace(string(p)))
}

func ratio(quota, period string) (float64, bool) {
	q, err := strconv.ParseFloat(quota, 64)
	if err != nil || q <= 0 {
		return 0, false
	}
	p, err := strconv.ParseFloat(period, 64)
	if err != nil || p <= 0 {
		return 0, false
	}
	return q / p, true
}
