// Package cleanup removes temp artifacts left behind by crashed or killed
// OCR passes.
package cleanup

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Prefixes are the temp names created by the orchestrator and chunk workers.
var Prefixes = []string{"ocrdoc-", "ocrchunk-"}

// SweepTemps removes top-level entries of dir (os.TempDir() when empty)
// whose name carries one of Prefixes and whose mtime is older than maxAge.
// It returns the number of entries removed.
func SweepTemps(dir string, maxAge time.Duration) int {
	if dir == "" {
		dir = os.TempDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("temp sweep failed")
		return 0
	}

	now := time.Now()
	removed := 0
	for _, e := range entries {
		if !ours(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("failed to remove stale temp")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Str("dir", dir).Msg("swept stale OCR temps")
	}
	return removed
}

// Run sweeps every interval until stop is closed.
func Run(dir string, interval, maxAge time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			SweepTemps(dir, maxAge)
		}
	}
}

func ours(name string) bool {
	for _, p := range Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
