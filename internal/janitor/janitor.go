package janitor

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Janitor deletes stale files from the download directory. The pipeline
// removes its own files on every exit path; this is the backstop for crashes
// that happen mid-download.
type Janitor struct {
	fs     afero.Fs
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

func New(fs afero.Fs, dir string, maxAge time.Duration) *Janitor {
	return &Janitor{fs: fs, dir: dir, maxAge: maxAge, now: time.Now}
}

// Sweep removes every regular file in the download directory whose
// last-modified age exceeds maxAge. Returns how many files were removed.
func (j *Janitor) Sweep() (int, error) {
	entries, err := afero.ReadDir(j.fs, j.dir)
	if err != nil {
		return 0, fmt.Errorf("read download dir: %w", err)
	}

	cutoff := j.now().Add(-j.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !entry.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		if err := j.fs.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("janitor could not remove file")
			continue
		}
		removed++
		log.Info().Str("path", path).Msg("janitor removed stale file")
	}
	return removed, nil
}

// Schedule runs an initial sweep and then sweeps on the given cron spec.
// The returned cron is already started; stop it on shutdown.
func (j *Janitor) Schedule(spec string) (*cron.Cron, error) {
	if _, err := j.Sweep(); err != nil {
		log.Warn().Err(err).Msg("initial janitor sweep failed")
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := j.Sweep(); err != nil {
			log.Warn().Err(err).Msg("janitor sweep failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule janitor: %w", err)
	}
	c.Start()
	return c, nil
}
