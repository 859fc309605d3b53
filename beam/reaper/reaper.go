// Package reaper runs a scheduled sweep that drains purge for every beam
// a process has registered, generalizing proxy/stream/buffer/registry.go's
// ticker-driven cleanup from "remove coordinators with no clients" into
// "free anything purge is holding, on a cron schedule rather than a
// fixed ticker".
package reaper

import (
	"sync"

	"github.com/robfig/cron/v3"

	"h2beam/beam"
	"h2beam/logger"
)

// Reaper periodically calls DrainPurge on every beam it has been told
// about. Grounded on updater/updater.go's Initialize: cron.New plus
// AddFunc with an env-overridable schedule string.
type Reaper struct {
	mu    sync.Mutex
	beams map[string]*beam.Beam

	cron *cron.Cron
	log  logger.Logger
}

// New builds a Reaper that sweeps on the given cron schedule (e.g.
// "@every 30s", matching Config.ReaperSchedule's default).
func New(schedule string, log logger.Logger) (*Reaper, error) {
	if log == nil {
		log = logger.Default
	}
	r := &Reaper{beams: make(map[string]*beam.Beam), cron: cron.New(), log: log}
	if _, err := r.cron.AddFunc(schedule, r.sweep); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins the cron schedule in the background.
func (r *Reaper) Start() { r.cron.Start() }

// Stop halts the schedule and waits for any in-flight sweep to finish.
func (r *Reaper) Stop() { <-r.cron.Stop().Done() }

// Watch registers a beam for periodic purge draining.
func (r *Reaper) Watch(b *beam.Beam) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beams[b.ID.String()] = b
}

// Forget removes a beam from the sweep, typically once it's destroyed.
func (r *Reaper) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.beams, id)
}

func (r *Reaper) sweep() {
	r.mu.Lock()
	targets := make([]*beam.Beam, 0, len(r.beams))
	for _, b := range r.beams {
		targets = append(targets, b)
	}
	r.mu.Unlock()

	for _, b := range targets {
		b.DrainPurge()
	}
	r.log.Debugf("reaper: swept %d beams", len(targets))
}
