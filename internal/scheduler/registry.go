package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// GlobalJobKey is the registry key of the fallback job that is not bound to a farm.
const GlobalJobKey = ""

// JobInfo describes one installed job.
type JobInfo struct {
	FarmID string    `json:"farm_id"`
	Spec   string    `json:"spec"`
	Next   time.Time `json:"next,omitempty"`
}

type installedJob struct {
	entryID cron.EntryID
	spec    string
}

// Registry maps a farm id to its single recurring cron entry.
type Registry struct {
	mu   sync.Mutex
	cron *cron.Cron
	jobs map[string]installedJob
}

// NewRegistry wraps the cron engine that will run the installed jobs.
func NewRegistry(c *cron.Cron) *Registry {
	return &Registry{
		cron: c,
		jobs: map[string]installedJob{},
	}
}

// Install replaces the farm's job with one firing on spec. The previous
// entry, if any, is removed from the cron engine before the new one is added,
// so it never fires after Install returns. An invalid spec leaves the
// current job untouched.
func (r *Registry) Install(farmID, spec string, fn func()) error {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parse trigger %q: %w", spec, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.jobs[farmID]; ok {
		r.cron.Remove(old.entryID)
		delete(r.jobs, farmID)
	}

	id := r.cron.Schedule(sched, cron.FuncJob(fn))
	r.jobs[farmID] = installedJob{entryID: id, spec: spec}
	return nil
}

// StopAll removes every installed job.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for farmID, job := range r.jobs {
		r.cron.Remove(job.entryID)
		delete(r.jobs, farmID)
	}
}

// Lookup reports the job installed for farmID.
func (r *Registry) Lookup(farmID string) (JobInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[farmID]
	if !ok {
		return JobInfo{}, false
	}
	return r.infoLocked(farmID, job), true
}

// Len returns the number of installed jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Snapshot lists every installed job ordered by farm id.
func (r *Registry) Snapshot() []JobInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]JobInfo, 0, len(r.jobs))
	for farmID, job := range r.jobs {
		items = append(items, r.infoLocked(farmID, job))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].FarmID < items[j].FarmID })
	return items
}

func (r *Registry) infoLocked(farmID string, job installedJob) JobInfo {
	info := JobInfo{FarmID: farmID, Spec: job.spec}
	if e := r.cron.Entry(job.entryID); e.Valid() {
		info.Next = e.Next
	}
	return info
}
