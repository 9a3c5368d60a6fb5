// Package heartbeat tracks per-component liveness for the status API.
// Components report state transitions; the registry answers staleness-
// aware snapshots.
package heartbeat

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	StateStarting = "starting"
	StateHealthy  = "healthy"
	StateDegraded = "degraded"
	StateStopped  = "stopped"
	StateStale    = "stale"
)

type Reporter interface {
	Starting(component, message string)
	Beat(component, message string)
	Degrade(component, message string, err error)
	Stopped(component, message string)
}

type ComponentStatus struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
	LastBeatAtUnix int64  `json:"last_beat_at_unix,omitempty"`
	Stale          bool   `json:"stale,omitempty"`
}

type Snapshot struct {
	GeneratedAtUnix int64             `json:"generated_at_unix"`
	Overall         string            `json:"overall"`
	Components      []ComponentStatus `json:"components"`
}

type componentRecord struct {
	name       string
	state      string
	message    string
	lastError  string
	lastBeatAt time.Time
}

type Registry struct {
	mu         sync.RWMutex
	components map[string]componentRecord
}

func NewRegistry() *Registry {
	return &Registry{components: map[string]componentRecord{}}
}

func (r *Registry) Starting(component, message string) {
	r.setState(component, StateStarting, message, nil)
}

func (r *Registry) Beat(component, message string) {
	r.setState(component, StateHealthy, message, nil)
}

func (r *Registry) Degrade(component, message string, err error) {
	r.setState(component, StateDegraded, message, err)
}

func (r *Registry) Stopped(component, message string) {
	r.setState(component, StateStopped, message, nil)
}

func (r *Registry) setState(component, state, message string, err error) {
	name := strings.ToLower(strings.TrimSpace(component))
	if name == "" {
		return
	}
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.components[name]
	record.name = name
	record.state = state
	record.message = strings.TrimSpace(message)
	record.lastError = ""
	if err != nil {
		record.lastError = strings.TrimSpace(err.Error())
	}
	if state == StateHealthy || record.lastBeatAt.IsZero() {
		record.lastBeatAt = now
	}
	r.components[name] = record
}

func (r *Registry) Snapshot(staleAfter time.Duration) Snapshot {
	now := time.Now().UTC()
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]ComponentStatus, 0, len(r.components))
	for _, record := range r.components {
		status := ComponentStatus{
			Name:    record.name,
			State:   record.state,
			Message: record.message,
			Error:   record.lastError,
		}
		if !record.lastBeatAt.IsZero() {
			status.LastBeatAtUnix = record.lastBeatAt.Unix()
		}
		if staleAfter > 0 && canBecomeStale(record.state) &&
			!record.lastBeatAt.IsZero() && now.Sub(record.lastBeatAt) > staleAfter {
			status.State = StateStale
			status.Stale = true
		}
		results = append(results, status)
	}

	sort.Slice(results, func(left, right int) bool {
		return results[left].Name < results[right].Name
	})

	return Snapshot{
		GeneratedAtUnix: now.Unix(),
		Overall:         computeOverall(results),
		Components:      results,
	}
}

func computeOverall(components []ComponentStatus) string {
	if len(components) == 0 {
		return StateStarting
	}
	overall := StateHealthy
	for _, component := range components {
		switch component.State {
		case StateDegraded, StateStale:
			return StateDegraded
		case StateStarting:
			overall = StateStarting
		}
	}
	return overall
}

func canBecomeStale(state string) bool {
	switch state {
	case StateHealthy, StateStarting:
		return true
	default:
		return false
	}
}
