// Package directory is the in-process stand-in for the external user
// store: read-mostly registered doctors and patients, lookup-by-name.
package directory

import (
	"sort"
	"sync"

	"github.com/medilink/signaling/internal/domain"
)

// Memory is a mutex-guarded in-memory directory, good for a single
// process and for tests.
type Memory struct {
	mu       sync.RWMutex
	doctors  map[string]domain.Doctor
	patients map[string]domain.Patient
}

func NewMemory() *Memory {
	return &Memory{
		doctors:  make(map[string]domain.Doctor),
		patients: make(map[string]domain.Patient),
	}
}

func (m *Memory) AddDoctor(d domain.Doctor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doctors[d.Name] = d
}

func (m *Memory) AddPatient(p domain.Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.Name] = p
}

func (m *Memory) Doctor(name string) (domain.Doctor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.doctors[name]
	return d, ok
}

func (m *Memory) Patient(name string) (domain.Patient, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[name]
	return p, ok
}

func (m *Memory) SetAvailability(name string, available bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.doctors[name]
	if !ok {
		return false
	}
	d.Available = available
	m.doctors[name] = d
	return true
}

func (m *Memory) Doctors() []domain.Doctor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Memory) Patients() []domain.Patient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
