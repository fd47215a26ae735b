package directory

import (
	"testing"

	"github.com/medilink/signaling/internal/domain"
)

func TestMemory_LookupByName(t *testing.T) {
	m := NewMemory()
	m.AddDoctor(domain.Doctor{Name: "Dr. Adams", Specialty: "cardiology", Available: true})
	m.AddPatient(domain.Patient{Name: "Bela", Age: 34})

	if _, ok := m.Doctor("Dr. Adams"); !ok {
		t.Fatalf("expected doctor lookup to succeed")
	}
	if _, ok := m.Doctor("Bela"); ok {
		t.Fatalf("patient must not resolve as doctor")
	}
	if _, ok := m.Patient("Bela"); !ok {
		t.Fatalf("expected patient lookup to succeed")
	}
}

func TestMemory_SetAvailability(t *testing.T) {
	m := NewMemory()
	m.AddDoctor(domain.Doctor{Name: "Dr. Adams", Available: true})

	if !m.SetAvailability("Dr. Adams", false) {
		t.Fatalf("expected availability update to succeed")
	}
	d, _ := m.Doctor("Dr. Adams")
	if d.Available {
		t.Fatalf("expected doctor unavailable")
	}
	if m.SetAvailability("Dr. Nobody", true) {
		t.Fatalf("unknown doctor must not be updatable")
	}
}

func TestMemory_ListingsSorted(t *testing.T) {
	m := NewMemory()
	m.AddDoctor(domain.Doctor{Name: "Dr. Zhu"})
	m.AddDoctor(domain.Doctor{Name: "Dr. Adams"})

	docs := m.Doctors()
	if len(docs) != 2 || docs[0].Name != "Dr. Adams" {
		t.Fatalf("expected sorted listing, got %+v", docs)
	}
}
