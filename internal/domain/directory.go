package domain

// Doctor is a registered practitioner as the external directory exposes it.
// Lookup is by display name; the directory owns the canonical record.
type Doctor struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty,omitempty"`
	Available bool   `json:"available"`
}

// Patient is a registered patient, lookup-by-name like Doctor.
type Patient struct {
	Name string `json:"name"`
	Age  int    `json:"age,omitempty"`
}
