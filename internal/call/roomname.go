package call

import "strings"

// roomName derives the externally addressable conferencing room from the
// participants and the session id. The id suffix keeps it collision
// resistant even for identical display names; slugging keeps it URL-safe.
func roomName(doctor, patient, id string) string {
	short := id
	if i := strings.IndexByte(id, '-'); i > 0 {
		short = id[:i]
	}
	return "consult-" + slug(doctor) + "-" + slug(patient) + "-" + short
}

func slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "user"
	}
	return out
}
