package model

import "fmt"

// Session is one timed session of a grand prix weekend.
type Session int

const (
	Practice1 Session = iota
	Practice2
	Practice3
	Qualifying
	Sprint
	Race
)

var sessionNames = [...]string{ //nolint:gochecknoglobals // fixed provider names
	Practice1:  "Practice 1",
	Practice2:  "Practice 2",
	Practice3:  "Practice 3",
	Qualifying: "Qualifying",
	Sprint:     "Sprint",
	Race:       "Race",
}

// Sessions returns every session in canonical weekend order.
func Sessions() []Session {
	return []Session{Practice1, Practice2, Practice3, Qualifying, Sprint, Race}
}

// String returns the provider's session name, which is also the column prefix.
func (s Session) String() string {
	if s < Practice1 || s > Race {
		return "Unknown"
	}
	return sessionNames[s]
}

// Practice reports whether s is one of the free practice sessions.
func (s Session) Practice() bool {
	return s == Practice1 || s == Practice2 || s == Practice3
}

// ParseSession maps a provider session name back to a Session.
func ParseSession(name string) (Session, bool) {
	for _, s := range Sessions() {
		if sessionNames[s] == name {
			return s, true
		}
	}
	return 0, false
}

// MarshalText encodes s as its provider name.
func (s Session) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a provider session name.
func (s *Session) UnmarshalText(b []byte) error {
	parsed, ok := ParseSession(string(b))
	if !ok {
		return fmt.Errorf("unknown session %q", b)
	}
	*s = parsed
	return nil
}
