package courrier

import (
	"fmt"
	"strings"
)

// Direction partitions the registry into incoming and outgoing mail
type Direction string

const (
	Incoming Direction = "INCOMING"
	Outgoing Direction = "OUTGOING"
)

// Directions lists every direction in display order
func Directions() []Direction {
	return []Direction{Incoming, Outgoing}
}

// ParseDirection accepts the canonical names, the legacy ARRIVE/DEPART
// spellings and the short in/out forms
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "incoming", "in", "arrive", "arrivee", "arrivée":
		return Incoming, nil
	case "outgoing", "out", "depart", "départ":
		return Outgoing, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Valid reports whether d is one of the two known directions
func (d Direction) Valid() bool {
	return d == Incoming || d == Outgoing
}

// Label returns the French display name
func (d Direction) Label() string {
	switch d {
	case Incoming:
		return "Courrier arrivé"
	case Outgoing:
		return "Courrier départ"
	}
	return string(d)
}

// legacyDirection converts the "type" field written by older versions
func legacyDirection(s string) Direction {
	d, err := ParseDirection(s)
	if err != nil {
		return Direction(s)
	}
	return d
}
