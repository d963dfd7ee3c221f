package courrier

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	sequencePattern = regexp.MustCompile(`^[0-9]{5}$`)
	// numbers the generator produced once the register passed 99999
	overflowPattern = regexp.MustCompile(`^[1-9][0-9]{5,}$`)
)

// IsSequenceNumber reports whether s has the 5-digit form the generator uses
func IsSequenceNumber(s string) bool {
	return sequencePattern.MatchString(s)
}

// NextSequence returns the highest 5-digit sequence number in records plus
// one, zero padded. Values of any other shape are ignored, except the
// longer numbers produced past 99999, so numbering keeps growing there.
// An empty list starts at 00001.
func NextSequence(records []Record) string {
	highest := 0
	for _, r := range records {
		if !IsSequenceNumber(r.SequenceNumber) && !overflowPattern.MatchString(r.SequenceNumber) {
			continue
		}
		n, err := strconv.Atoi(r.SequenceNumber)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%05d", highest+1)
}
