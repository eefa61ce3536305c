package document

import "github.com/google/uuid"

// canonicalUUIDLen is the length of the 8-4-4-4-12 textual form.
const canonicalUUIDLen = 36

// IsUUID reports whether s is a UUID in canonical 8-4-4-4-12 hexadecimal
// form, in either case. Braced, URN and hyphen-less forms are rejected.
func IsUUID(s string) bool {
	if len(s) != canonicalUUIDLen {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
