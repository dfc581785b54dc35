package badger

import "strings"

// Key prefixes for different data types
const (
	vectorPrefix = "jobvec:"
)

// makeVectorKey generates a key for a job's embedding entry.
// Format: prefix:jobID
func makeVectorKey(jobID string) []byte {
	buf := make([]byte, 0, len(vectorPrefix)+len(jobID))
	buf = append(buf, vectorPrefix...)
	return append(buf, jobID...)
}

// jobIDFromVectorKey extracts the job ID from a vector key.
func jobIDFromVectorKey(key []byte) (string, bool) {
	s := string(key)
	if !strings.HasPrefix(s, vectorPrefix) {
		return "", false
	}
	return s[len(vectorPrefix):], true
}
