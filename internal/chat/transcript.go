package chat

// DefaultHistory is the number of entries a Transcript keeps.
const DefaultHistory = 200

// Transcript is the bounded in-memory conversation log, oldest first.
// It is owned by the session loop and is not safe for concurrent use.
type Transcript struct {
	entries []Entry
	limit   int
}

// NewTranscript returns an empty transcript holding at most limit entries.
// A non-positive limit selects DefaultHistory.
func NewTranscript(limit int) *Transcript {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Transcript{limit: limit}
}

// Append adds e, evicting the oldest entry once the limit is exceeded.
func (t *Transcript) Append(e Entry) {
	t.entries = append(t.entries, e)
	if over := len(t.entries) - t.limit; over > 0 {
		t.entries = append([]Entry(nil), t.entries[over:]...)
	}
}

// Entries returns a copy of the most recent n entries, oldest first.
// n <= 0 returns everything.
func (t *Transcript) Entries(n int) []Entry {
	start := 0
	if n > 0 && n < len(t.entries) {
		start = len(t.entries) - n
	}
	out := make([]Entry, len(t.entries)-start)
	copy(out, t.entries[start:])
	return out
}

// Len returns the number of entries held.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Limit returns the maximum number of entries held.
func (t *Transcript) Limit() int {
	return t.limit
}
