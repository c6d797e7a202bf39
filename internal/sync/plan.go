package sync

import "github.com/cursorgallery/cursorgallery/internal/inventory"

// Reason explains why a file is part of a plan
type Reason string

const (
	ReasonMissing Reason = "missing" // not present locally
	ReasonStale   Reason = "stale"   // present locally with a different fingerprint
)

// Entry is one file to download
type Entry struct {
	Remote           inventory.RemoteFileRecord
	Reason           Reason
	LocalFingerprint string // empty for ReasonMissing
}

// Plan is the ordered list of files to download. Plans never delete.
type Plan struct {
	Entries []Entry

	// Unverified lists local files kept as-is because the remote declared
	// no fingerprint to compare against.
	Unverified []string
}

// Empty reports whether there is nothing to download
func (p *Plan) Empty() bool {
	return len(p.Entries) == 0
}

// Count returns the number of entries with the given reason
func (p *Plan) Count(reason Reason) int {
	n := 0
	for _, e := range p.Entries {
		if e.Reason == reason {
			n++
		}
	}
	return n
}

// Bytes returns the sum of the declared sizes. Entries of unknown size are
// not counted.
func (p *Plan) Bytes() int64 {
	var total int64
	for _, e := range p.Entries {
		if e.Remote.Size > 0 {
			total += e.Remote.Size
		}
	}
	return total
}
