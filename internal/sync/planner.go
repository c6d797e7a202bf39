package sync

import "github.com/cursorgallery/cursorgallery/internal/inventory"

// BuildPlan compares the two inventories and returns the files to download.
// A remote file is planned when it is missing locally or when the remote
// declared a fingerprint that differs from the local one. A file present on
// both sides without a declared fingerprint is assumed current. Local-only
// files are never touched. Entries are ordered by relative path.
func BuildPlan(local inventory.Local, remote inventory.Remote) *Plan {
	plan := &Plan{
		Entries: make([]Entry, 0),
	}

	for _, rel := range remote.Paths() {
		r := remote[rel]
		l, exists := local[rel]

		switch {
		case !exists:
			plan.Entries = append(plan.Entries, Entry{Remote: r, Reason: ReasonMissing})
		case !r.HasFingerprint():
			plan.Unverified = append(plan.Unverified, rel)
		case r.DeclaredFingerprint != l.Fingerprint:
			plan.Entries = append(plan.Entries, Entry{
				Remote:           r,
				Reason:           ReasonStale,
				LocalFingerprint: l.Fingerprint,
			})
		}
	}

	return plan
}
