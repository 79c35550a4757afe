package draft

import "github.com/safechecks/safechecks/pkg/model"

// Merge folds remote ticks into local: a remote true always wins, and
// nothing local is ever unset. The result is a new map.
func Merge(local, remote model.Ticks) model.Ticks {
	out := local.Clone()
	for id, v := range remote {
		if v {
			out[id] = true
		} else if _, ok := out[id]; !ok {
			out[id] = false
		}
	}
	return out
}

// MergeDraft reconciles a stored draft with a remote copy of the same key.
//
// A finalized remote newer than local resets local to an empty finalized
// draft. Otherwise remote ticks are unioned in, except where local holds
// an untick that is not older than the remote copy.
func MergeDraft(local, remote model.Draft) model.Draft {
	out := local.Clone()

	if remote.Finalized {
		if remote.UpdatedAt.After(local.UpdatedAt) {
			return model.Draft{
				Ticks:     model.Ticks{},
				UpdatedAt: remote.UpdatedAt,
				Finalized: true,
			}
		}
		return out
	}
	if local.Finalized && !remote.UpdatedAt.After(local.UpdatedAt) {
		// Stale progress from before the checklist was submitted.
		return out
	}

	filtered := model.Ticks{}
	for id, v := range remote.Ticks {
		if !v {
			continue
		}
		if at, ok := out.Unticked[id]; ok && !at.Before(remote.UpdatedAt) {
			continue
		}
		filtered[id] = true
		delete(out.Unticked, id)
	}
	out.Ticks = Merge(out.Ticks, filtered)
	if len(out.Unticked) == 0 {
		out.Unticked = nil
	}
	if remote.UpdatedAt.After(out.UpdatedAt) {
		out.UpdatedAt = remote.UpdatedAt
		out.Finalized = false
	}
	return out
}

// Ahead reports whether local knows something the remote copy does not:
// a tick missing from it, or a submission newer than its progress.
func Ahead(local, remote model.Draft) bool {
	if local.Finalized {
		return !remote.Finalized && local.UpdatedAt.After(remote.UpdatedAt)
	}
	for id, v := range local.Ticks {
		if v && !remote.Ticks[id] {
			return true
		}
	}
	return false
}

// Equal reports whether two drafts hold the same state, ignoring Pending.
func Equal(a, b model.Draft) bool {
	if a.Finalized != b.Finalized || !a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	if a.Ticks.Count() != b.Ticks.Count() || len(a.Unticked) != len(b.Unticked) {
		return false
	}
	for id, v := range a.Ticks {
		if v && !b.Ticks[id] {
			return false
		}
	}
	for id, at := range a.Unticked {
		if bt, ok := b.Unticked[id]; !ok || !bt.Equal(at) {
			return false
		}
	}
	return true
}
