package tagsync

import (
	"fmt"
	"strings"
)

// OutcomeKind classifies what happened to one Arr item.
type OutcomeKind int

const (
	OutcomeUpdated OutcomeKind = iota
	OutcomeAlreadySynced
	OutcomeNoTags
	OutcomeNotInMediaServer
	OutcomeFailed
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeUpdated:
		return "updated"
	case OutcomeAlreadySynced:
		return "already_synced"
	case OutcomeNoTags:
		return "no_tags"
	case OutcomeNotInMediaServer:
		return "not_in_emby"
	case OutcomeFailed:
		return "failed"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Failed reports whether the outcome counts as a failed sync.
func (k OutcomeKind) Failed() bool {
	return k == OutcomeFailed || k == OutcomeError
}

// Outcome is the per-item result of a sync. Added holds the tags sent (or,
// under dry-run, the tags that would have been sent). Err is set for
// OutcomeFailed and OutcomeError.
type Outcome struct {
	Kind   OutcomeKind
	Title  string
	Added  []string
	DryRun bool
	Err    error
}

// Message renders the outcome for logs and run summaries.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeUpdated:
		if o.DryRun {
			return "Would add tags: " + formatTags(o.Added)
		}
		return "Added tags: " + formatTags(o.Added)
	case OutcomeAlreadySynced:
		return "Tags already up to date"
	case OutcomeNoTags:
		return "No tags to sync"
	case OutcomeNotInMediaServer:
		return "Item not found in Emby (may not be imported yet)"
	case OutcomeFailed:
		return fmt.Sprintf("Failed to update tags in Emby: %v", o.Err)
	case OutcomeError:
		return fmt.Sprintf("Error: %v", o.Err)
	default:
		return o.Kind.String()
	}
}

func formatTags(tags []string) string {
	return "[" + strings.Join(tags, ", ") + "]"
}
