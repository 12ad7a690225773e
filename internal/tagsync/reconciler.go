package tagsync

import (
	"context"
	"errors"

	"arremsync/internal/services"
)

// Reconciler adds missing Arr labels to a media server item.
type Reconciler struct {
	writer TagWriter
	dryRun bool
}

// NewReconciler returns a reconciler writing through writer. Under dryRun
// no write is issued.
func NewReconciler(writer TagWriter, dryRun bool) *Reconciler {
	return &Reconciler{writer: writer, dryRun: dryRun}
}

// DryRun reports whether writes are skipped.
func (r *Reconciler) DryRun() bool { return r.dryRun }

// Reconcile sends the labels item does not have yet, in label order. Only
// the missing labels are sent and existing tags are never removed. After a
// real write the added labels are merged into item.Tags.
func (r *Reconciler) Reconcile(ctx context.Context, item *MediaItem, labels []string) Outcome {
	if len(labels) == 0 {
		return Outcome{Kind: OutcomeNoTags}
	}

	missing := Missing(item.Tags, labels)
	if len(missing) == 0 {
		return Outcome{Kind: OutcomeAlreadySynced}
	}

	if r.dryRun {
		return Outcome{Kind: OutcomeUpdated, Added: missing, DryRun: true}
	}

	if err := r.writer.AddTags(ctx, item.ID, missing); err != nil {
		kind := OutcomeError
		if errors.Is(err, services.ErrRejected) {
			kind = OutcomeFailed
		}
		return Outcome{Kind: kind, Err: err}
	}

	if item.Tags == nil {
		item.Tags = NewTagSet()
	}
	for _, tag := range missing {
		item.Tags[tag] = struct{}{}
	}
	return Outcome{Kind: OutcomeUpdated, Added: missing}
}

// Missing returns labels absent from current, keeping first-seen order and
// dropping repeats.
func Missing(current TagSet, labels []string) []string {
	var missing []string
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		if current.Has(label) {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		missing = append(missing, label)
	}
	return missing
}
