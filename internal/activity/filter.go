package activity

import "slices"

// SkipReason says why a subscription did not receive an event.
type SkipReason string

const (
	SkipNone            SkipReason = ""
	SkipEventDisabled   SkipReason = "event_disabled"
	SkipAccountDeletion SkipReason = "account_repository_deleted"
	SkipLabel           SkipReason = "label_filtered"
)

// Relevant runs the checks that need nothing but the event and the
// subscription: event type enablement and the account-scope exclusion of
// repository deletions.
func Relevant(ev *Event, sub *Subscription) SkipReason {
	if !sub.IsEnabledForEvent(ev.Type) {
		return SkipEventDisabled
	}
	if ev.IsRepositoryDeletion() && sub.Scope == ScopeAccount {
		return SkipAccountDeletion
	}
	return SkipNone
}

// PassesLabelFilter applies the subscription's label whitelist. Filtering
// only applies when there is an issue or pull request, it carries a labels
// field, and the whitelist is non-empty; otherwise the event passes. When
// it applies, at least one label must be whitelisted (exact match).
func PassesLabelFilter(issue *Issue, settings Settings) bool {
	if issue == nil || issue.Labels == nil || len(settings.Labels) == 0 {
		return true
	}
	for _, l := range issue.Labels {
		if slices.Contains(settings.Labels, l.Name) {
			return true
		}
	}
	return false
}

func labelNames(issue *Issue) []string {
	if issue == nil {
		return nil
	}
	names := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		names = append(names, l.Name)
	}
	return names
}
