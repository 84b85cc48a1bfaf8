package activity

import "github.com/jagadeesh/activity-router/internal/slack"

// DeliveryOutcome classifies a delivery failure.
type DeliveryOutcome int

const (
	// OutcomeTransient failures may succeed later and are returned to
	// the caller untouched.
	OutcomeTransient DeliveryOutcome = iota
	// OutcomePermanent failures mean the channel or workspace integration
	// is gone; the subscription is removed without notice.
	OutcomePermanent
)

func (o DeliveryOutcome) String() string {
	if o == OutcomePermanent {
		return "permanent"
	}
	return "transient"
}

// ClassifyDeliveryError maps a delivery callback error onto an outcome.
// Only the closed set of Slack error kinds is consulted.
func ClassifyDeliveryError(err error) DeliveryOutcome {
	if err == nil {
		return OutcomeTransient
	}
	if slack.KindOf(err).Permanent() {
		return OutcomePermanent
	}
	return OutcomeTransient
}
