package domain

import "time"

// Generation job states. Pending is the only initial state; failed can be
// re-entered into pending via an explicit retry.
const (
	GenerationPending    = "pending"
	GenerationProcessing = "processing"
	GenerationCompleted  = "completed"
	GenerationFailed     = "failed"
)

// Curation states applied by the owner to a generated look.
const (
	CurationPending   = "pending"
	CurationSaved     = "saved"
	CurationDiscarded = "discarded"
)

// Credit purchase lifecycle. Completed is terminal and sticky.
const (
	PurchasePending   = "pending"
	PurchaseCompleted = "completed"
	PurchaseFailed    = "failed"
)

// Where a look creation originated from.
const (
	SourceSelection  = "user_selection"
	SourceChat       = "chat"
	SourceRecreate   = "recreate"
	SourceOnboarding = "system_onboarding"
)

// UserAttributedSources are the creation sources that count toward the
// per-user hourly rate limit and that trigger a look_ready push.
var UserAttributedSources = []string{SourceSelection, SourceChat, SourceRecreate}

// IsUserAttributed reports whether src was initiated by a user action
// (as opposed to bulk/system onboarding).
func IsUserAttributed(src string) bool {
	for _, s := range UserAttributedSources {
		if s == src {
			return true
		}
	}
	return false
}

// Notification kinds.
const (
	NotifyLowCredit       = "low_credit"
	NotifyPurchaseSuccess = "purchase_success"
	NotifyLookReady       = "look_ready"
)

const (
	// FreeWeeklyCredits is the no-cost generation ration per rolling week.
	FreeWeeklyCredits = 5
	// FreeCreditWindow is the rolling reset window for the free ration.
	FreeCreditWindow = 7 * 24 * time.Hour
	// LowCreditThreshold triggers a low_credit push when the post-deduct
	// total drops to this value or below.
	LowCreditThreshold = 2

	MinLookItems = 2
	MaxLookItems = 6
	MaxStyleTags = 5

	// HourlyLookLimit caps user-attributed look creations per trailing hour.
	HourlyLookLimit = 10
	RateLimitWindow = time.Hour
)
