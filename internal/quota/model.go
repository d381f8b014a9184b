package quota

import "time"

// Plan names the subscription tiers. Unknown plans degrade to free.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanBasic Plan = "basic"
	PlanPro   Plan = "pro"
)

// Unlimited marks a plan with no monthly cap.
const Unlimited = -1

// Window is the rolling period after which monthly counters reset.
const Window = 30 * 24 * time.Hour

// Allowance returns the number of analyses the plan permits per window.
func (p Plan) Allowance() int {
	switch p {
	case PlanBasic:
		return 50
	case PlanPro:
		return Unlimited
	default:
		return 3
	}
}

// ParsePlan normalizes a stored plan string.
func ParsePlan(s string) Plan {
	switch Plan(s) {
	case PlanBasic:
		return PlanBasic
	case PlanPro:
		return PlanPro
	default:
		return PlanFree
	}
}

// State is a user's consumption snapshot within the current window.
type State struct {
	UserID       string    `json:"-"`
	Plan         Plan      `json:"plan"`
	MonthlyCount int       `json:"monthlyCount"`
	TotalCount   int       `json:"totalCount"`
	WindowStart  time.Time `json:"windowStart"`
}

// Remaining reports how many analyses are left in the window.
// Unlimited plans always report Unlimited.
func (s State) Remaining() int {
	limit := s.Plan.Allowance()
	if limit == Unlimited {
		return Unlimited
	}
	left := limit - s.MonthlyCount
	if left < 0 {
		return 0
	}
	return left
}

// ResetsAt is when the current window rolls over.
func (s State) ResetsAt() time.Time {
	return s.WindowStart.Add(Window)
}

func defaultState(userID string, now time.Time) State {
	return State{
		UserID:      userID,
		Plan:        PlanFree,
		WindowStart: now,
	}
}

// expired reports whether the window has elapsed at the given instant.
func (s State) expired(now time.Time) bool {
	return !now.Before(s.WindowStart.Add(Window))
}
