package application

// Badge is the single label shown for an application's pipeline position.
type Badge string

const (
	BadgeVisaProcess      Badge = "Visa Process"
	BadgeInterview        Badge = "Interview Stage"
	BadgeApplicationStage Badge = "Application Stage"
	BadgeNone             Badge = "N/A"
)

// DeriveStatusBadge picks the latest pipeline stage that is set. Later stages
// dominate earlier ones when several flags are set at once.
func DeriveStatusBadge(a *Application) Badge {
	switch {
	case a == nil:
		return BadgeNone
	case a.VisaProcess:
		return BadgeVisaProcess
	case a.Interview:
		return BadgeInterview
	case a.ApplicationStage:
		return BadgeApplicationStage
	}

	return BadgeNone
}
