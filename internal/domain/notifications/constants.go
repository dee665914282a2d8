package notifications

const (
	TypeFeedbackReceived   = "feedback_received"
	TypeAssessmentReminder = "assessment_reminder"
	TypePinReceived        = "pin_received"
	TypeTriwulanWinner     = "triwulan_winner"
	TypePeriodActivated    = "period_activated"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)
