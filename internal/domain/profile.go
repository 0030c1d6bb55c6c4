package domain

// Profile holds a user's notification-delivery state.
type Profile struct {
	UserID   string // Owning user
	FullName string // Display name used in report headers
	ChatID   string // Telegram chat identifier; empty means notifications disabled

	// ProfitAlertPercent is the unrealized-P&L percentage at which an urgent
	// profit alert fires. Nil means the user opted out of profit alerts.
	ProfitAlertPercent *float64

	// LastReportMessageID is the identifier of the most recently sent periodic
	// report message, used for the edit-in-place delivery strategy. Zero means
	// no report has been delivered yet.
	LastReportMessageID int64
}

// Notifiable reports whether the profile can receive messages at all.
func (p *Profile) Notifiable() bool {
	return p != nil && p.ChatID != ""
}
