package pins

const (
	WeeklyAllowance  = 4
	MaxMessageLength = 500
	LeaderboardLimit = 10
)
