package pins

import "time"

type Pin struct {
	ID           string    `json:"id"`
	GiverID      string    `json:"giverId"`
	GiverName    string    `json:"giverName,omitempty"`
	ReceiverID   string    `json:"receiverId"`
	ReceiverName string    `json:"receiverName,omitempty"`
	WeekNumber   int       `json:"weekNumber"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Allowance struct {
	WeekNumber    int `json:"weekNumber"`
	Year          int `json:"year"`
	PinsRemaining int `json:"pinsRemaining"`
	PinsUsed      int `json:"pinsUsed"`
}

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     string `json:"userId"`
	FullName   string `json:"fullName"`
	Department string `json:"department"`
	Pins       int    `json:"pins"`
}

type GiveResult struct {
	Pin       Pin       `json:"pin"`
	Allowance Allowance `json:"allowance"`
}
