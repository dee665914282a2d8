package assessment

const (
	MinRating = 1
	MaxRating = 100

	MaxCommentLength = 2000
)
