package game

const (
	// MinRounds and MaxRounds bound the configurable game length; requests
	// outside the range are clamped, never rejected
	MinRounds = 1
	MaxRounds = 10

	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6

	// RoomCodeChars are the characters used for generating room codes (excluding ambiguous chars)
	RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// NoAnswerText stands in for a participant who never answered before the
	// deadline, so the review list always has one entry per participant
	NoAnswerText = "(no answer)"

	// MaxStyleInstructionLen and MaxTopicLen cap player-submitted text
	MaxStyleInstructionLen = 200
	MaxTopicLen            = 100

	// PromptBackfillCount is how many questions one Generation Service call
	// asks for when the pregenerated reservoir runs dry
	PromptBackfillCount = 5
)

// Scoring payouts (per round unless noted)
const (
	// PointsDetection goes to each human who voted for the AI when the AI
	// is caught
	PointsDetection = 2

	// PointsDeception goes to the single human the room wrongly converged on
	PointsDeception = 3

	// PointsAISurvived goes to the AI whenever it is not caught
	PointsAISurvived = 1

	// PointsPerVoteReceived is the end-of-game deception bonus per
	// cumulative vote a human received across all rounds
	PointsPerVoteReceived = 1
)
