package constants

const (
	SessionStatusWaiting   = "waiting"
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

const (
	PowerUpSkipQuestion = "skip_question"
	PowerUpDoublePoints = "double_points"
	PowerUpFiftyFifty   = "fifty_fifty"
)

const (
	FlowActionStart    = "start"
	FlowActionNext     = "next"
	FlowActionReveal   = "reveal"
	FlowActionComplete = "complete"
	FlowActionRestart  = "restart"
)

const (
	PowerUpActionUse        = "use"
	PowerUpActionInitialize = "initialize"
)

// GameCompletedQueue receives post-game notification messages.
const GameCompletedQueue = "game.completed"

func IsPowerUpType(t string) bool {
	switch t {
	case PowerUpSkipQuestion, PowerUpDoublePoints, PowerUpFiftyFifty:
		return true
	}
	return false
}
