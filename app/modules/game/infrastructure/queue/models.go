package gamequeue

import (
	gameevents "github.com/EugeneDlg/wwwbot/app/modules/game/events"
)

// TimerExpiryJob is a delayed timer scheduled through River. When it runs it
// publishes a timer-expired event onto the bus; all game state mutation stays
// on the engine's consume path.
type TimerExpiryJob struct {
	GameID     int64                `json:"game_id"`
	ChatID     int64                `json:"chat_id"`
	TimerKind  gameevents.TimerKind `json:"kind"`
	Generation int64                `json:"generation"`
}

// Kind returns the job type identifier for River.
func (TimerExpiryJob) Kind() string { return "game_timer" }
