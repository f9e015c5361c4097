package gameevents

// TimerKind names the four per-game delayed actions. At most one timer of
// each kind is outstanding per game.
type TimerKind string

const (
	TimerTop      TimerKind = "top"
	TimerThinking TimerKind = "thinking"
	TimerCaptain  TimerKind = "captain"
	TimerAnswer   TimerKind = "answer"
)

// TimerExpiredPayload is published on the timer topic when a scheduled timer
// fires. Generation is the game's timer generation at scheduling time; the
// engine ignores firings whose generation no longer matches the game row.
type TimerExpiredPayload struct {
	GameID     int64     `json:"game_id"`
	ChatID     int64     `json:"chat_id"`
	Kind       TimerKind `json:"kind"`
	Generation int64     `json:"generation"`
}
