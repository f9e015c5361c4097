package gameservice

import (
	"context"

	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	gameevents "github.com/EugeneDlg/wwwbot/app/modules/game/events"
)

// Service is the game engine's operation surface. Button events and text
// messages arrive through the dispatch boundary; timer expiries arrive from
// the timer queue through the bus.
//
// Rule violations are returned as *gamedomain.RuleError and converted into
// outbound messages by the caller; any other error is unexpected.
type Service interface {
	// Button events.
	Register(ctx context.Context, ev gamedto.ButtonEvent) error
	Start(ctx context.Context, ev gamedto.ButtonEvent) error
	SpinTop(ctx context.Context, ev gamedto.ButtonEvent) error
	SelectSpeaker(ctx context.Context, ev gamedto.ButtonEvent, speakerVKID int64) error
	PlayAgain(ctx context.Context, ev gamedto.ButtonEvent) error

	// Free-text messages.
	Hello(ctx context.Context, msg gamedto.NewMessage) error
	Help(ctx context.Context, msg gamedto.NewMessage) error
	Scores(ctx context.Context, msg gamedto.NewMessage) error
	Finish(ctx context.Context, msg gamedto.NewMessage) error
	SubmitAnswer(ctx context.Context, msg gamedto.NewMessage) error

	// CompleteRegistration re-enters the registration flow when the profile
	// lookup echo arrives.
	CompleteRegistration(ctx context.Context, reply gamedto.ProfileReply) error

	// HandleTimerExpired applies a fired timer after verifying the game's
	// persisted state still expects it.
	HandleTimerExpired(ctx context.Context, payload gameevents.TimerExpiredPayload) error

	// EnsureQuestionsAvailable verifies the question pool is playable and
	// warns the chat otherwise.
	EnsureQuestionsAvailable(ctx context.Context, peerID int64) (bool, error)
}
