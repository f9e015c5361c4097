package gamehandlers

import (
	"context"
	"sync"

	gameservice "github.com/EugeneDlg/wwwbot/app/modules/game/application"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	gameevents "github.com/EugeneDlg/wwwbot/app/modules/game/events"
)

// ------------------------
// Fake Game Service
// ------------------------

type FakeGameService struct {
	trace []string

	RegisterFunc             func(ctx context.Context, ev gamedto.ButtonEvent) error
	StartFunc                func(ctx context.Context, ev gamedto.ButtonEvent) error
	SpinTopFunc              func(ctx context.Context, ev gamedto.ButtonEvent) error
	SelectSpeakerFunc        func(ctx context.Context, ev gamedto.ButtonEvent, speakerVKID int64) error
	PlayAgainFunc            func(ctx context.Context, ev gamedto.ButtonEvent) error
	HelloFunc                func(ctx context.Context, msg gamedto.NewMessage) error
	HelpFunc                 func(ctx context.Context, msg gamedto.NewMessage) error
	ScoresFunc               func(ctx context.Context, msg gamedto.NewMessage) error
	FinishFunc               func(ctx context.Context, msg gamedto.NewMessage) error
	SubmitAnswerFunc         func(ctx context.Context, msg gamedto.NewMessage) error
	CompleteRegistrationFunc func(ctx context.Context, reply gamedto.ProfileReply) error
	HandleTimerExpiredFunc   func(ctx context.Context, payload gameevents.TimerExpiredPayload) error
	EnsureQuestionsAvailFunc func(ctx context.Context, peerID int64) (bool, error)
}

var _ gameservice.Service = (*FakeGameService)(nil)

func NewFakeGameService() *FakeGameService {
	return &FakeGameService{trace: []string{}}
}

func (f *FakeGameService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeGameService) Trace() []string {
	return f.trace
}

func (f *FakeGameService) Register(ctx context.Context, ev gamedto.ButtonEvent) error {
	f.record("Register")
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, ev)
	}
	return nil
}

func (f *FakeGameService) Start(ctx context.Context, ev gamedto.ButtonEvent) error {
	f.record("Start")
	if f.StartFunc != nil {
		return f.StartFunc(ctx, ev)
	}
	return nil
}

func (f *FakeGameService) SpinTop(ctx context.Context, ev gamedto.ButtonEvent) error {
	f.record("SpinTop")
	if f.SpinTopFunc != nil {
		return f.SpinTopFunc(ctx, ev)
	}
	return nil
}

func (f *FakeGameService) SelectSpeaker(ctx context.Context, ev gamedto.ButtonEvent, speakerVKID int64) error {
	f.record("SelectSpeaker")
	if f.SelectSpeakerFunc != nil {
		return f.SelectSpeakerFunc(ctx, ev, speakerVKID)
	}
	return nil
}

func (f *FakeGameService) PlayAgain(ctx context.Context, ev gamedto.ButtonEvent) error {
	f.record("PlayAgain")
	if f.PlayAgainFunc != nil {
		return f.PlayAgainFunc(ctx, ev)
	}
	return nil
}

func (f *FakeGameService) Hello(ctx context.Context, msg gamedto.NewMessage) error {
	f.record("Hello")
	if f.HelloFunc != nil {
		return f.HelloFunc(ctx, msg)
	}
	return nil
}

func (f *FakeGameService) Help(ctx context.Context, msg gamedto.NewMessage) error {
	f.record("Help")
	if f.HelpFunc != nil {
		return f.HelpFunc(ctx, msg)
	}
	return nil
}

func (f *FakeGameService) Scores(ctx context.Context, msg gamedto.NewMessage) error {
	f.record("Scores")
	if f.ScoresFunc != nil {
		return f.ScoresFunc(ctx, msg)
	}
	return nil
}

func (f *FakeGameService) Finish(ctx context.Context, msg gamedto.NewMessage) error {
	f.record("Finish")
	if f.FinishFunc != nil {
		return f.FinishFunc(ctx, msg)
	}
	return nil
}

func (f *FakeGameService) SubmitAnswer(ctx context.Context, msg gamedto.NewMessage) error {
	f.record("SubmitAnswer")
	if f.SubmitAnswerFunc != nil {
		return f.SubmitAnswerFunc(ctx, msg)
	}
	return nil
}

func (f *FakeGameService) CompleteRegistration(ctx context.Context, reply gamedto.ProfileReply) error {
	f.record("CompleteRegistration")
	if f.CompleteRegistrationFunc != nil {
		return f.CompleteRegistrationFunc(ctx, reply)
	}
	return nil
}

func (f *FakeGameService) HandleTimerExpired(ctx context.Context, payload gameevents.TimerExpiredPayload) error {
	f.record("HandleTimerExpired")
	if f.HandleTimerExpiredFunc != nil {
		return f.HandleTimerExpiredFunc(ctx, payload)
	}
	return nil
}

func (f *FakeGameService) EnsureQuestionsAvailable(ctx context.Context, peerID int64) (bool, error) {
	f.record("EnsureQuestionsAvailable")
	if f.EnsureQuestionsAvailFunc != nil {
		return f.EnsureQuestionsAvailFunc(ctx, peerID)
	}
	return true, nil
}

// ------------------------
// Fake Outbox
// ------------------------

type FakeOutbox struct {
	mu       sync.Mutex
	Messages []gamedto.Message
}

var _ gameservice.Outbox = (*FakeOutbox)(nil)

func (f *FakeOutbox) Send(ctx context.Context, msg gamedto.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, msg)
	return nil
}

func (f *FakeOutbox) Last() gamedto.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Messages) == 0 {
		return gamedto.Message{}
	}
	return f.Messages[len(f.Messages)-1]
}
