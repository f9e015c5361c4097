package gamehandlers

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	gameevents "github.com/EugeneDlg/wwwbot/app/modules/game/events"
)

func newTestHandlers() (*GameHandlers, *FakeGameService, *FakeOutbox) {
	service := NewFakeGameService()
	outbox := &FakeOutbox{}
	return NewGameHandlers(service, outbox, slog.Default()), service, outbox
}

func wmMessage(payload string) *message.Message {
	return message.NewMessage("test-message", []byte(payload))
}

func TestHandleUpdateRoutesButtons(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{name: "register gates the question pool", command: "register", want: []string{"EnsureQuestionsAvailable", "Register"}},
		{name: "start", command: "start", want: []string{"Start"}},
		{name: "top", command: "top", want: []string{"SpinTop"}},
		{name: "speaker", command: "speaker101", want: []string{"SelectSpeaker"}},
		{name: "again gates the question pool", command: "again", want: []string{"EnsureQuestionsAvailable", "PlayAgain"}},
		{name: "unknown command is dropped", command: "dance", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers, service, _ := newTestHandlers()
			payload := `{"type":"message_event","object":{"event_id":"abc","user_id":101,` +
				`"peer_id":2000000001,"payload":{"command":"` + tt.command + `"}}}`

			if err := handlers.HandleUpdate(wmMessage(payload)); err != nil {
				t.Fatalf("HandleUpdate() error = %v", err)
			}
			if !reflect.DeepEqual(service.Trace(), tt.want) {
				t.Errorf("trace = %v, want %v", service.Trace(), tt.want)
			}
		})
	}
}

func TestHandleUpdateRoutesTextCommands(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "hello gates the question pool", text: "/hello", want: []string{"EnsureQuestionsAvailable", "Hello"}},
		{name: "hello is case insensitive", text: " /HELLO ", want: []string{"EnsureQuestionsAvailable", "Hello"}},
		{name: "help", text: "/help", want: []string{"Help"}},
		{name: "scores", text: "/scores", want: []string{"Scores"}},
		{name: "finish", text: "/finish", want: []string{"Finish"}},
		{name: "free text is an answer attempt", text: "думаю, это Пушкин", want: []string{"SubmitAnswer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers, service, _ := newTestHandlers()
			payload := `{"type":"message_new","object":{"message":{"id":7,"from_id":101,` +
				`"peer_id":2000000001,"text":"` + tt.text + `"}}}`

			if err := handlers.HandleUpdate(wmMessage(payload)); err != nil {
				t.Fatalf("HandleUpdate() error = %v", err)
			}
			if !reflect.DeepEqual(service.Trace(), tt.want) {
				t.Errorf("trace = %v, want %v", service.Trace(), tt.want)
			}
		})
	}
}

func TestHandleUpdateRoutesProfileReply(t *testing.T) {
	handlers, service, _ := newTestHandlers()
	payload := `{"type":"vk_user_request","vk_user_request":101,"first_name":"Анна",` +
		`"last_name":"Петрова","peer_id":2000000001,"event_id":"abc"}`

	if err := handlers.HandleUpdate(wmMessage(payload)); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if !reflect.DeepEqual(service.Trace(), []string{"CompleteRegistration"}) {
		t.Errorf("trace = %v, want CompleteRegistration", service.Trace())
	}
}

func TestHandleUpdateDropsUnparseablePayload(t *testing.T) {
	handlers, service, _ := newTestHandlers()

	if err := handlers.HandleUpdate(wmMessage("not json")); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if err := handlers.HandleUpdate(wmMessage(`{"type":"wall_post_new"}`)); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if len(service.Trace()) != 0 {
		t.Errorf("trace = %v, want no calls", service.Trace())
	}
}

func TestHandleUpdateEphemeralRuleErrorBecomesSnackbar(t *testing.T) {
	handlers, service, outbox := newTestHandlers()
	service.SpinTopFunc = func(ctx context.Context, ev gamedto.ButtonEvent) error {
		return gamedomain.NewEphemeralRuleError("Эта кнопка только для капитана")
	}
	payload := `{"type":"message_event","object":{"event_id":"abc","user_id":101,` +
		`"peer_id":2000000001,"payload":{"command":"top"}}}`

	if err := handlers.HandleUpdate(wmMessage(payload)); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}

	out := outbox.Last()
	if out.EventData == nil || out.EventData.Type != "show_snackbar" {
		t.Fatalf("outbound = %+v, want a snackbar", out)
	}
	if out.EventID != "abc" || out.UserID != 101 {
		t.Errorf("outbound addressing = %+v, want the triggering event", out)
	}
}

func TestHandleUpdateRuleErrorBecomesChatMessage(t *testing.T) {
	handlers, service, outbox := newTestHandlers()
	service.SubmitAnswerFunc = func(ctx context.Context, msg gamedto.NewMessage) error {
		return gamedomain.NewRuleError("Отвечает другой игрок.")
	}
	payload := `{"type":"message_new","object":{"message":{"id":7,"from_id":102,` +
		`"peer_id":2000000001,"text":"ответ"}}}`

	if err := handlers.HandleUpdate(wmMessage(payload)); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}

	out := outbox.Last()
	if out.EventData != nil {
		t.Errorf("outbound = %+v, want a plain chat message", out)
	}
	if out.PeerID != 2000000001 || out.Text != "Отвечает другой игрок." {
		t.Errorf("outbound = %+v, want the rule text addressed to the chat", out)
	}
}

func TestHandleUpdateReturnsUnexpectedErrors(t *testing.T) {
	handlers, service, _ := newTestHandlers()
	wantErr := errors.New("database is down")
	service.StartFunc = func(ctx context.Context, ev gamedto.ButtonEvent) error {
		return wantErr
	}
	payload := `{"type":"message_event","object":{"event_id":"abc","user_id":101,` +
		`"peer_id":2000000001,"payload":{"command":"start"}}}`

	if err := handlers.HandleUpdate(wmMessage(payload)); !errors.Is(err, wantErr) {
		t.Errorf("HandleUpdate() error = %v, want %v", err, wantErr)
	}
}

func TestHandleUpdateSkipsServiceWhenPoolEmpty(t *testing.T) {
	handlers, service, _ := newTestHandlers()
	service.EnsureQuestionsAvailFunc = func(ctx context.Context, peerID int64) (bool, error) {
		return false, nil
	}
	payload := `{"type":"message_event","object":{"event_id":"abc","user_id":101,` +
		`"peer_id":2000000001,"payload":{"command":"register"}}}`

	if err := handlers.HandleUpdate(wmMessage(payload)); err != nil {
		t.Fatalf("HandleUpdate() error = %v", err)
	}
	if !reflect.DeepEqual(service.Trace(), []string{"EnsureQuestionsAvailable"}) {
		t.Errorf("trace = %v, want only the pool check", service.Trace())
	}
}

func TestHandleTimerExpired(t *testing.T) {
	handlers, service, _ := newTestHandlers()
	var got gameevents.TimerExpiredPayload
	service.HandleTimerExpiredFunc = func(ctx context.Context, payload gameevents.TimerExpiredPayload) error {
		got = payload
		return nil
	}

	payload := `{"game_id":5,"chat_id":2000000001,"kind":"thinking","generation":3}`
	if err := handlers.HandleTimerExpired(wmMessage(payload)); err != nil {
		t.Fatalf("HandleTimerExpired() error = %v", err)
	}

	want := gameevents.TimerExpiredPayload{
		GameID:     5,
		ChatID:     2000000001,
		Kind:       gameevents.TimerThinking,
		Generation: 3,
	}
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
}

func TestHandleTimerExpiredDropsGarbage(t *testing.T) {
	handlers, service, _ := newTestHandlers()
	if err := handlers.HandleTimerExpired(wmMessage("not json")); err != nil {
		t.Fatalf("HandleTimerExpired() error = %v", err)
	}
	if len(service.Trace()) != 0 {
		t.Errorf("trace = %v, want no calls", service.Trace())
	}
}
