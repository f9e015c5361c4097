package gameservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	gameevents "github.com/EugeneDlg/wwwbot/app/modules/game/events"
	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
)

// Start handles the start button: the captain confirms the registered line-up
// and the game becomes active.
func (s *GameService) Start(ctx context.Context, ev gamedto.ButtonEvent) error {
	unlock := s.locks.lock(ev.PeerID)
	defer unlock()

	game, err := s.registeredGame(ctx, ev.PeerID)
	if err != nil {
		return err
	}
	if game == nil {
		return gamedomain.NewEphemeralRuleError(textBadCommand)
	}
	if err := s.mustBeCaptain(ctx, game, ev.UserID); err != nil {
		return err
	}

	status := gamedomain.StatusActive
	wait := gamedomain.WaitOK
	if err := s.repo.UpdateGame(ctx, game.ID, gamedb.GameUpdate{Status: &status, WaitStatus: &wait}); err != nil {
		return err
	}

	if game.Round == 0 {
		intro := fmt.Sprintf(
			"Начинаем игру! Правила: волчок выбирает вопрос, на обсуждение даётся %s. "+
				"Затем капитан за %s назначает отвечающего, у которого есть %s на ответ. "+
				"Игра идёт до %d очков.",
			literalSeconds(s.cfg.ThinkingTimer),
			literalSeconds(s.cfg.CaptainTimer),
			literalSeconds(s.cfg.AnswerTimer),
			s.cfg.MaxPoints,
		)
		if err := s.sendText(ctx, ev.PeerID, intro); err != nil {
			return err
		}
	}
	return s.offerTop(ctx, game.ChatID)
}

// SpinTop handles the top button: the round counter advances and the timer
// that resolves into a question starts ticking.
func (s *GameService) SpinTop(ctx context.Context, ev gamedto.ButtonEvent) error {
	unlock := s.locks.lock(ev.PeerID)
	defer unlock()

	game, err := s.activeGame(ctx, ev.PeerID)
	if err != nil {
		return err
	}
	if game == nil {
		return gamedomain.NewEphemeralRuleError(textBadCommand)
	}
	if err := s.mustBeCaptain(ctx, game, ev.UserID); err != nil {
		return err
	}
	if game.WaitStatus != gamedomain.WaitOK {
		// Stale button press from a previous keyboard.
		return nil
	}

	round := game.Round + 1
	wait := gamedomain.WaitTop
	if err := s.repo.UpdateGame(ctx, game.ID, gamedb.GameUpdate{Round: &round, WaitStatus: &wait}); err != nil {
		return err
	}
	if err := s.sendText(ctx, ev.PeerID, textTopSpinning); err != nil {
		return err
	}
	return s.startTimer(ctx, game, gameevents.TimerTop, s.cfg.TopTimer)
}

// SelectSpeaker handles the captain picking who answers the current question.
func (s *GameService) SelectSpeaker(ctx context.Context, ev gamedto.ButtonEvent, speakerVKID int64) error {
	unlock := s.locks.lock(ev.PeerID)
	defer unlock()

	game, err := s.activeGame(ctx, ev.PeerID)
	if err != nil {
		return err
	}
	if game == nil {
		return gamedomain.NewEphemeralRuleError(textBadCommand)
	}
	if game.WaitStatus != gamedomain.WaitCaptain && game.WaitStatus != gamedomain.WaitExpired {
		return nil
	}
	if err := s.repo.ClearSpeaker(ctx, game.ID); err != nil {
		return err
	}
	if err := s.mustBeCaptain(ctx, game, ev.UserID); err != nil {
		return err
	}
	if game.WaitStatus == gamedomain.WaitExpired {
		return gamedomain.NewRuleError(textTooLate)
	}

	speaker, err := s.repo.GetPlayerByVKID(ctx, speakerVKID)
	if err != nil {
		return err
	}
	if speaker == nil || !game.HasPlayer(speakerVKID) {
		return gamedomain.NewEphemeralRuleError(textBadCommand)
	}

	if err := s.startTimer(ctx, game, gameevents.TimerAnswer, s.cfg.AnswerTimer/s.blitzFactor(game)); err != nil {
		return err
	}
	if err := s.repo.SetSpeaker(ctx, game.ID, speaker.ID); err != nil {
		return err
	}
	wait := gamedomain.WaitAnswer
	if err := s.repo.UpdateGame(ctx, game.ID, gamedb.GameUpdate{WaitStatus: &wait}); err != nil {
		return err
	}
	text := fmt.Sprintf("Отвечает %s. На ответ %s. %s",
		speaker.FullName(),
		literalSeconds(s.cfg.AnswerTimer/s.blitzFactor(game)),
		textTimeStarted,
	)
	// An empty keyboard retracts the speaker buttons.
	return s.sendKeyboard(ctx, ev.PeerID, text)
}

// HandleTimerExpired applies a fired timer. The persisted generation and wait
// status decide whether the firing is still relevant; a stale one is dropped.
func (s *GameService) HandleTimerExpired(ctx context.Context, payload gameevents.TimerExpiredPayload) error {
	unlock := s.locks.lock(payload.ChatID)
	defer unlock()

	game, err := s.repo.GetGameByID(ctx, payload.GameID)
	if err != nil {
		return err
	}
	if game == nil || game.Status != gamedomain.StatusActive || game.TimerGeneration != payload.Generation {
		s.logger.Debug("dropping stale timer firing",
			slog.Int64("game_id", payload.GameID),
			slog.String("kind", string(payload.Kind)),
			slog.Int64("generation", payload.Generation),
		)
		return nil
	}

	switch payload.Kind {
	case gameevents.TimerTop:
		if game.WaitStatus != gamedomain.WaitTop {
			return nil
		}
		return s.resolveSector(ctx, game)
	case gameevents.TimerThinking:
		if game.WaitStatus != gamedomain.WaitThinking {
			return nil
		}
		return s.askForSpeaker(ctx, game)
	case gameevents.TimerCaptain:
		if game.WaitStatus != gamedomain.WaitCaptain {
			return nil
		}
		return s.loseRound(ctx, game, textTooLate)
	case gameevents.TimerAnswer:
		if game.WaitStatus != gamedomain.WaitAnswer {
			return nil
		}
		return s.loseRound(ctx, game, textTooLate)
	}
	return fmt.Errorf("unknown timer kind %q", payload.Kind)
}

// resolveSector decides what the stopped top points at: a regular question or
// the blitz sector.
func (s *GameService) resolveSector(ctx context.Context, game *gamedomain.Game) error {
	if s.randFloat64() < s.cfg.BlitzProbability {
		return s.startBlitz(ctx, game)
	}
	return s.askQuestion(ctx, game, false)
}

// askQuestion picks an unused question, announces it and starts the thinking
// timer.
func (s *GameService) askQuestion(ctx context.Context, game *gamedomain.Game, blitz bool) error {
	question, err := s.chooseQuestion(ctx, game, blitz)
	if err != nil || question == nil {
		return err
	}

	thinking := s.cfg.ThinkingTimer / s.blitzFactor(game)
	wait := gamedomain.WaitThinking
	waitTime := s.now().Unix()
	upd := gamedb.GameUpdate{
		WaitStatus:        &wait,
		WaitTime:          &waitTime,
		CurrentQuestionID: &question.ID,
	}
	if err := s.repo.UpdateGame(ctx, game.ID, upd); err != nil {
		return err
	}

	prefix := "Внимание, вопрос"
	if blitz {
		prefix = fmt.Sprintf("Вопрос блица номер %d", game.BlitzRound)
	}
	text := fmt.Sprintf("%s: %s\nНа обсуждение %s. %s",
		prefix, question.Text, literalSeconds(thinking), textTimeStarted)
	if err := s.sendText(ctx, game.ChatID, text); err != nil {
		return err
	}
	return s.startTimer(ctx, game, gameevents.TimerThinking, thinking)
}

// askForSpeaker moves the game into the captain's choice phase and offers one
// button per player.
func (s *GameService) askForSpeaker(ctx context.Context, game *gamedomain.Game) error {
	captain, err := s.repo.GetCaptain(ctx, game.ID)
	if err != nil {
		return err
	}
	if captain == nil {
		return fmt.Errorf("game %d has no captain", game.ID)
	}

	wait := gamedomain.WaitCaptain
	if err := s.repo.UpdateGame(ctx, game.ID, gamedb.GameUpdate{WaitStatus: &wait}); err != nil {
		return err
	}

	buttons := make([]gamedto.Button, 0, len(game.Players))
	for _, p := range game.Players {
		label := p.FullName()
		if p.ID == captain.ID {
			label = labelCaptain
		}
		buttons = append(buttons, gamedto.Button{
			Command: gamedomain.Command{Kind: gamedomain.CommandSpeaker, SpeakerVKID: p.VKID}.Wire(),
			Label:   label,
		})
	}
	text := fmt.Sprintf("%s. На выбор %s.", textChooseSpeaker,
		literalSeconds(s.cfg.CaptainTimer/s.blitzFactor(game)))
	if err := s.sendKeyboard(ctx, game.ChatID, text, buttons...); err != nil {
		return err
	}
	return s.startTimer(ctx, game, gameevents.TimerCaptain, s.cfg.CaptainTimer/s.blitzFactor(game))
}

// loseRound awards the round to the host side, reveals the answer and either
// finishes the game or offers the next spin.
func (s *GameService) loseRound(ctx context.Context, game *gamedomain.Game, reason string) error {
	myPoints := game.MyPoints + 1
	blitzRound := 0
	wait := gamedomain.WaitExpired
	upd := gamedb.GameUpdate{MyPoints: &myPoints, BlitzRound: &blitzRound, WaitStatus: &wait}
	if err := s.repo.UpdateGame(ctx, game.ID, upd); err != nil {
		return err
	}
	game.MyPoints = myPoints
	game.BlitzRound = blitzRound

	text := reason
	if answer := s.revealAnswer(ctx, game); answer != "" {
		text += " Правильный ответ: " + answer + "."
	}
	text += " " + scoreLine(game)
	if err := s.sendText(ctx, game.ChatID, text); err != nil {
		return err
	}

	if myPoints >= s.cfg.MaxPoints {
		return s.finishGame(ctx, game, false)
	}
	return s.nextRound(ctx, game)
}

// nextRound returns the game to the idle state and offers the top again.
func (s *GameService) nextRound(ctx context.Context, game *gamedomain.Game) error {
	wait := gamedomain.WaitOK
	if err := s.repo.UpdateGame(ctx, game.ID, gamedb.GameUpdate{WaitStatus: &wait}); err != nil {
		return err
	}
	if err := s.sendText(ctx, game.ChatID, textNextRound); err != nil {
		return err
	}
	return s.offerTop(ctx, game.ChatID)
}

// offerTop sends the spin-the-top keyboard.
func (s *GameService) offerTop(ctx context.Context, chatID int64) error {
	return s.sendKeyboard(ctx, chatID, textSpinTop, gamedto.Button{
		Command: gamedomain.Command{Kind: gamedomain.CommandTop}.Wire(),
		Label:   labelTop,
	})
}

// chooseQuestion picks a random unused question for the game and marks it
// used. An exhausted pool aborts the game.
func (s *GameService) chooseQuestion(ctx context.Context, game *gamedomain.Game, blitz bool) (*gamedomain.Question, error) {
	ids, err := s.repo.UnusedQuestionIDs(ctx, game.ID, blitz)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, s.abortGame(ctx, game, textOutOfQuestions)
	}
	id := ids[s.randIntN(len(ids))]
	question, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, fmt.Errorf("question %s disappeared", id)
	}
	if err := s.repo.MarkQuestionUsed(ctx, game.ID, question.ID); err != nil {
		return nil, err
	}
	return question, nil
}

// mustBeCaptain fails with an ephemeral rule error unless the pressing user is
// the game's captain.
func (s *GameService) mustBeCaptain(ctx context.Context, game *gamedomain.Game, vkID int64) error {
	captain, err := s.repo.GetCaptain(ctx, game.ID)
	if err != nil {
		return err
	}
	if captain == nil || captain.VKID != vkID {
		return gamedomain.NewEphemeralRuleError(textNotCaptain)
	}
	return nil
}

// revealAnswer returns the first canonical alternative of the current
// question's answer, or "" when it cannot be loaded.
func (s *GameService) revealAnswer(ctx context.Context, game *gamedomain.Game) string {
	question, err := s.repo.GetQuestion(ctx, game.CurrentQuestionID)
	if err != nil || question == nil {
		return ""
	}
	alternatives := strings.Split(question.Answer.Text, "|")
	return strings.TrimSpace(alternatives[0])
}

// scoreLine renders the running score, experts first.
func scoreLine(game *gamedomain.Game) string {
	return fmt.Sprintf("Счёт: Знатоки %d - %d Телезрители.", game.PlayersPoints, game.MyPoints)
}
