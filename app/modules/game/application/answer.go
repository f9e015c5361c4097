package gameservice

import (
	"context"
	"fmt"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
)

// SubmitAnswer treats a free-text message as an answer attempt. Outside the
// answer phase most messages are ordinary chatter and are ignored.
func (s *GameService) SubmitAnswer(ctx context.Context, msg gamedto.NewMessage) error {
	unlock := s.locks.lock(msg.PeerID)
	defer unlock()

	game, err := s.activeGame(ctx, msg.PeerID)
	if err != nil {
		return err
	}
	if game == nil {
		return nil
	}

	switch game.WaitStatus {
	case gamedomain.WaitThinking:
		if !game.HasPlayer(msg.UserID) {
			return nil
		}
		remaining := int(game.WaitTime + int64(s.cfg.ThinkingTimer/s.blitzFactor(game)) - s.now().Unix())
		if remaining < 0 {
			remaining = 0
		}
		return gamedomain.NewRuleError(fmt.Sprintf("Ещё идёт обсуждение. До ответа %s.", literalSeconds(remaining)))
	case gamedomain.WaitAnswer, gamedomain.WaitExpired:
	default:
		return nil
	}

	if !game.HasPlayer(msg.UserID) {
		return nil
	}
	speaker, err := s.repo.GetSpeaker(ctx, game.ID)
	if err != nil {
		return err
	}
	if speaker == nil || speaker.VKID != msg.UserID {
		return gamedomain.NewRuleError(textNotSpeaker)
	}
	if game.WaitStatus == gamedomain.WaitExpired {
		return gamedomain.NewRuleError(textTooLate)
	}

	if err := s.invalidateTimers(ctx, game.ID); err != nil {
		return err
	}
	question, err := s.repo.GetQuestion(ctx, game.CurrentQuestionID)
	if err != nil {
		return err
	}
	if question == nil {
		return fmt.Errorf("game %d waits for an answer without a question", game.ID)
	}

	if !question.Answer.Matches(msg.Text) {
		return s.loseRound(ctx, game, "К сожалению, ответ неверный.")
	}
	return s.winQuestion(ctx, game)
}

// winQuestion handles a correct answer. Inside a blitz the point is awarded
// only after the final question; otherwise every correct answer scores.
func (s *GameService) winQuestion(ctx context.Context, game *gamedomain.Game) error {
	if game.InBlitz() && game.BlitzRound < gamedomain.BlitzRounds {
		if err := s.sendText(ctx, game.ChatID, "Ответ верный!"); err != nil {
			return err
		}
		return s.proceedBlitz(ctx, game)
	}

	text := "Ответ верный! Знатоки получают очко."
	if game.InBlitz() {
		text = textBlitzWon + " Знатоки получают очко."
	}

	playersPoints := game.PlayersPoints + 1
	blitzRound := 0
	wait := gamedomain.WaitOK
	upd := gamedb.GameUpdate{PlayersPoints: &playersPoints, BlitzRound: &blitzRound, WaitStatus: &wait}
	if err := s.repo.UpdateGame(ctx, game.ID, upd); err != nil {
		return err
	}
	game.PlayersPoints = playersPoints
	game.BlitzRound = blitzRound
	if err := s.repo.AddRoundPoints(ctx, game.ID); err != nil {
		return err
	}

	if err := s.sendText(ctx, game.ChatID, text+" "+scoreLine(game)); err != nil {
		return err
	}
	if playersPoints >= s.cfg.MaxPoints {
		return s.finishGame(ctx, game, true)
	}
	return s.nextRound(ctx, game)
}
