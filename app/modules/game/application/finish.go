package gameservice

import (
	"context"
	"fmt"
	"strings"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
)

// finishGame closes the game, announces the winner with all-time totals and
// offers a rematch.
func (s *GameService) finishGame(ctx context.Context, game *gamedomain.Game, playersWon bool) error {
	status := gamedomain.StatusFinished
	wait := gamedomain.WaitOK
	if err := s.repo.UpdateGame(ctx, game.ID, gamedb.GameUpdate{Status: &status, WaitStatus: &wait}); err != nil {
		return err
	}
	if err := s.repo.ClearUsedQuestions(ctx, game.ID); err != nil {
		return err
	}

	verdict := "Победили Телезрители! Повезёт в следующий раз."
	if playersWon {
		verdict = "Победили Знатоки! Поздравляем!"
	}
	text := fmt.Sprintf("Игра окончена. %s %s", verdict, scoreLine(game))
	if totals, err := s.allTimeTotals(ctx, game.Players); err != nil {
		return err
	} else if totals != "" {
		text += "\nОчки за все игры:\n" + totals
	}
	if err := s.sendText(ctx, game.ChatID, text); err != nil {
		return err
	}
	return s.offerRematch(ctx, game.ChatID)
}

// abortGame ends the game ahead of schedule, outside the normal win path.
func (s *GameService) abortGame(ctx context.Context, game *gamedomain.Game, reason string) error {
	if err := s.invalidateTimers(ctx, game.ID); err != nil {
		return err
	}
	status := gamedomain.StatusFinished
	wait := gamedomain.WaitOK
	if err := s.repo.UpdateGame(ctx, game.ID, gamedb.GameUpdate{Status: &status, WaitStatus: &wait}); err != nil {
		return err
	}
	if err := s.repo.ClearUsedQuestions(ctx, game.ID); err != nil {
		return err
	}
	text := reason + " " + textGameAborted + " " + scoreLine(game)
	if err := s.sendText(ctx, game.ChatID, text); err != nil {
		return err
	}
	return s.offerRematch(ctx, game.ChatID)
}

// Finish handles the /finish command: the captain ends the game early.
func (s *GameService) Finish(ctx context.Context, msg gamedto.NewMessage) error {
	unlock := s.locks.lock(msg.PeerID)
	defer unlock()

	game, err := s.activeGame(ctx, msg.PeerID)
	if err != nil {
		return err
	}
	if game != nil {
		if err := s.mustBeCaptain(ctx, game, msg.UserID); err != nil {
			return err
		}
		return s.abortGame(ctx, game, "")
	}

	game, err = s.registeredGame(ctx, msg.PeerID)
	if err != nil {
		return err
	}
	if game == nil {
		return gamedomain.NewRuleError(textBadCommand)
	}
	// Registration has no captain yet; anyone may call it off.
	if err := s.repo.DeleteGame(ctx, game.ID); err != nil {
		return err
	}
	return s.sendText(ctx, msg.PeerID, textGameAborted)
}

// PlayAgain handles the rematch button by reopening registration.
func (s *GameService) PlayAgain(ctx context.Context, ev gamedto.ButtonEvent) error {
	unlock := s.locks.lock(ev.PeerID)
	defer unlock()

	if err := s.ensureNoGame(ctx, ev.PeerID); err != nil {
		return err
	}
	if err := s.sendSnackbar(ctx, ev, textAgainAck); err != nil {
		return err
	}
	return s.openRegistration(ctx, ev.PeerID)
}

// ensureNoGame fails when the chat already has a game in registration or play.
func (s *GameService) ensureNoGame(ctx context.Context, chatID int64) error {
	for _, status := range []gamedomain.Status{gamedomain.StatusActive, gamedomain.StatusRegistered} {
		game, err := s.repo.GetGame(ctx, chatID, status)
		if err != nil {
			return err
		}
		if game != nil {
			return gamedomain.NewEphemeralRuleError(textGameInProgress)
		}
	}
	return nil
}

// openRegistration invites the chat to sign up for a game.
func (s *GameService) openRegistration(ctx context.Context, chatID int64) error {
	text := fmt.Sprintf("%s. Нужно %d участников.", textRegistrationOpen, s.cfg.Players)
	return s.sendKeyboard(ctx, chatID, text, gamedto.Button{
		Command: gamedomain.Command{Kind: gamedomain.CommandRegister}.Wire(),
		Label:   labelRegister,
	})
}

// offerRematch sends the play-again keyboard.
func (s *GameService) offerRematch(ctx context.Context, chatID int64) error {
	return s.sendKeyboard(ctx, chatID, textPlayAgain, gamedto.Button{
		Command: gamedomain.Command{Kind: gamedomain.CommandAgain}.Wire(),
		Label:   labelAgain,
	})
}

// allTimeTotals renders each player's cumulative score across all games.
func (s *GameService) allTimeTotals(ctx context.Context, players []gamedomain.Player) (string, error) {
	lines := make([]string, 0, len(players))
	for _, p := range players {
		total, err := s.repo.TotalScore(ctx, p.ID)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("%s: %d %s", p.FullName(), total, pluralRu(total, "очко", "очка", "очков")))
	}
	return strings.Join(lines, "\n"), nil
}
