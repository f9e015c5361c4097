package gameservice

import (
	"context"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
)

// Hello handles the /hello command by opening registration for a new game.
func (s *GameService) Hello(ctx context.Context, msg gamedto.NewMessage) error {
	unlock := s.locks.lock(msg.PeerID)
	defer unlock()

	if err := s.ensureNoGame(ctx, msg.PeerID); err != nil {
		return err
	}
	greeting := "Привет! Это игра \"Что? Где? Когда?\". Знатоки играют против Телезрителей."
	if err := s.sendText(ctx, msg.PeerID, greeting); err != nil {
		return err
	}
	return s.openRegistration(ctx, msg.PeerID)
}

// Help handles the /help command.
func (s *GameService) Help(ctx context.Context, msg gamedto.NewMessage) error {
	return s.sendText(ctx, msg.PeerID, textHelp)
}

// Scores handles the /scores command with all-time totals for every known
// player.
func (s *GameService) Scores(ctx context.Context, msg gamedto.NewMessage) error {
	players, err := s.repo.ListPlayers(ctx)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return s.sendText(ctx, msg.PeerID, "Пока никто не сыграл ни одной игры.")
	}
	byValue := make([]gamedomain.Player, 0, len(players))
	for _, p := range players {
		byValue = append(byValue, *p)
	}
	totals, err := s.allTimeTotals(ctx, byValue)
	if err != nil {
		return err
	}
	return s.sendText(ctx, msg.PeerID, "Очки за все игры:\n"+totals)
}
