package gameservice

import (
	"context"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
)

// startBlitz opens a blitz episode: three questions in a row at the same
// round, with shortened timers. A single wrong or late answer loses the whole
// episode.
func (s *GameService) startBlitz(ctx context.Context, game *gamedomain.Game) error {
	if err := s.sendText(ctx, game.ChatID, textBlitzIntro); err != nil {
		return err
	}
	return s.proceedBlitz(ctx, game)
}

// proceedBlitz advances to the next blitz question.
func (s *GameService) proceedBlitz(ctx context.Context, game *gamedomain.Game) error {
	blitzRound := game.BlitzRound + 1
	if err := s.repo.UpdateGame(ctx, game.ID, gamedb.GameUpdate{BlitzRound: &blitzRound}); err != nil {
		return err
	}
	game.BlitzRound = blitzRound
	return s.askQuestion(ctx, game, true)
}
