package gameservice

import (
	"context"
	"fmt"
	"log/slog"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
)

// Register handles the register button. For unknown users the registration is
// two-phase: a profile lookup is requested from the platform and the flow
// resumes in CompleteRegistration when the echo arrives.
func (s *GameService) Register(ctx context.Context, ev gamedto.ButtonEvent) error {
	unlock := s.locks.lock(ev.PeerID)
	defer unlock()

	player, err := s.repo.GetPlayerByVKID(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if player == nil {
		return s.requestProfile(ctx, ev)
	}
	return s.register(ctx, ev, player)
}

// requestProfile records the pending lookup keyed by the triggering event id
// and asks the sender to fetch the user's profile.
func (s *GameService) requestProfile(ctx context.Context, ev gamedto.ButtonEvent) error {
	lookup := gamedomain.RegistrationLookup{
		EventID:     ev.EventID,
		ChatID:      ev.PeerID,
		UserID:      ev.UserID,
		RequestedAt: s.now(),
	}
	if err := s.repo.CreateRegistrationLookup(ctx, lookup); err != nil {
		return err
	}
	return s.outbox.Send(ctx, gamedto.Message{
		VKUserRequest: ev.UserID,
		PeerID:        ev.PeerID,
		EventID:       ev.EventID,
	})
}

// CompleteRegistration resumes a pending two-phase registration with the
// profile data echoed back by the sender.
func (s *GameService) CompleteRegistration(ctx context.Context, reply gamedto.ProfileReply) error {
	unlock := s.locks.lock(reply.PeerID)
	defer unlock()

	lookup, err := s.repo.TakeRegistrationLookup(ctx, reply.EventID)
	if err != nil {
		return err
	}
	if lookup == nil {
		// Duplicate delivery of the echo; the first one completed the flow.
		s.logger.Info("no pending registration for profile reply",
			slog.String("event_id", reply.EventID),
		)
		return nil
	}

	player, err := s.repo.CreatePlayer(ctx, reply.VKID, reply.Name, reply.LastName)
	if err != nil {
		return err
	}
	ev := gamedto.ButtonEvent{
		EventID: reply.EventID,
		UserID:  reply.VKID,
		PeerID:  reply.PeerID,
		Command: gamedomain.Command{Kind: gamedomain.CommandRegister}.Wire(),
	}
	return s.register(ctx, ev, player)
}

func (s *GameService) register(ctx context.Context, ev gamedto.ButtonEvent, player *gamedomain.Player) error {
	active, err := s.activeGame(ctx, ev.PeerID)
	if err != nil {
		return err
	}
	if active != nil {
		return gamedomain.NewEphemeralRuleError(textGameInProgress)
	}

	game, err := s.registeredGame(ctx, ev.PeerID)
	if err != nil {
		return err
	}
	if game == nil {
		return s.createGame(ctx, ev, player)
	}
	if game.HasPlayer(player.VKID) {
		// Re-registering is a no-op acknowledged only to the pressing user.
		return s.sendSnackbar(ctx, ev, fmt.Sprintf("%s, Вы уже зарегистрированы как участник в этой игре. ", player.FullName()))
	}
	return s.joinGame(ctx, ev, game, player)
}

func (s *GameService) createGame(ctx context.Context, ev gamedto.ButtonEvent, player *gamedomain.Player) error {
	if _, err := s.repo.CreateGame(ctx, ev.PeerID, []int64{player.ID}); err != nil {
		return err
	}
	text := fmt.Sprintf("%s, Вы зарегистрированы. Ждем остальных участников.", player.FullName())
	if err := s.sendSnackbar(ctx, ev, text); err != nil {
		return err
	}
	return s.sendText(ctx, ev.PeerID, text)
}

func (s *GameService) joinGame(ctx context.Context, ev gamedto.ButtonEvent, game *gamedomain.Game, player *gamedomain.Player) error {
	if err := s.repo.LinkPlayerToGame(ctx, player.ID, game.ID); err != nil {
		return err
	}
	game, err := s.registeredGame(ctx, ev.PeerID)
	if err != nil {
		return err
	}
	if game == nil {
		return fmt.Errorf("game disappeared during registration for chat %d", ev.PeerID)
	}

	// The captain draw happens exactly once, when the count hits the quorum.
	// Later registrants just join and get the plain acknowledgement.
	if len(game.Players) != s.cfg.Players {
		text := fmt.Sprintf("%s, Вы зарегистрированы. Ждем остальных участников.", player.FullName())
		if err := s.sendSnackbar(ctx, ev, text); err != nil {
			return err
		}
		return s.sendText(ctx, ev.PeerID, text)
	}

	// Quorum reached: pick a random captain and invite them to start.
	captain := game.Players[s.randIntN(len(game.Players))]
	if err := s.repo.SetCaptain(ctx, game.ID, captain.ID); err != nil {
		return err
	}
	text := fmt.Sprintf("%s, Вы зарегистрированы. Итак, все участники в сборе. Начинаем игру.", player.FullName())
	if err := s.sendSnackbar(ctx, ev, text); err != nil {
		return err
	}
	text += fmt.Sprintf(
		" Капитаном выбран: %s. Он будет назначать отвечающего на вопрос в каждом раунде. "+
			"Вы готовы? Капитан нажимает кнопку старта.",
		captain.FullName(),
	)
	return s.sendKeyboard(ctx, ev.PeerID, text, gamedto.Button{
		Command: gamedomain.Command{Kind: gamedomain.CommandStart}.Wire(),
		Label:   labelStart,
	})
}
