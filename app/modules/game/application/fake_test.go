package gameservice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedto "github.com/EugeneDlg/wwwbot/app/modules/game/dto"
	gameevents "github.com/EugeneDlg/wwwbot/app/modules/game/events"
	gamequeue "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/queue"
	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
)

// ------------------------
// Fake Repository
// ------------------------

// FakeRepository is an in-memory Repository. State-changing calls are traced
// so tests can assert on the order of operations.
type FakeRepository struct {
	mu    sync.Mutex
	trace []string

	games      map[int64]*gamedomain.Game
	nextGameID int64

	players      map[int64]*gamedomain.Player
	nextPlayerID int64

	captains map[int64]int64
	speakers map[int64]int64
	scores   map[int64]map[int64]int

	questions map[uuid.UUID]*gamedomain.Question
	used      map[int64]map[uuid.UUID]bool

	lookups map[string]gamedomain.RegistrationLookup

	// Overridable per test; nil falls through to the in-memory behavior.
	UpdateGameFunc func(ctx context.Context, id int64, upd gamedb.GameUpdate) error
}

var _ gamedb.Repository = (*FakeRepository)(nil)

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		games:     map[int64]*gamedomain.Game{},
		players:   map[int64]*gamedomain.Player{},
		captains:  map[int64]int64{},
		speakers:  map[int64]int64{},
		scores:    map[int64]map[int64]int{},
		questions: map[uuid.UUID]*gamedomain.Question{},
		used:      map[int64]map[uuid.UUID]bool{},
		lookups:   map[string]gamedomain.RegistrationLookup{},
	}
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.trace...)
}

func (f *FakeRepository) CreateGame(ctx context.Context, chatID int64, playerIDs []int64) (*gamedomain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateGame")
	f.nextGameID++
	game := &gamedomain.Game{
		ID:         f.nextGameID,
		ChatID:     chatID,
		Status:     gamedomain.StatusRegistered,
		WaitStatus: gamedomain.WaitOK,
		CreatedAt:  time.Now(),
	}
	f.games[game.ID] = game
	f.scores[game.ID] = map[int64]int{}
	for _, id := range playerIDs {
		f.scores[game.ID][id] = 0
	}
	return f.loadGame(game.ID), nil
}

// loadGame returns a copy with the player list populated from score rows.
// Callers must hold the mutex.
func (f *FakeRepository) loadGame(id int64) *gamedomain.Game {
	game, ok := f.games[id]
	if !ok {
		return nil
	}
	out := *game
	out.Players = nil
	for playerID, points := range f.scores[id] {
		if p, ok := f.players[playerID]; ok {
			player := *p
			player.Points = points
			out.Players = append(out.Players, player)
		}
	}
	return &out
}

func (f *FakeRepository) GetGame(ctx context.Context, chatID int64, status gamedomain.Status) (*gamedomain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *gamedomain.Game
	for _, g := range f.games {
		if g.ChatID == chatID && g.Status == status && (found == nil || g.ID > found.ID) {
			found = g
		}
	}
	if found == nil {
		return nil, nil
	}
	return f.loadGame(found.ID), nil
}

func (f *FakeRepository) GetGameByID(ctx context.Context, id int64) (*gamedomain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadGame(id), nil
}

func (f *FakeRepository) UpdateGame(ctx context.Context, id int64, upd gamedb.GameUpdate) error {
	if f.UpdateGameFunc != nil {
		return f.UpdateGameFunc(ctx, id, upd)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateGame")
	game, ok := f.games[id]
	if !ok {
		return nil
	}
	if upd.Status != nil {
		game.Status = *upd.Status
	}
	if upd.WaitStatus != nil {
		game.WaitStatus = *upd.WaitStatus
	}
	if upd.WaitTime != nil {
		game.WaitTime = *upd.WaitTime
	}
	if upd.MyPoints != nil {
		game.MyPoints = *upd.MyPoints
	}
	if upd.PlayersPoints != nil {
		game.PlayersPoints = *upd.PlayersPoints
	}
	if upd.Round != nil {
		game.Round = *upd.Round
	}
	if upd.BlitzRound != nil {
		game.BlitzRound = *upd.BlitzRound
	}
	if upd.CurrentQuestionID != nil {
		game.CurrentQuestionID = *upd.CurrentQuestionID
	}
	return nil
}

func (f *FakeRepository) DeleteGame(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteGame")
	delete(f.games, id)
	delete(f.scores, id)
	delete(f.captains, id)
	delete(f.speakers, id)
	return nil
}

func (f *FakeRepository) ListGames(ctx context.Context, status gamedomain.Status) ([]*gamedomain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var games []*gamedomain.Game
	for id, g := range f.games {
		if status == "" || g.Status == status {
			games = append(games, f.loadGame(id))
		}
	}
	return games, nil
}

func (f *FakeRepository) LatestGame(ctx context.Context) (*gamedomain.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *gamedomain.Game
	for _, g := range f.games {
		if latest == nil || g.ID > latest.ID {
			latest = g
		}
	}
	if latest == nil {
		return nil, nil
	}
	return f.loadGame(latest.ID), nil
}

func (f *FakeRepository) BumpTimerGeneration(ctx context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("BumpTimerGeneration")
	game, ok := f.games[id]
	if !ok {
		return 0, nil
	}
	game.TimerGeneration++
	return game.TimerGeneration, nil
}

func (f *FakeRepository) CreatePlayer(ctx context.Context, vkID int64, name, lastName string) (*gamedomain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreatePlayer")
	for _, p := range f.players {
		if p.VKID == vkID {
			p.Name = name
			p.LastName = lastName
			out := *p
			return &out, nil
		}
	}
	f.nextPlayerID++
	player := &gamedomain.Player{ID: f.nextPlayerID, VKID: vkID, Name: name, LastName: lastName}
	f.players[player.ID] = player
	out := *player
	return &out, nil
}

func (f *FakeRepository) GetPlayerByVKID(ctx context.Context, vkID int64) (*gamedomain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.VKID == vkID {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (f *FakeRepository) DeletePlayer(ctx context.Context, vkID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeletePlayer")
	for id, p := range f.players {
		if p.VKID == vkID {
			delete(f.players, id)
		}
	}
	return nil
}

func (f *FakeRepository) ListPlayers(ctx context.Context) ([]*gamedomain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var players []*gamedomain.Player
	for _, p := range f.players {
		out := *p
		players = append(players, &out)
	}
	return players, nil
}

func (f *FakeRepository) LinkPlayerToGame(ctx context.Context, playerID, gameID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LinkPlayerToGame")
	if _, ok := f.scores[gameID][playerID]; !ok {
		f.scores[gameID][playerID] = 0
	}
	return nil
}

func (f *FakeRepository) SetCaptain(ctx context.Context, gameID, playerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetCaptain")
	f.captains[gameID] = playerID
	return nil
}

func (f *FakeRepository) GetCaptain(ctx context.Context, gameID int64) (*gamedomain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.captains[gameID]; ok {
		if p, ok := f.players[id]; ok {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (f *FakeRepository) SetSpeaker(ctx context.Context, gameID, playerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetSpeaker")
	f.speakers[gameID] = playerID
	return nil
}

func (f *FakeRepository) GetSpeaker(ctx context.Context, gameID int64) (*gamedomain.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.speakers[gameID]; ok {
		if p, ok := f.players[id]; ok {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

func (f *FakeRepository) ClearSpeaker(ctx context.Context, gameID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ClearSpeaker")
	delete(f.speakers, gameID)
	return nil
}

func (f *FakeRepository) AddRoundPoints(ctx context.Context, gameID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddRoundPoints")
	for playerID := range f.scores[gameID] {
		f.scores[gameID][playerID]++
	}
	return nil
}

func (f *FakeRepository) TotalScore(ctx context.Context, playerID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, scores := range f.scores {
		total += scores[playerID]
	}
	return total, nil
}

func (f *FakeRepository) CreateQuestion(ctx context.Context, text string, blitz bool, answer string) (*gamedomain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateQuestion")
	id := uuid.New()
	question := &gamedomain.Question{
		ID:    id,
		Text:  text,
		Blitz: blitz,
		Answer: gamedomain.Answer{
			ID:         uuid.New(),
			QuestionID: id,
			Text:       answer,
		},
	}
	f.questions[id] = question
	out := *question
	return &out, nil
}

func (f *FakeRepository) GetQuestion(ctx context.Context, id uuid.UUID) (*gamedomain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q, ok := f.questions[id]; ok {
		out := *q
		return &out, nil
	}
	return nil, nil
}

func (f *FakeRepository) ListQuestions(ctx context.Context) ([]*gamedomain.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var questions []*gamedomain.Question
	for _, q := range f.questions {
		out := *q
		questions = append(questions, &out)
	}
	return questions, nil
}

func (f *FakeRepository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteQuestion")
	delete(f.questions, id)
	return nil
}

func (f *FakeRepository) CountQuestions(ctx context.Context, blitz bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, q := range f.questions {
		if q.Blitz == blitz {
			count++
		}
	}
	return count, nil
}

func (f *FakeRepository) UnusedQuestionIDs(ctx context.Context, gameID int64, blitz bool) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for id, q := range f.questions {
		if q.Blitz == blitz && !f.used[gameID][id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *FakeRepository) MarkQuestionUsed(ctx context.Context, gameID int64, questionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MarkQuestionUsed")
	if f.used[gameID] == nil {
		f.used[gameID] = map[uuid.UUID]bool{}
	}
	f.used[gameID][questionID] = true
	return nil
}

func (f *FakeRepository) ClearUsedQuestions(ctx context.Context, gameID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ClearUsedQuestions")
	delete(f.used, gameID)
	return nil
}

func (f *FakeRepository) CreateRegistrationLookup(ctx context.Context, lookup gamedomain.RegistrationLookup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateRegistrationLookup")
	if _, ok := f.lookups[lookup.EventID]; !ok {
		f.lookups[lookup.EventID] = lookup
	}
	return nil
}

func (f *FakeRepository) TakeRegistrationLookup(ctx context.Context, eventID string) (*gamedomain.RegistrationLookup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("TakeRegistrationLookup")
	lookup, ok := f.lookups[eventID]
	if !ok {
		return nil, nil
	}
	delete(f.lookups, eventID)
	return &lookup, nil
}

// ------------------------
// Fake Outbox
// ------------------------

// FakeOutbox captures outbound envelopes.
type FakeOutbox struct {
	mu       sync.Mutex
	Messages []gamedto.Message

	SendFunc func(ctx context.Context, msg gamedto.Message) error
}

var _ Outbox = (*FakeOutbox)(nil)

func NewFakeOutbox() *FakeOutbox {
	return &FakeOutbox{}
}

func (f *FakeOutbox) Send(ctx context.Context, msg gamedto.Message) error {
	if f.SendFunc != nil {
		return f.SendFunc(ctx, msg)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, msg)
	return nil
}

// Last returns the most recent envelope.
func (f *FakeOutbox) Last() gamedto.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Messages) == 0 {
		return gamedto.Message{}
	}
	return f.Messages[len(f.Messages)-1]
}

// Reset clears captured envelopes.
func (f *FakeOutbox) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = nil
}

// ------------------------
// Fake TimerScheduler
// ------------------------

// ScheduledTimer is one captured ScheduleTimer call.
type ScheduledTimer struct {
	Kind       gameevents.TimerKind
	GameID     int64
	ChatID     int64
	Generation int64
	Delay      time.Duration
}

// FakeTimers captures timer scheduling without any real delay.
type FakeTimers struct {
	mu        sync.Mutex
	Scheduled []ScheduledTimer
	Cancelled []int64
}

var _ gamequeue.TimerScheduler = (*FakeTimers)(nil)

func NewFakeTimers() *FakeTimers {
	return &FakeTimers{}
}

func (f *FakeTimers) ScheduleTimer(ctx context.Context, kind gameevents.TimerKind, gameID, chatID, generation int64, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scheduled = append(f.Scheduled, ScheduledTimer{
		Kind:       kind,
		GameID:     gameID,
		ChatID:     chatID,
		Generation: generation,
		Delay:      delay,
	})
	return nil
}

func (f *FakeTimers) CancelGameTimers(ctx context.Context, gameID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Cancelled = append(f.Cancelled, gameID)
	return nil
}

func (f *FakeTimers) Start(ctx context.Context) error { return nil }
func (f *FakeTimers) Stop(ctx context.Context) error  { return nil }

// Last returns the most recent scheduled timer.
func (f *FakeTimers) Last() ScheduledTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Scheduled) == 0 {
		return ScheduledTimer{}
	}
	return f.Scheduled[len(f.Scheduled)-1]
}

// Expire builds the expiry payload for the most recent scheduled timer.
func (f *FakeTimers) Expire() gameevents.TimerExpiredPayload {
	last := f.Last()
	return gameevents.TimerExpiredPayload{
		GameID:     last.GameID,
		ChatID:     last.ChatID,
		Kind:       last.Kind,
		Generation: last.Generation,
	}
}
