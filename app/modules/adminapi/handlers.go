package adminapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	gamedomain "github.com/EugeneDlg/wwwbot/app/modules/game/domain"
	gamedb "github.com/EugeneDlg/wwwbot/app/modules/game/infrastructure/repositories"
)

type apiHandlers struct {
	repo   gamedb.Repository
	auth   *authenticator
	logger *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *apiHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.auth.checkCredentials(req.Email, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.auth.issueToken(time.Now())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *apiHandlers) currentAdmin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"email": h.auth.email})
}

type questionRequest struct {
	Text   string `json:"text"`
	Answer string `json:"answer"`
	Blitz  bool   `json:"blitz"`
}

type questionResponse struct {
	ID     uuid.UUID `json:"id"`
	Text   string    `json:"text"`
	Answer string    `json:"answer"`
	Blitz  bool      `json:"blitz"`
}

func toQuestionResponse(q *gamedomain.Question) questionResponse {
	return questionResponse{
		ID:     q.ID,
		Text:   q.Text,
		Answer: q.Answer.Text,
		Blitz:  q.Blitz,
	}
}

func (h *apiHandlers) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.Answer) == "" {
		writeError(w, http.StatusBadRequest, "text and answer are required")
		return
	}
	question, err := h.repo.CreateQuestion(r.Context(), req.Text, req.Blitz, req.Answer)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuestionResponse(question))
}

func (h *apiHandlers) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.repo.ListQuestions(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, toQuestionResponse(q))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *apiHandlers) getQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	question, err := h.repo.GetQuestion(r.Context(), id)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if question == nil {
		writeError(w, http.StatusNotFound, "question not found")
		return
	}
	writeJSON(w, http.StatusOK, toQuestionResponse(question))
}

func (h *apiHandlers) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	if err := h.repo.DeleteQuestion(r.Context(), id); err != nil {
		h.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type playerRequest struct {
	VKID     int64  `json:"vk_id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
}

type playerResponse struct {
	ID       int64  `json:"id"`
	VKID     int64  `json:"vk_id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
}

func toPlayerResponse(p *gamedomain.Player) playerResponse {
	return playerResponse{ID: p.ID, VKID: p.VKID, Name: p.Name, LastName: p.LastName}
}

func (h *apiHandlers) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VKID <= 0 || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "vk_id and name are required")
		return
	}
	player, err := h.repo.CreatePlayer(r.Context(), req.VKID, req.Name, req.LastName)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlayerResponse(player))
}

func (h *apiHandlers) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.repo.ListPlayers(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make([]playerResponse, 0, len(players))
	for _, p := range players {
		out = append(out, toPlayerResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *apiHandlers) getPlayer(w http.ResponseWriter, r *http.Request) {
	vkID, err := strconv.ParseInt(chi.URLParam(r, "vkID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid vk id")
		return
	}
	player, err := h.repo.GetPlayerByVKID(r.Context(), vkID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if player == nil {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, toPlayerResponse(player))
}

func (h *apiHandlers) deletePlayer(w http.ResponseWriter, r *http.Request) {
	vkID, err := strconv.ParseInt(chi.URLParam(r, "vkID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid vk id")
		return
	}
	if err := h.repo.DeletePlayer(r.Context(), vkID); err != nil {
		h.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type gameResponse struct {
	ID            int64            `json:"id"`
	ChatID        int64            `json:"chat_id"`
	Status        string           `json:"status"`
	WaitStatus    string           `json:"wait_status"`
	MyPoints      int              `json:"my_points"`
	PlayersPoints int              `json:"players_points"`
	Round         int              `json:"round"`
	BlitzRound    int              `json:"blitz_round"`
	CreatedAt     time.Time        `json:"created_at"`
	Players       []playerResponse `json:"players"`
}

func toGameResponse(g *gamedomain.Game) gameResponse {
	players := make([]playerResponse, 0, len(g.Players))
	for i := range g.Players {
		players = append(players, toPlayerResponse(&g.Players[i]))
	}
	return gameResponse{
		ID:            g.ID,
		ChatID:        g.ChatID,
		Status:        string(g.Status),
		WaitStatus:    string(g.WaitStatus),
		MyPoints:      g.MyPoints,
		PlayersPoints: g.PlayersPoints,
		Round:         g.Round,
		BlitzRound:    g.BlitzRound,
		CreatedAt:     g.CreatedAt,
		Players:       players,
	}
}

func (h *apiHandlers) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.repo.ListGames(r.Context(), gamedomain.Status(r.URL.Query().Get("status")))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	out := make([]gameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, toGameResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *apiHandlers) latestGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.repo.LatestGame(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if game == nil {
		writeError(w, http.StatusNotFound, "no games yet")
		return
	}
	writeJSON(w, http.StatusOK, toGameResponse(game))
}

func (h *apiHandlers) deleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	if err := h.repo.DeleteGame(r.Context(), id); err != nil {
		h.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *apiHandlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("admin API request failed",
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
