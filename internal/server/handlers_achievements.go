package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mhobbs/tradelog/internal/interfaces"
	"github.com/mhobbs/tradelog/internal/models"
)

// achievementCreateRequest is the write shape for new achievements.
type achievementCreateRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Logo        *string `json:"logo"`
}

// achievementUpdateRequest is the partial-update shape. Logo is kept raw so
// an explicit null (clear the logo) can be told apart from an absent field.
type achievementUpdateRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Logo        json.RawMessage `json:"logo"`
}

// handleAchievementsRoot handles GET and POST /api/achievements.
func (s *Server) handleAchievementsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleAchievementList(w, r)
	case http.MethodPost:
		s.handleAchievementCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleAchievementList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := interfaces.AchievementListOptions{
		Query: q.Get("q"),
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Page = n
		}
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.PerPage = n
		}
	}

	items, total, err := s.app.Storage.Achievements().List(r.Context(), opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list achievements")
		WriteError(w, http.StatusInternalServerError, "failed to list achievements")
		return
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": perPage,
	})
}

func (s *Server) handleAchievementCreate(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	var req achievementCreateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		WriteError(w, http.StatusBadRequest, "title is required")
		return
	}

	a := &models.Achievement{
		Title:       req.Title,
		Description: req.Description,
		Logo:        req.Logo,
	}
	if err := s.app.Storage.Achievements().Create(r.Context(), a); err != nil {
		s.logger.Error().Err(err).Msg("Failed to create achievement")
		WriteError(w, http.StatusInternalServerError, "failed to create achievement")
		return
	}

	WriteJSON(w, http.StatusCreated, a)
}

// handleAchievementByID handles GET, PUT and DELETE /api/achievements/{id}.
func (s *Server) handleAchievementByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		s.handleAchievementGet(w, r, id)
	case http.MethodPut:
		s.handleAchievementUpdate(w, r, id)
	case http.MethodDelete:
		s.handleAchievementDelete(w, r, id)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleAchievementGet(w http.ResponseWriter, r *http.Request, id string) {
	a, err := s.app.Storage.Achievements().Get(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("achievement_id", id).Msg("Failed to get achievement")
		WriteError(w, http.StatusInternalServerError, "failed to get achievement")
		return
	}
	if a == nil {
		WriteError(w, http.StatusNotFound, "achievement not found")
		return
	}
	WriteJSON(w, http.StatusOK, a)
}

func (s *Server) handleAchievementUpdate(w http.ResponseWriter, r *http.Request, id string) {
	if !requireAdmin(w, r) {
		return
	}

	var req achievementUpdateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	upd := interfaces.AchievementUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			WriteError(w, http.StatusBadRequest, "title must not be empty")
			return
		}
		upd.Title = &title
	}

	if len(req.Logo) > 0 {
		if bytes.Equal(bytes.TrimSpace(req.Logo), []byte("null")) {
			upd.ClearLogo = true
		} else {
			var logo string
			if err := json.Unmarshal(req.Logo, &logo); err != nil {
				WriteError(w, http.StatusBadRequest, "logo must be a string or null")
				return
			}
			upd.Logo = &logo
		}
	}

	ok, err := s.app.Storage.Achievements().Update(r.Context(), id, upd)
	if err != nil {
		s.logger.Error().Err(err).Str("achievement_id", id).Msg("Failed to update achievement")
		WriteError(w, http.StatusInternalServerError, "failed to update achievement")
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "achievement not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (s *Server) handleAchievementDelete(w http.ResponseWriter, r *http.Request, id string) {
	if !requireAdmin(w, r) {
		return
	}

	ok, err := s.app.Storage.Achievements().Delete(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("achievement_id", id).Msg("Failed to delete achievement")
		WriteError(w, http.StatusInternalServerError, "failed to delete achievement")
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "achievement not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
