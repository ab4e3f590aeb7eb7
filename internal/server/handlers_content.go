package server

import "net/http"

// handleAbout handles GET and PUT /api/fetch-about. The about text is a
// singleton document; reads of a never-written document return an empty string.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		content, err := s.app.Storage.Content().GetAbout(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to get about content")
			WriteError(w, http.StatusInternalServerError, "failed to get about content")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"content": content})

	case http.MethodPut:
		if !requireAdmin(w, r) {
			return
		}
		var req struct {
			Content string `json:"content"`
		}
		if !DecodeJSON(w, r, &req) {
			return
		}
		if err := s.app.Storage.Content().PutAbout(r.Context(), req.Content); err != nil {
			s.logger.Error().Err(err).Msg("Failed to save about content")
			WriteError(w, http.StatusInternalServerError, "failed to save about content")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true})

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut)
	}
}
