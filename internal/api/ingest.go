package api

import (
	"errors"
	"io"
	"net/http"

	"token-radar/internal/ingestion"
)

type ingestResponse struct {
	Ingested int `json:"ingested"`
	Total    int `json:"total"`
}

// handleIngest accepts a webhook array or an internal batch object.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "could not read body")
		return
	}

	res, err := s.gateway.Ingest(r.Context(), r.Header.Get("Authorization"), body)
	if err != nil {
		var verr *ingestion.ValidationError
		switch {
		case errors.Is(err, ingestion.ErrUnauthorized):
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
		case errors.As(err, &verr):
			s.writeError(w, http.StatusBadRequest, verr.Error())
		default:
			s.writeInternal(w, r, err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, ingestResponse{Ingested: res.Ingested, Total: res.Total})
}
