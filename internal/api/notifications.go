package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"token-radar/internal/domain"
	"token-radar/internal/storage"
)

type notificationJSON struct {
	ID         string  `json:"id"`
	UserWallet string  `json:"userWallet"`
	Mint       string  `json:"mint"`
	TokenName  *string `json:"tokenName"`
	Kind       string  `json:"kind"`
	Message    string  `json:"message"`
	OldValue   float64 `json:"oldValue"`
	NewValue   float64 `json:"newValue"`
	Read       bool    `json:"read"`
	CreatedAt  int64   `json:"createdAt"`
}

type inboxResponse struct {
	Notifications []notificationJSON `json:"notifications"`
	UnreadCount   int                `json:"unreadCount"`
}

type markReadRequest struct {
	Wallet string `json:"wallet"`
	ID     string `json:"id,omitempty"`
}

type markReadResponse struct {
	Success bool `json:"success"`
}

func toNotificationJSON(n *domain.Notification) notificationJSON {
	return notificationJSON{
		ID:         n.ID,
		UserWallet: n.UserWallet,
		Mint:       n.Mint,
		TokenName:  n.TokenName,
		Kind:       string(n.Kind),
		Message:    n.Message,
		OldValue:   n.OldValue,
		NewValue:   n.NewValue,
		Read:       n.Read,
		CreatedAt:  n.CreatedAt,
	}
}

// handleNotifications runs a watchlist scan for the wallet and returns its inbox.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		s.writeError(w, http.StatusBadRequest, "wallet is required")
		return
	}

	inbox, err := s.center.Poll(r.Context(), wallet)
	if err != nil {
		s.writeInternal(w, r, err)
		return
	}

	resp := inboxResponse{
		Notifications: make([]notificationJSON, 0, len(inbox.Notifications)),
		UnreadCount:   inbox.UnreadCount,
	}
	for _, n := range inbox.Notifications {
		resp.Notifications = append(resp.Notifications, toNotificationJSON(n))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleMarkRead marks one notification, or all of them when id is absent.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req markReadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Wallet == "" {
		s.writeError(w, http.StatusBadRequest, "wallet is required")
		return
	}

	if req.ID == "" {
		if _, err := s.center.MarkAllRead(r.Context(), req.Wallet); err != nil {
			s.writeInternal(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, markReadResponse{Success: true})
		return
	}

	if err := s.center.MarkRead(r.Context(), req.Wallet, req.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "notification not found")
			return
		}
		s.writeInternal(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, markReadResponse{Success: true})
}
