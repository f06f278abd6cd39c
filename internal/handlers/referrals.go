package handlers

import (
	"errors"
	"net/http"

	"learn-market/internal/logging"
	"learn-market/internal/middleware"
	"learn-market/internal/store"
)

func (s *Server) GetReferralNetwork(w http.ResponseWriter, r *http.Request) {
	network, err := s.Referrals.Network(r.Context())
	if err != nil {
		logging.Logg.Error("Failed to build referral network", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"network":   network.Roots,
		"anomalies": network.Anomalies,
	})
}

func (s *Server) GetReferralLeaderboard(w http.ResponseWriter, r *http.Request) {
	leaderboard, err := s.Referrals.Leaderboard(r.Context())
	if err != nil {
		logging.Logg.Error("Failed to build leaderboard", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"total_users": len(leaderboard),
		"leaderboard": leaderboard,
	})
}

func (s *Server) GetReferralSummary(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.ExtractAccountID(r)
	if err != nil {
		http.Error(w, "Account not found in context", http.StatusUnauthorized)
		return
	}

	summary, err := s.Referrals.Summary(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			http.Error(w, "Account not found", http.StatusNotFound)
			return
		}
		logging.Logg.Error("Failed to build referral summary", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    summary,
	})
}
