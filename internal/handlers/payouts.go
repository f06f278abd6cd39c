package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"learn-market/internal/logging"
	"learn-market/internal/model"
	"learn-market/internal/store"
)

func (s *Server) GetEarnings(w http.ResponseWriter, r *http.Request) {
	var status *model.PayoutStatus
	switch r.URL.Query().Get("status") {
	case "":
	case "pending":
		st := model.PayoutPending
		status = &st
	case "approved":
		st := model.PayoutApproved
		status = &st
	default:
		http.Error(w, "Invalid status filter", http.StatusBadRequest)
		return
	}

	earnings, err := s.Store.FindEarnings(r.Context(), status)
	if err != nil {
		logging.Logg.Error("Failed to list earnings", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"earning_count": len(earnings),
		"earnings":      earnings,
	})
}

func (s *Server) GetWeeklyPayouts(w http.ResponseWriter, r *http.Request) {
	batches, err := s.Payouts.WeeklyView(r.Context())
	if err != nil {
		logging.Logg.Error("Failed to build weekly payout view", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"batches": batches,
	})
}

func (s *Server) ApprovePayoutForReferrer(w http.ResponseWriter, r *http.Request) {
	referrerID, err := strconv.ParseInt(chi.URLParam(r, "referrerID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid referrer id", http.StatusBadRequest)
		return
	}

	modified, err := s.Payouts.ApproveAllForReferrer(r.Context(), referrerID)
	if err != nil {
		if errors.Is(err, store.ErrNoEarnings) {
			http.Error(w, "Earnings not found for this referrer", http.StatusNotFound)
			return
		}
		logging.Logg.Error("Failed to approve payout", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        "Payout status updated to Approved",
		"modified_count": modified,
	})
}

func (s *Server) ApproveEarning(w http.ResponseWriter, r *http.Request) {
	earningID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid earning id", http.StatusBadRequest)
		return
	}

	if err := s.Payouts.ApproveOne(r.Context(), earningID); err != nil {
		if errors.Is(err, store.ErrEarningNotFound) {
			http.Error(w, "Earnings not found with this ID", http.StatusNotFound)
			return
		}
		logging.Logg.Error("Failed to approve earning", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Payout status updated to Approved",
	})
}
