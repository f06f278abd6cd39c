package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"learn-market/internal/logging"
	"learn-market/internal/model"
	"learn-market/internal/store"
)

type createCourseBody struct {
	Title            string          `json:"title"`
	DiscountedPrice  decimal.Decimal `json:"discounted_price"`
	ReferralBonusPct decimal.Decimal `json:"referral_bonus_pct"`
}

var hundred = decimal.NewFromInt(100)

func (s *Server) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var body createCourseBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	if body.Title == "" || !body.DiscountedPrice.IsPositive() {
		http.Error(w, "Title and a positive discounted price are required", http.StatusBadRequest)
		return
	}
	if !body.ReferralBonusPct.IsPositive() || body.ReferralBonusPct.GreaterThan(hundred) {
		http.Error(w, "Referral bonus percent must be between 0 and 100", http.StatusBadRequest)
		return
	}

	course := &model.Course{
		Title:            body.Title,
		DiscountedPrice:  body.DiscountedPrice,
		ReferralBonusPct: body.ReferralBonusPct,
	}
	if _, err := s.Store.CreateCourse(r.Context(), course); err != nil {
		logging.Logg.Error("Failed to create course", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"course":  course,
	})
}

func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid course id", http.StatusBadRequest)
		return
	}

	course, err := s.Store.GetCourseByID(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, store.ErrCourseNotFound) {
			http.Error(w, "Course Not Found", http.StatusNotFound)
			return
		}
		logging.Logg.Error("Failed to fetch course", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"course":  course,
	})
}
