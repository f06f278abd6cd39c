package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"learn-market/internal/commission"
	"learn-market/internal/logging"
	"learn-market/internal/middleware"
	"learn-market/internal/model"
	"learn-market/internal/purchase"
	"learn-market/internal/store"
)

type createOrderBody struct {
	CourseIDs []int64 `json:"course_ids"`
}

func (s *Server) CreateOrder(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.ExtractAccountID(r)
	if err != nil {
		http.Error(w, "Account not found in context", http.StatusUnauthorized)
		return
	}

	var body createOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}

	order, err := s.Purchases.CreateOrder(r.Context(), accountID, body.CourseIDs)
	if err != nil {
		switch {
		case errors.Is(err, purchase.ErrNoCourses), errors.Is(err, commission.ErrMissingAmount):
			http.Error(w, "Invalid course ids", http.StatusBadRequest)
		case errors.Is(err, purchase.ErrNoReferrer):
			http.Error(w, "You cannot proceed", http.StatusNotFound)
		case errors.Is(err, store.ErrCourseNotFound):
			http.Error(w, "Course Not Found", http.StatusNotFound)
		case errors.Is(err, store.ErrAccountNotFound):
			http.Error(w, "Account Not Found", http.StatusNotFound)
		case errors.Is(err, purchase.ErrAlreadyOwned), errors.Is(err, store.ErrAlreadyOwned):
			http.Error(w, "You have already purchased this course.", http.StatusBadRequest)
		case errors.Is(err, store.ErrDuplicateEarning):
			http.Error(w, "Order already processed", http.StatusConflict)
		default:
			logging.Logg.Error("Failed to create order", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Course Purchased! You can start learning.",
		"order":   order,
	})
}

func (s *Server) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.ExtractAccountID(r)
	if err != nil {
		http.Error(w, "Account not found in context", http.StatusUnauthorized)
		return
	}

	orders, err := s.Store.GetOrdersByAccount(r.Context(), accountID)
	if err != nil {
		http.Error(w, "Failed fetching orders from DB", http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) GetOrder(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.ExtractAccountID(r)
	if err != nil {
		http.Error(w, "Account not found in context", http.StatusUnauthorized)
		return
	}
	role, _ := middleware.ExtractRole(r)

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	order, err := s.Store.GetOrderByID(r.Context(), orderID)
	if err != nil {
		http.Error(w, "Order not found with this Id", http.StatusNotFound)
		return
	}
	// A foreign order stays indistinguishable from a missing one.
	if role != model.RoleOperator && order.AccountID != accountID {
		http.Error(w, "Order not found with this Id", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

func (s *Server) CancelOrder(w http.ResponseWriter, r *http.Request) {
	accountID, err := middleware.ExtractAccountID(r)
	if err != nil {
		http.Error(w, "Account not found in context", http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	actor, err := s.Store.GetAccountByID(r.Context(), accountID)
	if err != nil {
		http.Error(w, "Account not found", http.StatusUnauthorized)
		return
	}

	order, err := s.Purchases.CancelOrder(r.Context(), orderID, actor)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrderNotFound), errors.Is(err, purchase.ErrNotAllowed):
			http.Error(w, "Order not found with this Id", http.StatusNotFound)
		case errors.Is(err, store.ErrOrderCancelled):
			http.Error(w, "Order is already cancelled", http.StatusConflict)
		default:
			logging.Logg.Error("Failed to cancel order", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

func (s *Server) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Store.GetAllOrders(r.Context())
	if err != nil {
		http.Error(w, "Failed fetching orders from DB", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"orders_count": len(orders),
		"orders":       orders,
	})
}
