package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"learn-market/internal/auth"
	"learn-market/internal/config"
	"learn-market/internal/logging"
	"learn-market/internal/model"
	"learn-market/internal/payout"
	"learn-market/internal/purchase"
	"learn-market/internal/referral"
	"learn-market/internal/store"
)

type Server struct {
	Store     *store.Database
	Config    config.Config
	Purchases *purchase.Service
	Payouts   *payout.Service
	Referrals *referral.Service
}

func NewServer(cfg config.Config, notifier purchase.Notifier) (*Server, error) {
	var s store.Database
	err := s.NewStorage(cfg.DBDsn)
	if err != nil {
		return nil, err
	}
	return &Server{
		Store:     &s,
		Config:    cfg,
		Purchases: purchase.NewService(&s, notifier),
		Payouts:   payout.NewService(&s),
		Referrals: referral.NewService(&s),
	}, nil
}

type registerBody struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobile_number"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

func (s *Server) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}
	if body.FullName == "" || !strings.Contains(body.Email, "@") || body.MobileNumber == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	if len(body.Password) < 8 {
		http.Error(w, "Password should be at least 8 characters long", http.StatusBadRequest)
		return
	}

	var referredBy *int64
	if body.ReferralCode != "" {
		if err := referral.ValidateCode(body.ReferralCode); err != nil {
			http.Error(w, "Invalid referral code", http.StatusBadRequest)
			return
		}
		referrer, err := s.Store.GetAccountByReferralCode(r.Context(), body.ReferralCode)
		if err != nil {
			http.Error(w, "Invalid referral code", http.StatusBadRequest)
			return
		}
		referredBy = &referrer.ID
	}

	passwordHash, err := auth.HashPassword(body.Password)
	if err != nil {
		http.Error(w, "Failed hash the password", http.StatusInternalServerError)
		return
	}

	account := &model.Account{
		FullName:     body.FullName,
		Email:        body.Email,
		MobileNumber: body.MobileNumber,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
	}

	// The generated code carries a Luhn check digit; a collision with an
	// existing code just gets another roll.
	for attempt := 0; ; attempt++ {
		account.ReferralCode, err = referral.NewCode()
		if err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		account.ReferredBy = referredBy
		_, err = s.Store.CreateAccount(r.Context(), account)
		if err == nil {
			break
		}
		if errors.Is(err, store.ErrDuplicate) {
			if _, lookupErr := s.Store.GetAccountByEmail(r.Context(), body.Email); lookupErr == nil {
				http.Error(w, "Email already exists", http.StatusConflict)
				return
			}
			if attempt < 3 {
				continue
			}
		}
		logging.Logg.Error("Failed to create account", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	authToken, err := auth.GenerateToken(account.ID, account.Role, s.Config.JWTSecret)
	if err != nil {
		http.Error(w, "Failed generation token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", authToken))
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"status":        "success",
		"message":       "Account registered and authenticated",
		"referral_code": account.ReferralCode,
		"token":         authToken,
	})
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) LoginAccount(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		http.Error(w, "Bad request format", http.StatusBadRequest)
		return
	}

	account, err := s.Store.GetAccountByEmail(r.Context(), body.Email)
	if err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := auth.CheckPass(account.PasswordHash, body.Password); err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	authToken, err := auth.GenerateToken(account.ID, account.Role, s.Config.JWTSecret)
	if err != nil {
		http.Error(w, "Failed generation token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Authorization", fmt.Sprintf("Bearer %s", authToken))
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "success",
		"message": "Authenticated",
		"token":   authToken,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
