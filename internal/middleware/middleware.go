package middleware

import (
	"errors"
	"net/http"

	"learn-market/internal/model"
)

type contextKey string

const AccountIDKey contextKey = "account_id"
const RoleKey contextKey = "role"

func ExtractAccountID(r *http.Request) (int64, error) {
	id, ok := r.Context().Value(AccountIDKey).(int64)
	if !ok {
		return 0, errors.New("account not found in context")
	}
	return id, nil
}

func ExtractRole(r *http.Request) (model.Role, error) {
	role, ok := r.Context().Value(RoleKey).(model.Role)
	if !ok {
		return "", errors.New("role not found in context")
	}
	return role, nil
}
