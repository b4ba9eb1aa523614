package httptransport

import (
	"encoding/json"
	"net/http"

	"paygate/internal/domain"
	dErrors "paygate/pkg/domain-errors"
	"paygate/pkg/platform/httputil"
)

// AuthService is the slice of the auth package the transport needs.
type AuthService interface {
	Login(username, password string) (string, domain.User, error)
}

type AuthHandler struct {
	auth AuthService
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "username and password are required"))
		return
	}

	token, user, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}
