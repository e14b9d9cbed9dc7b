package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/cinelog/cinelog/internal/database"
)

const minPasswordLength = 6

var nicknamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{4,32}$`)

type authResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Nickname = strings.TrimSpace(req.Nickname)
	req.Email = strings.TrimSpace(req.Email)
	if !nicknamePattern.MatchString(req.Nickname) {
		respondError(w, http.StatusBadRequest, "nickname must be 4-32 characters (letters, digits, _ . -)")
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	user, err := h.userStore.CreateUser(r.Context(), req.Name, req.Nickname, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNicknameTaken):
			respondError(w, http.StatusConflict, "nickname already taken")
		case errors.Is(err, database.ErrEmailTaken):
			respondError(w, http.StatusConflict, "email already registered")
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	token, err := h.authManager.GenerateToken(user.ID, user.Nickname, false)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login handles POST /api/v1/auth/login. The identifier is an email
// address or a nickname; which one is decided by the presence of '@'.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
		RememberMe bool   `json:"remember_me"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userStore.VerifyPassword(r.Context(), strings.TrimSpace(req.Identifier), req.Password)
	if errors.Is(err, database.ErrInvalidCredential) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := h.authManager.GenerateToken(user.ID, user.Nickname, req.RememberMe)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// CheckNickname handles GET /api/v1/auth/nickname?nickname=...
func (h *Handler) CheckNickname(w http.ResponseWriter, r *http.Request) {
	nickname := strings.TrimSpace(r.URL.Query().Get("nickname"))
	if !nicknamePattern.MatchString(nickname) {
		respondJSON(w, http.StatusOK, map[string]bool{"available": false})
		return
	}

	available, err := h.userStore.NicknameAvailable(r.Context(), nickname)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// GetProfile handles GET /api/v1/auth/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.userStore.GetUserByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// CompleteProfile handles POST /api/v1/auth/profile/complete, the repair
// path for accounts that predate the nickname field.
func (h *Handler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !nicknamePattern.MatchString(strings.TrimSpace(req.Nickname)) {
		respondError(w, http.StatusBadRequest, "nickname must be 4-32 characters (letters, digits, _ . -)")
		return
	}

	user, err := h.userStore.CompleteProfile(r.Context(), userID, req.Name, req.Nickname)
	if errors.Is(err, database.ErrNicknameTaken) {
		respondError(w, http.StatusConflict, "nickname already taken")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ChangePassword handles POST /api/v1/auth/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	err := h.userStore.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, database.ErrInvalidCredential) {
		respondError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// RequestPasswordReset handles POST /api/v1/auth/reset. It always answers
// the same way so the endpoint cannot be used to probe for accounts.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := h.userStore.CreatePasswordReset(r.Context(), req.Email)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "if the email is registered, a reset link has been sent",
	})
}

// ConfirmPasswordReset handles POST /api/v1/auth/reset/confirm
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	userID, err := h.userStore.ConsumePasswordReset(r.Context(), req.Token)
	if errors.Is(err, database.ErrInvalidCredential) {
		respondError(w, http.StatusUnauthorized, "invalid or expired reset token")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.userStore.ResetPassword(r.Context(), userID, req.NewPassword); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password reset"})
}

// Logout handles POST /api/v1/auth/logout. Sessions are stateless tokens,
// so the server has nothing to revoke; the client closes its event stream
// (detaching the feed subscription) and discards the token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
