package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/agentstation/storefront/internal/account"
	"github.com/agentstation/storefront/internal/auth"
	"github.com/agentstation/storefront/internal/server/filter"
	"github.com/agentstation/storefront/internal/server/response"
	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

// loginRequest is the body of POST /api/authenticate.
type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// tokenResponse carries an issued JWT.
type tokenResponse struct {
	IDToken string `json:"id_token"`
}

type passwordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type passwordReset struct {
	Key         string `json:"key"`
	NewPassword string `json:"newPassword"`
}

// HandleAuthenticate handles POST /api/authenticate.
// @Summary Log in
// @Tags account
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=tokenResponse}
// @Failure 401 {object} response.Response{error=response.Error}
// @Router /api/authenticate [post].
func (h *Handlers) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	token, err := h.accounts.Authenticate(r.Context(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	response.OK(w, tokenResponse{IDToken: token})
}

// HandleCurrentLogin handles GET /api/authenticate. Anonymous callers get
// an empty login.
func (h *Handlers) HandleCurrentLogin(w http.ResponseWriter, r *http.Request) {
	login := ""
	if p := auth.FromContext(r.Context()); p != nil {
		login = p.Login
	}
	response.OK(w, login)
}

// HandleRegister handles POST /api/register.
// @Summary Register account
// @Tags account
// @Accept json
// @Produce json
// @Success 201 {object} response.Response{data=users.User}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/register [post].
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var reg account.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	user, err := h.accounts.Register(r.Context(), reg)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.Created(w, "", user)
}

// HandleActivate handles GET /api/activate?key=. An unknown key is an
// internal account error and answers 500.
func (h *Handlers) HandleActivate(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Activate(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		if errors.IsNotFound(err) {
			logging.FromContext(r.Context()).Warn().Msg("No user was found for this activation key")
			response.InternalError(w, err)
			return
		}
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, user)
}

// HandleGetAccount handles GET /api/account.
func (h *Handlers) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Current(r.Context(), auth.FromContext(r.Context()).Login)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, user)
}

// HandleUpdateAccount handles POST /api/account.
func (h *Handlers) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var profile account.Profile
	if err := decodeJSON(w, r, &profile); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	user, err := h.accounts.UpdateProfile(r.Context(), auth.FromContext(r.Context()).Login, profile)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, user)
}

// HandleChangePassword handles POST /api/account/change-password.
func (h *Handlers) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordChange
	if err := decodeJSON(w, r, &req); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	login := auth.FromContext(r.Context()).Login
	if err := h.accounts.ChangePassword(r.Context(), login, req.CurrentPassword, req.NewPassword); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, nil)
}

// HandleResetPasswordInit handles POST /api/account/reset-password/init.
// The body is the email, as plain text or a JSON string. The answer is
// the same whether or not the email is known.
func (h *Handlers) HandleResetPasswordInit(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	email := strings.TrimSpace(string(body))
	if strings.HasPrefix(email, `"`) {
		if err := json.Unmarshal([]byte(email), &email); err != nil {
			response.ErrorFromType(w, r, errors.WrapParse("json", "", err))
			return
		}
	}
	if err := h.accounts.RequestPasswordReset(r.Context(), email); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, nil)
}

// HandleResetPasswordFinish handles POST /api/account/reset-password/finish.
func (h *Handlers) HandleResetPasswordFinish(w http.ResponseWriter, r *http.Request) {
	var req passwordReset
	if err := decodeJSON(w, r, &req); err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	if err := h.accounts.FinishPasswordReset(r.Context(), req.Key, req.NewPassword); err != nil {
		if errors.IsNotFound(err) {
			response.InternalError(w, err)
			return
		}
		response.ErrorFromType(w, r, err)
		return
	}
	response.OK(w, nil)
}

// HandleListUsers handles GET /api/admin/users.
// @Summary List accounts
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=[]users.User}
// @Security BearerAuth
// @Router /api/admin/users [get].
func (h *Handlers) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := filter.ParsePage(r)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	items, total, err := h.accounts.List(r.Context(), page)
	if err != nil {
		response.ErrorFromType(w, r, err)
		return
	}
	response.Page(w, items, total)
}
