package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/shorts/pkg/adapters/flash"
	"github.com/wadjakorntonsri/shorts/pkg/core/domain"
	"github.com/wadjakorntonsri/shorts/pkg/logger"
	"github.com/wadjakorntonsri/shorts/pkg/ports"
	"github.com/wadjakorntonsri/shorts/pkg/validation"
)

type AccountHandler struct {
	accounts ports.AccountService
	cookies  *SessionCookie
}

func NewAccountHandler(accounts ports.AccountService, cookies *SessionCookie) *AccountHandler {
	return &AccountHandler{accounts: accounts, cookies: cookies}
}

type createAccountForm struct {
	Email    string `form:"email" validate:"notblank,email,max=254"`
	Password string `form:"password" validate:"notblank,max=72"`
	Invite   string `form:"invite"`
}

type loginForm struct {
	Email    string `form:"email" validate:"notblank"`
	Password string `form:"password" validate:"notblank"`
}

// Create registers an account for holders of the invite code and logs them in.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	f := flash.FromContext(r.Context())
	form := createAccountForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Invite:   r.PostFormValue("invite"),
	}
	if err := validation.Validate(form); err != nil {
		f.Push(validation.Message(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	session, err := h.accounts.CreateUser(r.Context(), form.Email, form.Password, form.Invite)
	switch {
	case domain.IsUnauthorized(err):
		logger.Warn("account creation refused", zap.String("email", form.Email))
		f.Push("You are not permitted to create an account.")
	case domain.IsDuplicateKey(err):
		f.Push("An account with this email already exists.")
	case err != nil:
		logger.Error("create account", zap.Error(err))
		f.Push("Something went wrong.")
	default:
		if err := h.cookies.Set(w, session); err != nil {
			logger.Error("set session cookie", zap.Error(err))
			f.Push("Something went wrong.")
			break
		}
		logger.Info("account created", zap.Int64("user_id", session.UserID))
		f.Push("Account created successfully.")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	f := flash.FromContext(r.Context())
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := validation.Validate(form); err != nil {
		f.Push("invalid username or password!")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	session, err := h.accounts.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if !domain.IsUnauthorized(err) {
			logger.Error("login", zap.Error(err))
		}
		f.Push("invalid username or password!")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := h.cookies.Set(w, session); err != nil {
		logger.Error("set session cookie", zap.Error(err))
		f.Push("Something went wrong.")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout drops the stored session as well as the cookie.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := h.cookies.Read(r); ok {
		if err := h.accounts.RemoveSession(r.Context(), token); err != nil {
			logger.Error("remove session", zap.Error(err))
		}
	}
	h.cookies.Clear(w)
	flash.FromContext(r.Context()).Push("logged out successfully!")
	http.Redirect(w, r, "/", http.StatusFound)
}
