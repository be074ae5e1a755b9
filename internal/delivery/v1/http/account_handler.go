package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/usecase"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
)

type AccountHandler struct {
	accountUsecase usecase.AccountUC
	logger         logger.Logger
}

func NewAccountHandler(accountUsecase usecase.AccountUC, logger logger.Logger) *AccountHandler {
	return &AccountHandler{accountUsecase: accountUsecase, logger: logger}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func newUserResponse(u usecase.UserInfo) userResponse {
	return userResponse{Name: u.Name, Email: u.Email, Username: u.Username}
}

// signup
//
//	@Summary	Регистрация покупателя
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		signupRequest	true	"Данные пользователя"
//	@Success	201		{object}	userResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse	"Имя пользователя или email заняты"
//	@Router		/auth/signup [post]
func (h *AccountHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.accountUsecase.Signup(r.Context(), usecase.NewSignupReq(req.Name, req.Email, req.Username, req.Password))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, newUserResponse(*user))
}

// login
//
//	@Summary	Вход
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		loginRequest	true	"Логин и пароль"
//	@Success	200		{object}	loginResponse
//	@Failure	401		{object}	ErrorResponse
//	@Router		/auth/login [post]
func (h *AccountHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	res, err := h.accountUsecase.Login(r.Context(), usecase.NewLoginReq(req.Username, req.Password))
	if err != nil {
		h.logger.Debugf("login failed for %q: %v", req.Username, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      newUserResponse(res.User),
	})
}

// me
//
//	@Summary	Профиль текущего пользователя
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	userResponse
//	@Failure	401	{object}	ErrorResponse
//	@Router		/me [get]
func (h *AccountHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.accountUsecase.GetUser(r.Context(), usernameFromCtx(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newUserResponse(*user))
}
