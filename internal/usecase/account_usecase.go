package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/DRSN-tech/shop-assistant/internal/domain"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

// AccountUseCase — регистрация, вход и профиль покупателя.
type AccountUseCase struct {
	userRepo UserRepository
	tokens   TokenInfra
	logger   logger.Logger
	cost     int
}

func NewAccountUC(userRepo UserRepository, tokens TokenInfra, logger logger.Logger) *AccountUseCase {
	return &AccountUseCase{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

func (a *AccountUseCase) Signup(ctx context.Context, req *SignupReq) (*UserInfo, error) {
	const op = "AccountUseCase.Signup"

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	if name == "" || email == "" || username == "" || req.Password == "" {
		return nil, e.Wrap(op, e.ErrInvalidSignup)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, e.Wrap(op, e.ErrInvalidSignup)
	}
	if len(req.Password) < minPasswordLen {
		return nil, e.Wrap(op, e.ErrInvalidSignup)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user, err := a.userRepo.Create(ctx, domain.NewUser(name, email, username, string(hash)))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	a.logger.Infof("user signed up: %s", user.Username)

	info := NewUserInfo(user)
	return &info, nil
}

// Login проверяет пароль и выдаёт JWT. Неизвестный пользователь и неверный пароль
// неотличимы для вызывающего.
func (a *AccountUseCase) Login(ctx context.Context, req *LoginReq) (*LoginRes, error) {
	const op = "AccountUseCase.Login"

	user, err := a.userRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, e.ErrUserNotFound) {
			return nil, e.Wrap(op, e.ErrInvalidCredentials)
		}
		return nil, e.Wrap(op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	token, expiresAt, err := a.tokens.Issue(user.Username)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return &LoginRes{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      NewUserInfo(user),
	}, nil
}

func (a *AccountUseCase) GetUser(ctx context.Context, username string) (*UserInfo, error) {
	const op = "AccountUseCase.GetUser"

	user, err := a.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	info := NewUserInfo(user)
	return &info, nil
}

// Authenticate возвращает имя пользователя из токена.
func (a *AccountUseCase) Authenticate(ctx context.Context, token string) (string, error) {
	const op = "AccountUseCase.Authenticate"

	if token == "" {
		return "", e.Wrap(op, e.ErrUnauthorized)
	}

	username, err := a.tokens.Parse(token)
	if err != nil {
		return "", e.Wrap(op, errors.Join(e.ErrUnauthorized, err))
	}

	return username, nil
}
