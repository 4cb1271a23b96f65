package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"elearning/internal/auth"
	apperrors "elearning/internal/errors"
	"elearning/internal/metrics"
	"elearning/internal/model"
	"elearning/internal/notify"
	"elearning/internal/repository"
)

const msgCredentialsMismatch = "email and password do not match"

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Name     string
	LastName string
}

// Session is returned on successful login or verification.
type Session struct {
	Profile
	Token   string `json:"token"`
	Refresh string `json:"refresh"`
}

// AuthService handles the account lifecycle: registration, email
// verification, login and password recovery.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) error
	Login(ctx context.Context, email, password string) (*Session, error)
	Verify(ctx context.Context, email, code string) (*Session, error)
	ForgotPassword(ctx context.Context, email string) error
	RecoverPassword(ctx context.Context, email, code, newPassword string) error
	ResendCode(ctx context.Context, email string) error
}

type authService struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	codes    *auth.CodeIssuer
	hasher   PasswordHasher
	notifier Notifier
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	tokens TokenIssuer,
	codes *auth.CodeIssuer,
	hasher PasswordHasher,
	notifier Notifier,
) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		codes:    codes,
		hasher:   hasher,
		notifier: notifier,
	}
}

// Register creates an unverified account and emails its verification code.
func (s *authService) Register(ctx context.Context, in RegisterInput) error {
	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return apperrors.Conflict("email is already registered")
	} else if !isNotFound(err) {
		return apperrors.Internal(fmt.Errorf("check email: %w", err))
	}

	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return apperrors.Conflict("username is already taken")
	} else if !isNotFound(err) {
		return apperrors.Internal(fmt.Errorf("check username: %w", err))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return apperrors.Internal(err)
	}

	code, err := s.codes.Issue()
	if err != nil {
		return apperrors.Internal(err)
	}

	user := &model.User{
		Email:            in.Email,
		Username:         in.Username,
		PasswordHash:     hash,
		Name:             in.Name,
		LastName:         in.LastName,
		Role:             model.RoleFree,
		VerificationCode: &code.Code,
		CodeExpiry:       &code.ExpiresAt,
		ViewedClasses:    []uint{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return apperrors.Conflict("email or username is already taken")
		}
		return apperrors.Internal(fmt.Errorf("create user: %w", err))
	}

	metrics.RecordCodeIssued("register")
	s.notifier.Notify(ctx, notify.VerificationMessage(user.Email, code.Code))
	return nil
}

// Login returns a session for a verified user. Unknown emails and wrong
// passwords are reported identically.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			metrics.RecordLogin("rejected")
			return nil, apperrors.NotFound(msgCredentialsMismatch)
		}
		return nil, apperrors.Internal(fmt.Errorf("find user: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			metrics.RecordLogin("rejected")
			return nil, apperrors.NotFound(msgCredentialsMismatch)
		}
		return nil, apperrors.Internal(err)
	}

	if !user.Verified {
		metrics.RecordLogin("unverified")
		if err := s.reissue(ctx, user, "login", notify.VerificationMessage); err != nil {
			return nil, err
		}
		return nil, apperrors.Unauthorized("user is not verified")
	}

	metrics.RecordLogin("success")
	return s.session(user)
}

// Verify checks the emailed code and, on success, marks the user verified
// and opens a session.
func (s *authService) Verify(ctx context.Context, email, code string) (*Session, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// A verified user can still hold a password recovery code.
	if user.Verified && user.CodeExpiry != nil {
		return nil, apperrors.Validation("account is already verified")
	}
	if err := s.checkCode(ctx, user, code, "verify", notify.VerificationMessage); err != nil {
		return nil, err
	}

	if err := s.users.Update(ctx, user.ID, map[string]interface{}{
		"verified":          true,
		"verification_code": nil,
		"code_expiry":       nil,
	}); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("mark verified: %w", err))
	}
	user.Verified = true
	user.VerificationCode = nil
	user.CodeExpiry = nil

	return s.session(user)
}

// ForgotPassword emails a password recovery code.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.reissue(ctx, user, "forgot_password", notify.PasswordRecoveryMessage)
}

// RecoverPassword replaces the password when code matches the one emailed
// by ForgotPassword.
func (s *authService) RecoverPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.checkCode(ctx, user, code, "recover_password", notify.PasswordRecoveryMessage); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Internal(err)
	}
	if err := s.users.Update(ctx, user.ID, map[string]interface{}{
		"password":          hash,
		"verification_code": nil,
		"code_expiry":       nil,
	}); err != nil {
		return apperrors.Internal(fmt.Errorf("update password: %w", err))
	}
	return nil
}

// ResendCode always issues and emails a fresh code.
func (s *authService) ResendCode(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.reissue(ctx, user, "resend", notify.ResendCodeMessage)
}

func (s *authService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(fmt.Errorf("find user: %w", err))
	}
	return user, nil
}

// checkCode validates code against the pending one. An expired code is
// replaced, and the replacement emailed, before the error is returned.
func (s *authService) checkCode(
	ctx context.Context,
	user *model.User,
	code, flow string,
	template func(to, code string) notify.Message,
) error {
	if user.CodeExpiry == nil || user.VerificationCode == nil {
		return apperrors.Forbidden("no verification code has been issued")
	}

	pending := auth.VerificationCode{Code: *user.VerificationCode, ExpiresAt: *user.CodeExpiry}
	if pending.Expired(s.codes.Now()) {
		if err := s.reissue(ctx, user, flow, template); err != nil {
			return err
		}
		return apperrors.Validation("verification code has expired, a new one has been sent")
	}

	given := strings.ToUpper(strings.TrimSpace(code))
	if subtle.ConstantTimeCompare([]byte(given), []byte(pending.Code)) != 1 {
		return apperrors.Validation("invalid verification code")
	}
	return nil
}

// reissue stores a fresh code for user and then emails it.
func (s *authService) reissue(
	ctx context.Context,
	user *model.User,
	flow string,
	template func(to, code string) notify.Message,
) error {
	code, err := s.codes.Issue()
	if err != nil {
		return apperrors.Internal(err)
	}

	if err := s.users.Update(ctx, user.ID, map[string]interface{}{
		"verification_code": code.Code,
		"code_expiry":       code.ExpiresAt,
	}); err != nil {
		return apperrors.Internal(fmt.Errorf("store verification code: %w", err))
	}
	user.VerificationCode = &code.Code
	user.CodeExpiry = &code.ExpiresAt

	metrics.RecordCodeIssued(flow)
	s.notifier.Notify(ctx, template(user.Email, code.Code))
	return nil
}

func (s *authService) session(user *model.User) (*Session, error) {
	identity := auth.Identity{ID: user.ID, Email: user.Email}

	access, err := s.tokens.IssueAccess(identity)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refresh, err := s.tokens.IssueRefresh(identity)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &Session{
		Profile: NewProfile(user),
		Token:   access,
		Refresh: refresh,
	}, nil
}
