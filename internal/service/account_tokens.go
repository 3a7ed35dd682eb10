package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadtrack/internal/entity"
	"leadtrack/internal/repository"
	"leadtrack/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var linkPaths = map[entity.TokenType]string{
	entity.TokenTypeActivation:    "/accounts/activate/",
	entity.TokenTypeResetPassword: "/accounts/reset-password/",
}

// IssueToken mints a token for purpose, stores its record and mails the
// link. Earlier tokens of the same purpose stay valid.
func (s *AuthService) IssueToken(ctx context.Context, user *entity.User, purpose entity.TokenType) (string, *entity.TokenRecord, error) {
	token, record, err := s.createTokenRecord(ctx, s.tokens, user, purpose)
	if err != nil {
		return "", nil, err
	}
	s.sendTokenEmail(ctx, user, purpose, token)
	return token, record, nil
}

func (s *AuthService) createTokenRecord(
	ctx context.Context,
	tokens repository.TokenRecordRepository,
	user *entity.User,
	purpose entity.TokenType,
) (string, *entity.TokenRecord, error) {
	if user == nil || !purpose.Valid() {
		return "", nil, ErrInvalidInput
	}

	now := s.now()
	token, err := s.tokenGen.MakeToken(fingerprint(user), now)
	if err != nil {
		return "", nil, err
	}

	record := &entity.TokenRecord{
		UserID:    user.ID,
		TokenType: purpose,
		Token:     token,
		CreatedAt: now,
	}
	if err := tokens.Create(ctx, record); err != nil {
		return "", nil, err
	}
	return token, record, nil
}

// ValidateToken checks an account link without consuming it.
func (s *AuthService) ValidateToken(ctx context.Context, uidB64 string, token string, purpose entity.TokenType) (*entity.User, *entity.TokenRecord, error) {
	return s.validateToken(ctx, s.users, s.tokens, uidB64, token, purpose, s.now())
}

func (s *AuthService) CheckActivationLink(ctx context.Context, uidB64 string, token string) (*LinkCheck, error) {
	return s.checkLink(ctx, uidB64, token, entity.TokenTypeActivation)
}

func (s *AuthService) CheckResetLink(ctx context.Context, uidB64 string, token string) (*LinkCheck, error) {
	return s.checkLink(ctx, uidB64, token, entity.TokenTypeResetPassword)
}

func (s *AuthService) checkLink(ctx context.Context, uidB64 string, token string, purpose entity.TokenType) (*LinkCheck, error) {
	user, record, err := s.ValidateToken(ctx, uidB64, token, purpose)
	if err != nil {
		return nil, err
	}
	return &LinkCheck{User: user, ExpiresAt: record.ExpiresAt()}, nil
}

// Activate consumes an activation token and marks the account active.
func (s *AuthService) Activate(ctx context.Context, uidB64 string, token string, ipAddress *string) (*entity.User, error) {
	now := s.now()
	var activated *entity.User
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		user, record, err := s.validateToken(ctx, repos.Users, repos.Tokens, uidB64, token, entity.TokenTypeActivation, now)
		if err != nil {
			return err
		}
		if err := consume(ctx, repos.Tokens, record); err != nil {
			return err
		}
		if err := repos.Users.Activate(ctx, user.ID); err != nil {
			return err
		}
		user.IsActive = true
		activated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logSecurity(ctx, &activated.ID, ipAddress, entity.Activation, nil)
	s.logger.WithField("user_id", activated.ID).Info("account activated")
	return activated, nil
}

// RequestPasswordReset mails a reset link. Unknown addresses succeed
// silently so the endpoint cannot be used to probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string, ipAddress *string) error {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return ErrInvalidInput
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.WithField("email", email).Debug("password reset requested for unknown email")
		return nil
	}

	if _, _, err := s.IssueToken(ctx, user, entity.TokenTypeResetPassword); err != nil {
		return err
	}
	s.logSecurity(ctx, &user.ID, ipAddress, entity.PasswordResetRequested, nil)
	return nil
}

// ResetPassword consumes a reset token, stores the new password and ends
// every session of the account.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	if input.Password != input.PasswordConfirm {
		return ErrPasswordMismatch
	}
	if input.Password == "" {
		return ErrInvalidInput
	}

	// A dead link is reported as such before the new password is judged.
	owner, _, err := s.ValidateToken(ctx, input.UIDB64, input.Token, entity.TokenTypeResetPassword)
	if err != nil {
		return err
	}
	attributes := passwordAttributes(owner.Username, owner.Email, owner.FirstName, owner.LastName)
	if err := utils.ValidatePassword(input.Password, attributes...); err != nil {
		return fmt.Errorf("%w: %w", ErrWeakPassword, err)
	}

	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		user, record, err := s.validateToken(ctx, repos.Users, repos.Tokens, input.UIDB64, input.Token, entity.TokenTypeResetPassword, now)
		if err != nil {
			return err
		}
		if err := consume(ctx, repos.Tokens, record); err != nil {
			return err
		}
		return repos.Users.SetPasswordHash(ctx, user.ID, hash)
	})
	if err != nil {
		return err
	}

	if err := s.sessions.RevokeAllByUser(ctx, owner.ID, now); err != nil {
		s.logger.WithError(err).WithField("user_id", owner.ID).Warn("revoke sessions after reset failed")
	}
	s.logSecurity(ctx, &owner.ID, input.IPAddress, entity.Reset, nil)
	s.logger.WithField("user_id", owner.ID).Info("password reset")
	return nil
}

func (s *AuthService) validateToken(
	ctx context.Context,
	users repository.UserRepository,
	tokens repository.TokenRecordRepository,
	uidB64 string,
	token string,
	purpose entity.TokenType,
	now time.Time,
) (*entity.User, *entity.TokenRecord, error) {
	id, err := utils.DecodeUID(uidB64)
	if err != nil {
		return nil, nil, ErrUserNotFound
	}
	user, err := users.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, ErrTokenNotFound
	}
	record, err := tokens.FindForUser(ctx, user.ID, purpose, token)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, ErrTokenNotFound
	}

	expired := record.IsExpired(now)
	if record.IsUsed {
		if expired {
			return nil, nil, errors.Join(ErrTokenAlreadyUsed, ErrTokenExpired)
		}
		return nil, nil, ErrTokenAlreadyUsed
	}
	if expired {
		return nil, nil, ErrTokenExpired
	}
	if !s.tokenGen.CheckToken(fingerprint(user), token, now) {
		return nil, nil, ErrTokenInvalid
	}
	return user, record, nil
}

// consume loses to any transaction that marked the record first.
func consume(ctx context.Context, tokens repository.TokenRecordRepository, record *entity.TokenRecord) error {
	ok, err := tokens.MarkUsed(ctx, record.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenAlreadyUsed
	}
	record.IsUsed = true
	return nil
}

func (s *AuthService) sendTokenEmail(ctx context.Context, user *entity.User, purpose entity.TokenType, token string) {
	if s.dispatcher == nil {
		return
	}
	link := strings.TrimRight(s.config.AppBaseURL, "/") + linkPaths[purpose] + utils.EncodeUID(user.ID) + "/" + token + "/"
	message, err := renderTokenEmail(user, purpose, s.config.SiteName, link)
	if err == nil {
		err = s.dispatcher.Dispatch(ctx, message)
	}
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":    user.ID,
			"token_type": purpose,
		}).Error("account email dispatch failed")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
