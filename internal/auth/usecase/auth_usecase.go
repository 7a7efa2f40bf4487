package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	validation "github.com/jellydator/validation"
	"golang.org/x/sync/singleflight"

	authDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/auth/domain"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/network"
)

// Options configures an AuthUseCase.
type Options struct {
	UserID   string
	JoinCode string
	Prefix   string
	// Scheme names the signature scheme sent with the token exchange.
	Scheme string
	// Threshold is the remaining lifetime at or below which tokens rotate.
	Threshold time.Duration
	// Now replaces time.Now.
	Now func() time.Time
}

type authUseCase struct {
	api       AuthAPI
	keys      *keysService.KeyManager
	userID    string
	joinCode  string
	prefix    string
	scheme    string
	threshold time.Duration
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.RWMutex
	session authDomain.Session
	group   singleflight.Group
}

// NewAuthUseCase creates the workflow for opts.UserID, signing challenges with keys.
func NewAuthUseCase(opts Options, api AuthAPI, keys *keysService.KeyManager, logger *slog.Logger) AuthUseCase {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Scheme == "" {
		opts.Scheme = "ed25519"
	}
	if opts.Threshold <= 0 {
		opts.Threshold = authDomain.DefaultRefreshThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &authUseCase{
		api:       api,
		keys:      keys,
		userID:    opts.UserID,
		joinCode:  opts.JoinCode,
		prefix:    opts.Prefix,
		scheme:    opts.Scheme,
		threshold: opts.Threshold,
		now:       opts.Now,
		logger:    logger,
	}
}

func (a *authUseCase) Authenticate(ctx context.Context) (authDomain.Session, error) {
	if a.userID == "" || a.keys == nil || !a.keys.HasPrivateKey() {
		return authDomain.Session{}, authDomain.ErrMissingCredentials
	}

	exists, err := a.api.IDExists(ctx, a.userID)
	if err != nil {
		a.logger.Warn("identity check unreachable, assuming new identity",
			slog.String("user_id", a.userID),
			slog.Any("error", err),
		)
		exists = false
	}

	codeReq := network.AuthCodeRequest{UserID: a.userID, Prefix: a.prefix}
	if !exists {
		codeReq.JoinCode = a.joinCode
		a.logger.Info("registering new identity", slog.String("user_id", a.userID))
	}

	code, err := a.api.AuthCode(ctx, codeReq)
	if err != nil {
		return authDomain.Session{}, &authDomain.AuthenticationError{Op: "challenge", Err: err}
	}
	if code == "" {
		return authDomain.Session{}, &authDomain.AuthenticationError{Op: "challenge", Detail: "empty auth code"}
	}

	signature, err := a.keys.Sign([]byte(code), keysDomain.EncodingHex)
	if err != nil {
		return authDomain.Session{}, fmt.Errorf("sign challenge: %w", err)
	}

	tokens, err := a.api.AuthToken(ctx, network.AuthTokenRequest{
		UserID:    a.userID,
		AuthCode:  code,
		Signature: string(signature),
		Key:       a.keys.PublicKeyString(keysDomain.EncodingBase64),
		Scheme:    a.scheme,
	})
	if err != nil {
		return authDomain.Session{}, &authDomain.AuthenticationError{Op: "token exchange", Err: err}
	}

	session, err := a.store("token exchange", tokens)
	if err != nil {
		return authDomain.Session{}, err
	}
	a.logger.Info("authenticated",
		slog.String("user_id", a.userID),
		slog.Time("access_expires", session.AccessExpiresAt()),
	)
	return session, nil
}

func (a *authUseCase) Refresh(ctx context.Context) (authDomain.Session, error) {
	current := a.Session()
	if current.RefreshToken == "" {
		return authDomain.Session{}, authDomain.ErrNoSession
	}
	if current.RefreshExpired(a.now()) {
		return authDomain.Session{}, authDomain.ErrRefreshExpired
	}

	tokens, err := a.api.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return authDomain.Session{}, &authDomain.AuthenticationError{Op: "refresh", Err: err}
	}

	session, err := a.store("refresh", tokens)
	if err != nil {
		return authDomain.Session{}, err
	}
	a.logger.Info("session refreshed",
		slog.String("user_id", a.userID),
		slog.Time("access_expires", session.AccessExpiresAt()),
	)
	return session, nil
}

func (a *authUseCase) Rotate(ctx context.Context) (authDomain.RotateAction, error) {
	action := authDomain.DecideRotation(a.Session(), a.now(), a.threshold)

	var err error
	switch action {
	case authDomain.RotateRefresh:
		_, err = a.Refresh(ctx)
	case authDomain.RotateAuthenticate:
		_, err = a.Authenticate(ctx)
	}
	if err != nil {
		return action, err
	}
	if action != authDomain.RotateNone {
		a.logger.Debug("session rotated", slog.String("action", action.String()))
	}
	return action, nil
}

func (a *authUseCase) AccessToken(ctx context.Context) (string, error) {
	if authDomain.DecideRotation(a.Session(), a.now(), a.threshold) == authDomain.RotateNone {
		return a.Session().AccessToken, nil
	}

	_, err, _ := a.group.Do("rotate", func() (any, error) {
		return a.Rotate(ctx)
	})
	if err != nil {
		return "", err
	}
	return a.Session().AccessToken, nil
}

func (a *authUseCase) Session() authDomain.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

func (a *authUseCase) Logout(ctx context.Context) error {
	current := a.Session()
	if current.AccessToken == "" {
		return authDomain.ErrNoSession
	}
	if err := a.api.Logout(ctx, current.AccessToken); err != nil {
		return &authDomain.AuthenticationError{Op: "logout", Err: err}
	}

	a.mu.Lock()
	a.session = authDomain.Session{}
	a.mu.Unlock()
	a.logger.Info("logged out", slog.String("user_id", a.userID))
	return nil
}

func (a *authUseCase) ValidateToken(ctx context.Context) (json.RawMessage, error) {
	current := a.Session()
	if current.AccessToken == "" {
		return nil, authDomain.ErrNoSession
	}
	info, err := a.api.ValidToken(ctx, current.AccessToken)
	if err != nil {
		return nil, &authDomain.AuthenticationError{Op: "validate token", Err: err}
	}
	return info, nil
}

// store validates tokens and makes them the current session.
func (a *authUseCase) store(op string, tokens *network.TokenResponse) (authDomain.Session, error) {
	if err := validateTokens(tokens); err != nil {
		return authDomain.Session{}, &authDomain.AuthenticationError{
			Op:     op,
			Detail: err.Error(),
			Err:    authDomain.ErrIncompleteTokens,
		}
	}

	session := authDomain.Session{
		UserID:         a.userID,
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		AccessExpires:  tokens.AccessTokenExpires,
		RefreshExpires: tokens.RefreshTokenExpires,
	}

	a.mu.Lock()
	a.session = session
	a.mu.Unlock()
	return session, nil
}

func validateTokens(tokens *network.TokenResponse) error {
	if tokens == nil {
		return validation.NewError("validation_tokens_missing", "no tokens returned")
	}
	return validation.ValidateStruct(tokens,
		validation.Field(&tokens.AccessToken, validation.Required),
		validation.Field(&tokens.RefreshToken, validation.Required),
		validation.Field(&tokens.AccessTokenExpires, validation.Required),
		validation.Field(&tokens.RefreshTokenExpires, validation.Required),
	)
}

// KeepAlive rotates the session every interval until ctx is done. Rotation failures are
// logged and retried at the next tick; KeepAlive returns the context error. notify, when
// set, is called after every rotation that did something.
func KeepAlive(
	ctx context.Context,
	uc AuthUseCase,
	interval time.Duration,
	notify func(authDomain.RotateAction),
	logger *slog.Logger,
) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			action, err := uc.Rotate(ctx)
			if err != nil {
				logger.Error("session rotation failed", slog.String("action", action.String()), slog.Any("error", err))
				continue
			}
			if action != authDomain.RotateNone {
				logger.Info("session rotated", slog.String("action", action.String()))
				if notify != nil {
					notify(action)
				}
			}
		}
	}
}
