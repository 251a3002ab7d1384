package auth

import (
	"context"
	"strconv"

	"github.com/samber/oops"
)

// Backend types accepted in adapters.auth.backend.type.
const (
	BackendAcceptAll = "accept_all"
	BackendStatic    = "static"
)

// ErrInvalidCredentials is returned by an Authenticator that rejects the
// username/password pair. Any other error is a server error.
var ErrInvalidCredentials = oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid username or password")

// Account is the identity returned to the client on success.
type Account struct {
	ID       string
	Username string
	Email    string
}

// Authenticator checks a username/password pair.
//
// Implementations must be safe for concurrent use. Username and password
// are both non-empty when Authenticate is called.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (Account, error)
}

// AcceptAll accepts every non-empty login. It reproduces the stub the legacy
// deployment ran with: a fixed user id and a synthesized email.
type AcceptAll struct{}

// acceptAllUserID is the id the stub hands to every account.
const acceptAllUserID = "12345"

func (AcceptAll) Authenticate(_ context.Context, username, _ string) (Account, error) {
	return Account{
		ID:       acceptAllUserID,
		Username: username,
		Email:    username + "@example.com",
	}, nil
}

// StaticAccount is one account of the static backend.
type StaticAccount struct {
	Username string `mapstructure:"username" yaml:"username" validate:"required,excludes=#"`

	// PasswordHash is an argon2id PHC string, see `dwserve hash-password`.
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash" validate:"required,startswith=$argon2id$"`

	// ID is the numeric user id returned to the client. 1 is reserved for
	// the anonymous failure reply.
	ID int `mapstructure:"id" yaml:"id" validate:"gt=1"`

	// Email defaults to <username>@example.com.
	Email string `mapstructure:"email" yaml:"email" validate:"omitempty,email,excludes=#"`
}

// StaticConfig configures the static backend.
type StaticConfig struct {
	Accounts []StaticAccount `mapstructure:"accounts" yaml:"accounts" validate:"required,min=1,dive"`
}

// Static authenticates against a fixed list of accounts.
type Static struct {
	accounts map[string]StaticAccount

	// decoy is verified when the username is unknown so both failure paths
	// cost one argon2 computation.
	decoy string
}

// NewStatic builds the static backend. Usernames must be unique and every
// hash must parse.
func NewStatic(cfg StaticConfig) (*Static, error) {
	if len(cfg.Accounts) == 0 {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("static backend requires at least one account")
	}

	s := &Static{accounts: make(map[string]StaticAccount, len(cfg.Accounts))}
	for i, acct := range cfg.Accounts {
		errb := oops.Code("AUTH_INVALID_CONFIG").With("account", i).With("username", acct.Username)

		if acct.Username == "" {
			return nil, errb.Errorf("username is required")
		}
		if _, dup := s.accounts[acct.Username]; dup {
			return nil, errb.Errorf("duplicate username")
		}
		if _, err := parsePHC(acct.PasswordHash); err != nil {
			return nil, errb.Wrapf(err, "invalid password_hash")
		}
		if acct.Email == "" {
			acct.Email = acct.Username + "@example.com"
		}

		s.accounts[acct.Username] = acct
		if s.decoy == "" {
			s.decoy = acct.PasswordHash
		}
	}
	return s, nil
}

func (s *Static) Authenticate(_ context.Context, username, password string) (Account, error) {
	acct, ok := s.accounts[username]
	if !ok {
		_, _ = VerifyPassword(password, s.decoy)
		return Account{}, ErrInvalidCredentials
	}

	match, err := VerifyPassword(password, acct.PasswordHash)
	if err != nil {
		return Account{}, oops.With("username", username).Wrapf(err, "failed to verify password")
	}
	if !match {
		return Account{}, ErrInvalidCredentials
	}

	return Account{
		ID:       strconv.Itoa(acct.ID),
		Username: acct.Username,
		Email:    acct.Email,
	}, nil
}
