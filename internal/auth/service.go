package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Atchyuteswar/ZenReader/internal/config"
	"github.com/Atchyuteswar/ZenReader/internal/database"
	"github.com/Atchyuteswar/ZenReader/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// These messages surface verbatim in JSON error responses, hence the
// sentence casing.
var (
	ErrEmailRequired      = errors.New("Email and password required")
	ErrEmailInvalid       = errors.New("Invalid email format")
	ErrDuplicateEmail     = errors.New("Email already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrGoogleOnlyAccount  = errors.New("Please login with Google")
	ErrCredentialRequired = errors.New("Credential required")
	ErrCredentialInvalid  = errors.New("Invalid credential")
	ErrUserNotFound       = errors.New("User not found")
)

// TokenResult is returned by every successful authentication path: a signed
// bearer token plus the public profile of the user it identifies.
type TokenResult struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user"`
}

// GoogleTokenVerifier validates a federated login assertion.
type GoogleTokenVerifier interface {
	Verify(credential string) (*GoogleIdentity, error)
}

// Service handles signup, login, federated login and token introspection.
type Service struct {
	db     *database.Database
	issuer *TokenIssuer
	google GoogleTokenVerifier
	config config.Auth
}

func NewService(db *database.Database, issuer *TokenIssuer, google GoogleTokenVerifier, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		issuer: issuer,
		google: google,
		config: cfg,
	}
}

// Register creates a user with a hashed password and issues a token.
// The display name defaults to the email local-part.
func (s *Service) Register(email, password, name string) (*TokenResult, error) {
	if email == "" || password == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	if _, err := s.db.GetUserByEmail(email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	user := &entities.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    time.Now(),
	}
	if err := s.db.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issueFor(user)
}

// Login validates credentials and issues a token. A missing user, an account
// without a password, and a hash mismatch are all credential failures.
func (s *Service) Login(email, password string) (*TokenResult, error) {
	if email == "" || password == "" {
		return nil, ErrEmailRequired
	}

	user, err := s.db.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, ErrGoogleOnlyAccount
	}
	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueFor(user)
}

// FederatedLogin verifies a Google credential, finds or creates the user by
// email, links the Google subject id onto a pre-existing password account,
// and issues the same bearer token format as Login.
func (s *Service) FederatedLogin(credential string) (*TokenResult, error) {
	if credential == "" {
		return nil, ErrCredentialRequired
	}
	if s.google == nil {
		return nil, errors.New("google login is not configured")
	}

	identity, err := s.google.Verify(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}

	user, err := s.db.GetUserByEmail(identity.Email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &entities.User{
			ID:        uuid.NewString(),
			Email:     identity.Email,
			GoogleID:  identity.Subject,
			Name:      identity.Name,
			CreatedAt: time.Now(),
		}
		if err := s.db.CreateUser(user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to find user: %w", err)
	case user.GoogleID == "":
		if err := s.db.LinkGoogleAccount(user.ID, identity.Subject); err != nil {
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}
		user.GoogleID = identity.Subject
	}

	return s.issueFor(user)
}

// WhoAmI resolves a validated token's subject to the public user profile.
func (s *Service) WhoAmI(claims *Claims) (*entities.User, error) {
	user, err := s.db.GetUserByID(claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) issueFor(user *entities.User) (*TokenResult, error) {
	token, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &TokenResult{Token: token, User: user}, nil
}
