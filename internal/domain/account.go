package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Field format rules carried over from the account directory schema.
// Login and password are restricted to latin letters and digits; the
// display name additionally allows cyrillic letters.
var (
	loginPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Zа-яА-Я]+$`)
)

// Account represents a single entry in the user directory.
// The plaintext password is never persisted; only a bcrypt hash is stored.
type Account struct {
	ID             uuid.UUID  `json:"id"`
	Login          string     `json:"login"`
	Password       string     `json:"-"` // Plaintext, present only between request parsing and hashing
	HashedPassword string     `json:"-"` // Never exposed in JSON
	Name           string     `json:"name"`
	Gender         int        `json:"gender"`
	Birthday       *time.Time `json:"birthday,omitempty"`
	Admin          bool       `json:"admin"`

	CreatedAt  time.Time  `json:"created_at"`
	CreatedBy  string     `json:"created_by"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
	ModifiedBy *string    `json:"modified_by,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	RevokedBy  *string    `json:"revoked_by,omitempty"`
}

// NewAccount creates a new active Account with the given fields.
// It generates a new UUID for the account ID and stamps the creation audit pair.
// Returns an error if validation fails.
//
// NOTE: The caller is responsible for hashing the password before storing
// the account; this function only validates the plaintext.
func NewAccount(
	login, password, name string,
	gender int,
	birthday *time.Time,
	admin bool,
	createdBy string,
) (*Account, error) {
	account := &Account{
		ID:        uuid.New(),
		Login:     login,
		Password:  password,
		Name:      name,
		Gender:    gender,
		Birthday:  birthday,
		Admin:     admin,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

// Validate checks if the Account has valid data.
// Returns an error if any field fails validation.
func (a *Account) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAccountID
	}

	if err := ValidateLogin(a.Login); err != nil {
		return err
	}

	if err := ValidateName(a.Name); err != nil {
		return err
	}

	// During creation and password changes the plaintext is validated;
	// existing accounts loaded from the store carry only the hash.
	if a.Password != "" {
		if err := ValidatePassword(a.Password); err != nil {
			return err
		}
	} else if a.HashedPassword == "" {
		return ErrEmptyPassword
	}

	// The revocation audit pair is always set or cleared together.
	if (a.RevokedAt == nil) != (a.RevokedBy == nil) {
		return ErrInconsistentRevocation
	}

	return nil
}

// IsActive reports whether the account is in the Active lifecycle state.
// Revoked accounts cannot authenticate and are excluded from default listings.
func (a *Account) IsActive() bool {
	return a.RevokedAt == nil
}

// ValidateLogin checks a login against the directory's format rule.
func ValidateLogin(login string) error {
	if login == "" {
		return ErrEmptyLogin
	}
	if !loginPattern.MatchString(login) {
		return ErrInvalidLogin
	}
	return nil
}

// ValidatePassword checks a plaintext password against the directory's format rule.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if !loginPattern.MatchString(password) {
		return ErrInvalidPassword
	}
	return nil
}

// ValidateName checks a display name against the directory's format rule.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}
