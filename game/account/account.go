// Package account validates credentials and hero names, derives password keys and tracks session tokens
package account

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/engine/uuid"
	"github.com/emberwild/emberwild/game/entity"
	"github.com/emberwild/emberwild/game/proto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// Credential limits
const (
	DefaultIterations = 120000
	SaltBytes         = 16
	KeyBytes          = 32
	TokenBytes        = 32

	minNameLength     = 3
	maxNameLength     = 20
	minPasswordLength = 8
	maxPasswordLength = 128
	minHeroNameLength = 2
	maxHeroNameLength = 16
)

// NormalizeName validates an account name and returns it with its case-insensitive key
func NormalizeName(name string) (string, string, *proto.Rejection) {
	name = strings.TrimSpace(name)
	if len(name) < minNameLength || len(name) > maxNameLength {
		return "", "", proto.Reject("name", "Account names are 3 to 20 characters.")
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return "", "", proto.Reject("name", "Account names may only use letters, digits, _ and -.")
		}
	}
	return name, strings.ToLower(name), nil
}

// ValidatePassword checks the password length
func ValidatePassword(password string) *proto.Rejection {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return proto.Reject("password", "Passwords are 8 to 128 characters.")
	}
	return nil
}

// ValidateHeroName trims a hero name and checks it uses letters, digits and single spaces
func ValidateHeroName(name string) (string, *proto.Rejection) {
	name = strings.Join(strings.Fields(name), " ")
	n := len([]rune(name))
	if n < minHeroNameLength || n > maxHeroNameLength {
		return "", proto.Reject("name", "Hero names are 2 to 16 characters.")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
			return "", proto.Reject("name", "Hero names may only use letters, digits and spaces.")
		}
	}
	return name, nil
}

// DeriveKey runs pbkdf2-sha256 over the password
func DeriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, KeyBytes, sha256.New)
}

// NewCredentials salts and derives a password into a fresh account record
func NewCredentials(name, nameKey, password string, iterations int) (*entity.Account, error) {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	salt, err := uuid.GenSecret(SaltBytes)
	if err != nil {
		return nil, errors.Wrap(err, "generate salt")
	}
	return &entity.Account{
		Name:         name,
		NameKey:      nameKey,
		PasswordHash: base64.StdEncoding.EncodeToString(DeriveKey(password, salt, iterations)),
		Salt:         base64.StdEncoding.EncodeToString(salt),
		Iterations:   iterations,
	}, nil
}

// Verify derives password with the account's salt and compares in constant time
func Verify(acc *entity.Account, password string) bool {
	salt, err := base64.StdEncoding.DecodeString(acc.Salt)
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(acc.PasswordHash)
	if err != nil || acc.Iterations <= 0 {
		return false
	}
	got := DeriveKey(password, salt, acc.Iterations)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// NewSessionToken returns a token for the client and the hash kept on the server
func NewSessionToken() (string, string, error) {
	token, err := uuid.GenToken(TokenBytes)
	if err != nil {
		return "", "", err
	}
	return token, HashToken(token), nil
}

// HashToken is the stored form of a session token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Registry indexes account names and live session hashes
type Registry struct {
	names    map[string]common.ProfileID
	sessions map[string]common.ProfileID
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		names:    map[string]common.ProfileID{},
		sessions: map[string]common.ProfileID{},
	}
}

// Index records a loaded profile's account and session
func (r *Registry) Index(p *entity.Profile) {
	if p.Account == nil {
		return
	}
	r.names[p.Account.NameKey] = p.ID
	if p.Account.SessionHash != "" {
		r.sessions[p.Account.SessionHash] = p.ID
	}
}

// ProfileByName looks up the profile owning a name key
func (r *Registry) ProfileByName(nameKey string) (common.ProfileID, bool) {
	id, ok := r.names[nameKey]
	return id, ok
}

// Claim reserves a name key; it fails if another profile has it
func (r *Registry) Claim(nameKey string, id common.ProfileID) bool {
	if owner, ok := r.names[nameKey]; ok && owner != id {
		return false
	}
	r.names[nameKey] = id
	return true
}

// Release frees a name key held by id
func (r *Registry) Release(nameKey string, id common.ProfileID) {
	if r.names[nameKey] == id {
		delete(r.names, nameKey)
	}
}

// ProfileBySession resolves a raw session token
func (r *Registry) ProfileBySession(token string) (common.ProfileID, bool) {
	if token == "" {
		return "", false
	}
	id, ok := r.sessions[HashToken(token)]
	return id, ok
}

// SetSession replaces the session of a profile
func (r *Registry) SetSession(acc *entity.Account, id common.ProfileID, hash string) {
	if acc.SessionHash != "" {
		delete(r.sessions, acc.SessionHash)
	}
	acc.SessionHash = hash
	if hash != "" {
		r.sessions[hash] = id
	}
}
