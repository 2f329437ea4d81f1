package account

import (
	"strings"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/emberwild/emberwild/engine/common"
	"github.com/emberwild/emberwild/game/entity"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeName(t *testing.T) {
	name, key, rej := NormalizeName("  Ember_Fox-9 ")
	assert.T(t, rej == nil, "valid name")
	assert.Equal(t, "Ember_Fox-9", name)
	assert.Equal(t, "ember_fox-9", key)

	for _, bad := range []string{"ab", strings.Repeat("a", 21), "has space", "émile", "semi;colon"} {
		_, _, rej := NormalizeName(bad)
		assert.T(t, rej != nil, bad)
		assert.Equal(t, "name", rej.Field)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.T(t, ValidatePassword("short") != nil, "too short")
	assert.T(t, ValidatePassword(strings.Repeat("x", 129)) != nil, "too long")
	assert.T(t, ValidatePassword("longenough") == nil, "valid")
}

func TestValidateHeroName(t *testing.T) {
	name, rej := ValidateHeroName("  Ash   Walker ")
	assert.T(t, rej == nil, "valid hero name")
	assert.Equal(t, "Ash Walker", name)
	_, rej = ValidateHeroName("A")
	assert.T(t, rej != nil, "too short")
	_, rej = ValidateHeroName("<script>")
	assert.T(t, rej != nil, "symbols rejected")
	_, rej = ValidateHeroName(strings.Repeat("b", 17))
	assert.T(t, rej != nil, "too long")
}

func TestCredentials(t *testing.T) {
	acc, err := NewCredentials("Rook", "rook", "correct horse", 1000)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, 1000, acc.Iterations)
	assert.T(t, Verify(acc, "correct horse"), "right password")
	assert.T(t, !Verify(acc, "wrong horse"), "wrong password")

	other, _ := NewCredentials("Rook", "rook", "correct horse", 1000)
	assert.T(t, other.Salt != acc.Salt, "salts differ")
	assert.T(t, other.PasswordHash != acc.PasswordHash, "hashes differ with salt")
}

func TestSessions(t *testing.T) {
	r := NewRegistry()
	id := common.GenProfileID()
	acc := &entity.Account{Name: "Rook", NameKey: "rook"}

	assert.T(t, r.Claim("rook", id), "claim free name")
	assert.T(t, !r.Claim("rook", common.GenProfileID()), "name taken")

	token, hash, err := NewSessionToken()
	if err != nil {
		t.Fatal(err)
	}
	assert.T(t, token != hash, "only the hash is stored")
	r.SetSession(acc, id, hash)
	got, ok := r.ProfileBySession(token)
	assert.T(t, ok, "resume by token")
	assert.Equal(t, id, got)

	token2, hash2, _ := NewSessionToken()
	r.SetSession(acc, id, hash2)
	_, ok = r.ProfileBySession(token)
	assert.T(t, !ok, "old token revoked")
	_, ok = r.ProfileBySession(token2)
	assert.T(t, ok, "new token valid")

	r.SetSession(acc, id, "")
	_, ok = r.ProfileBySession(token2)
	assert.T(t, !ok, "logout clears the session")

	pr := entity.NewProfile(id, t0)
	pr.Account = &entity.Account{Name: "Rook", NameKey: "rook", SessionHash: hash}
	r2 := NewRegistry()
	r2.Index(pr)
	got, ok = r2.ProfileByName("rook")
	assert.T(t, ok, "indexed name")
	assert.Equal(t, id, got)
	_, ok = r2.ProfileBySession(token)
	assert.T(t, ok, "indexed session")
}
