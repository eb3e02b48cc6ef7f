package password

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corpident/identity-hub/pkg/directory"
	"github.com/google/uuid"
)

// DefaultResetTokenTTL is how long a reset link stays valid.
const DefaultResetTokenTTL = 72 * time.Hour

// ResetTokenGenerator creates and checks stateless password-reset tokens.
// The signature covers the user's current password hash, so a token becomes
// invalid the moment the password changes; nothing is stored server side.
type ResetTokenGenerator struct {
	Secret []byte
	TTL    time.Duration

	// now is swappable for tests
	now func() time.Time
}

func NewResetTokenGenerator(secret string, ttl time.Duration) *ResetTokenGenerator {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenGenerator{
		Secret: []byte(secret),
		TTL:    ttl,
		now:    time.Now,
	}
}

func (g *ResetTokenGenerator) signature(user directory.User, timestamp int64) string {
	mac := hmac.New(sha256.New, g.Secret)
	fmt.Fprintf(mac, "%s|%s|%d", user.ID, user.PasswordHash, timestamp)
	return hex.EncodeToString(mac.Sum(nil))
}

// MakeToken builds a reset token for the user's current credential state.
func (g *ResetTokenGenerator) MakeToken(user directory.User) string {
	timestamp := g.now().Unix()
	return fmt.Sprintf("%s-%s", strconv.FormatInt(timestamp, 36), g.signature(user, timestamp))
}

// CheckToken reports whether the token is genuine, unexpired, and bound to
// the user's current password hash.
func (g *ResetTokenGenerator) CheckToken(user directory.User, token string) bool {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) != 2 {
		return false
	}
	timestamp, err := strconv.ParseInt(parts[0], 36, 64)
	if err != nil {
		return false
	}
	if g.now().Sub(time.Unix(timestamp, 0)) > g.TTL {
		return false
	}
	expected := g.signature(user, timestamp)
	return hmac.Equal([]byte(expected), []byte(parts[1]))
}

// EncodeUserRef turns a user ID into the opaque uid reference carried in
// reset links.
func EncodeUserRef(userID uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(userID[:])
}

// DecodeUserRef reverses EncodeUserRef.
func DecodeUserRef(ref string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ref)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(raw)
}
