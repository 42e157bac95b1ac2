package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	codeMACBytes = 10
	clockSkew    = time.Minute
)

// CodeSubject is the user state a confirmation code is bound to. Changing any
// field invalidates codes generated before the change.
type CodeSubject struct {
	UserID   uuid.UUID
	Version  int64
	Username string
	Email    string
}

// CodeGenerator produces codes of the form "<issued-at base36>-<hex mac>".
// Nothing is stored: verification recomputes the MAC from current state.
type CodeGenerator struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewCodeGenerator(key []byte, ttl time.Duration) *CodeGenerator {
	return &CodeGenerator{key: key, ttl: ttl, now: time.Now}
}

func (g *CodeGenerator) Generate(s CodeSubject) string {
	issuedAt := g.now().Unix()
	return strconv.FormatInt(issuedAt, 36) + "-" + hex.EncodeToString(g.mac(s, issuedAt))
}

// Verify reports whether code was generated for s and has not expired.
func (g *CodeGenerator) Verify(s CodeSubject, code string) bool {
	tsPart, macPart, ok := strings.Cut(strings.TrimSpace(code), "-")
	if !ok {
		return false
	}

	issuedAt, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}

	now := g.now()
	issued := time.Unix(issuedAt, 0)
	if issued.After(now.Add(clockSkew)) || now.Sub(issued) > g.ttl {
		return false
	}

	got, err := hex.DecodeString(macPart)
	if err != nil {
		return false
	}
	return hmac.Equal(got, g.mac(s, issuedAt))
}

func (g *CodeGenerator) mac(s CodeSubject, issuedAt int64) []byte {
	m := hmac.New(sha256.New, g.key)
	m.Write(s.UserID[:])
	writeInt(m, s.Version)
	writeString(m, s.Username)
	writeString(m, s.Email)
	writeInt(m, issuedAt)
	return m.Sum(nil)[:codeMACBytes]
}

func writeInt(h hash.Hash, v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	h.Write(buf[:])
}

// length prefix keeps ("ab","c") and ("a","bc") apart
func writeString(h hash.Hash, s string) {
	writeInt(h, int64(len(s)))
	h.Write([]byte(s))
}
