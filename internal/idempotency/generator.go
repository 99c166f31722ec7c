package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope represents the scope of idempotency
type Scope string

const (
	ScopePayment      Scope = "payment"
	ScopeNotification Scope = "ntf"
)

// Generator generates idempotency keys
type Generator struct{}

// NewGenerator creates a new idempotency key generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey generates an idempotency key from a scope and parameters
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:16]))
}

// ClientKey scopes a caller supplied key to the user that sent it, so two
// users picking the same key never collide.
func (g *Generator) ClientKey(scope Scope, userID, clientKey string) string {
	return g.GenerateKey(scope, map[string]interface{}{
		"user_id": userID,
		"key":     strings.TrimSpace(clientKey),
	})
}
