package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientKey(t *testing.T) {
	g := NewGenerator()

	a := g.ClientKey(ScopePayment, "user_1", "abc")
	assert.Equal(t, a, g.ClientKey(ScopePayment, "user_1", " abc "))
	assert.NotEqual(t, a, g.ClientKey(ScopePayment, "user_2", "abc"))
	assert.NotEqual(t, a, g.ClientKey(ScopePayment, "user_1", "abd"))
	assert.True(t, strings.HasPrefix(a, "payment-"))
	assert.Len(t, a, len("payment-")+32)
}

func TestGenerateKey_IgnoresParamOrder(t *testing.T) {
	g := NewGenerator()
	key := g.GenerateKey(ScopePayment, map[string]interface{}{"b": 2, "a": 1})

	assert.Equal(t, key, g.GenerateKey(ScopePayment, map[string]interface{}{"a": 1, "b": 2}))
	assert.NotEqual(t, key, g.GenerateKey(ScopePayment, map[string]interface{}{"a": 1}))
	assert.NotEqual(t, key, g.GenerateKey(ScopeNotification, map[string]interface{}{"a": 1, "b": 2}))
}
