package webhook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Leandro1530/CinemaWeb-v4/internal/webhook"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v := webhook.NewVerifier("topsecret")
	body := []byte(`{"event_id":"ev-1","external_reference":"gw-1","status":"approved"}`)

	sig := v.Sign(body)
	assert.True(t, v.Verify(body, sig))
}

func TestVerifier_RejectsTamperedBody(t *testing.T) {
	v := webhook.NewVerifier("topsecret")
	body := []byte(`{"status":"approved"}`)
	sig := v.Sign(body)

	assert.False(t, v.Verify([]byte(`{"status":"rejected"}`), sig))
}

func TestVerifier_RejectsWrongSecret(t *testing.T) {
	body := []byte(`{"status":"approved"}`)
	sig := webhook.NewVerifier("one").Sign(body)

	assert.False(t, webhook.NewVerifier("two").Verify(body, sig))
}

func TestVerifier_RejectsMalformedSignature(t *testing.T) {
	v := webhook.NewVerifier("topsecret")
	assert.False(t, v.Verify([]byte("x"), "not-hex"))
	assert.False(t, v.Verify([]byte("x"), ""))
}

func TestPayloadHash_IsStable(t *testing.T) {
	a := webhook.PayloadHash([]byte("abc"))
	b := webhook.PayloadHash([]byte("abc"))
	c := webhook.PayloadHash([]byte("abd"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
