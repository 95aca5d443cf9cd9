package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Username:    "  alice  ",
		Password:    "  pass1234  ",
		DisplayName: " Alice ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "pass1234", req.Password)
	assert.Equal(t, "Alice", req.DisplayName)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := RegisterRequest{
		Username:    "bob",
		Password:    "password123",
		DisplayName: "Bob <script>alert('x')</script>",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.DisplayName, "&lt;script&gt;")
	assert.NotContains(t, req.DisplayName, "<script>")
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// BidRequest payloads are never sanitized: payout addresses are opaque
// and must survive byte for byte. This pins the expectation that the
// struct itself carries whatever the client sent.
func TestBidRequest_PayoutAddressIsOpaque(t *testing.T) {
	req := BidRequest{Amount: 100, PayoutAddress: `pay "to" <vault#7> & co`}
	assert.Equal(t, `pay "to" <vault#7> & co`, req.PayoutAddress)
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{"alice", "bob-2", "carol_x", "d.e.f", "A1"}
	for _, c := range cases {
		assert.True(t, safeStringRe.MatchString(c), "expected %q to be safe", c)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{"", "has space", "semi;colon", "<tag>", "quote'"}
	for _, c := range cases {
		assert.False(t, safeStringRe.MatchString(c), "expected %q to be rejected", c)
	}
}
