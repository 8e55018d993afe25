package webhook

import (
	"strconv"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

const sha256HexLen = 64

// Verifier checks Mailgun webhook signatures.
type Verifier struct {
	mg         *mailgun.MailgunImpl
	configured bool
}

// NewVerifier creates a Verifier for signingKey. The key is expected to be
// trimmed already. An empty key makes Verify always fail.
func NewVerifier(signingKey string) *Verifier {
	// Signature checks never call the API, so domain and API key stay empty.
	mg := mailgun.NewMailgun("", "")
	mg.SetWebhookSigningKey(signingKey)
	return &Verifier{mg: mg, configured: signingKey != ""}
}

// Configured reports whether a signing key is set.
func (v *Verifier) Configured() bool { return v.configured }

// Verify reports whether signature is the HMAC-SHA256 of timestamp+token.
// It never returns an error; malformed input is a mismatch.
func (v *Verifier) Verify(token, timestamp, signature string) bool {
	if !v.configured || token == "" || timestamp == "" || !canonicalHex(signature) {
		return false
	}
	ok, err := v.mg.VerifyWebhookSignature(mailgun.Signature{
		TimeStamp: timestamp,
		Token:     token,
		Signature: signature,
	})
	return err == nil && ok
}

// canonicalHex reports whether s is a lowercase hex SHA-256 digest. The
// client decodes hex case-insensitively, so case is checked here.
func canonicalHex(s string) bool {
	if len(s) != sha256HexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// fresh reports whether a Mailgun unix timestamp is within window of now.
func fresh(timestamp string, now time.Time, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	d := now.Sub(time.Unix(secs, 0))
	if d < 0 {
		d = -d
	}
	return d <= window
}
