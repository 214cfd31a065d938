// Package uploadsig issues and verifies the short-lived credentials that
// authorize direct uploads to the media gateway. A credential is an HMAC
// signature over a random token and an absolute expiry, so the issuing
// service and the gateway only need to share the private key; nothing is
// persisted on either side.
package uploadsig

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"

	"cms_server/server/common/cmserr"
)

const DefaultTTL = 10 * time.Minute

// Credential is the wire shape returned by GET /upload-auth. Never cached
// and never persisted; it expires on its own.
type Credential struct {
	Token       string `json:"token"`
	Expire      int64  `json:"expire"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"publicKey"`
	URLEndpoint string `json:"urlEndpoint"`
}

type Signer struct {
	publicKey   string
	privateKey  string
	urlEndpoint string
	ttl         time.Duration
	now         func() time.Time
}

func NewSigner(publicKey, privateKey, urlEndpoint string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{
		publicKey:   publicKey,
		privateKey:  privateKey,
		urlEndpoint: urlEndpoint,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Issue creates a credential valid for the signer's window. It fails with a
// configuration error when signing material is missing rather than handing
// out a forgeable credential.
func (s *Signer) Issue() (Credential, error) {
	if s.privateKey == "" || s.publicKey == "" {
		return Credential{}, cmserr.Configurationf("upload signing keys are not configured")
	}
	token := uuid.NewString()
	expire := s.now().Add(s.ttl).Unix()
	return Credential{
		Token:       token,
		Expire:      expire,
		Signature:   s.sign(token, expire),
		PublicKey:   s.publicKey,
		URLEndpoint: s.urlEndpoint,
	}, nil
}

// Verify checks a presented credential. The gateway calls this before
// accepting any bytes. Replay protection is layered on top by the caller.
func (s *Signer) Verify(token string, expire int64, signature string) error {
	if s.privateKey == "" {
		return cmserr.Configurationf("upload signing keys are not configured")
	}
	if token == "" || signature == "" {
		return cmserr.ErrCredential
	}
	if s.now().Unix() >= expire {
		return cmserr.ErrCredential
	}
	expected := s.sign(token, expire)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return cmserr.ErrCredential
	}
	return nil
}

// TTLUntil returns how long the credential has left, used as the claim TTL
// for single-use tracking.
func (s *Signer) TTLUntil(expire int64) time.Duration {
	d := time.Unix(expire, 0).Sub(s.now())
	if d < 0 {
		return 0
	}
	return d
}

func (s *Signer) sign(token string, expire int64) string {
	mac := hmac.New(sha1.New, []byte(s.privateKey))
	mac.Write([]byte(token + strconv.FormatInt(expire, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
