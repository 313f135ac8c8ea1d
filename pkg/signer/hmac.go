package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash"
)

// Codec lists the cursor methods the handlers rely on.
// Implementations must be safe for concurrent use.
type Codec interface {
	EncodeCatalogCursor(offset int64) string
	DecodeCatalogCursor(token string) (int64, error)
}

// HMAC implements Codec using HMAC-SHA256 for integrity.
// It encodes payloads as base64 URL without padding.
type HMAC struct {
	key []byte
	h   func() hash.Hash
}

// NewHMAC creates an HMAC signer with the provided secret key.
func NewHMAC(key []byte) *HMAC {
	return &HMAC{key: append([]byte(nil), key...), h: sha256.New}
}

// seal signs the payload and returns a base64url token payload||sig.
func (c *HMAC) seal(payload []byte) string {
	mac := hmac.New(c.h, c.key)
	mac.Write(payload)
	sig := mac.Sum(nil)
	buf := append(payload, sig...)
	return base64.RawURLEncoding.EncodeToString(buf)
}

// open verifies the token and returns the payload bytes.
func (c *HMAC) open(token string, minPayloadLen int) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	if len(raw) < minPayloadLen+32 {
		return nil, errors.New("invalid_cursor_length")
	}
	payload := raw[:len(raw)-32]
	sig := raw[len(raw)-32:]
	mac := hmac.New(c.h, c.key)
	mac.Write(payload)
	expected := mac.Sum(nil)
	if !hmac.Equal(sig, expected) {
		return nil, errors.New("invalid_cursor_signature")
	}
	return payload, nil
}

// Catalog cursor: offset(int64) into the snapshot's stable movie order.
func (c *HMAC) EncodeCatalogCursor(offset int64) string {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, uint64(offset))
	return c.seal(payload)
}

func (c *HMAC) DecodeCatalogCursor(token string) (int64, error) {
	payload, err := c.open(token, 8)
	if err != nil {
		return 0, err
	}
	off := int64(binary.BigEndian.Uint64(payload))
	if off < 0 {
		return 0, errors.New("invalid_cursor_payload")
	}
	return off, nil
}
