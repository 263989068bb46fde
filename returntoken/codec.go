package returntoken

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultKey is the shared key baked into every deployment.
const DefaultKey = "IPBBikeCenter"

const (
	separator     = '|'
	checksumBase  = 36
	timestampBase = 10
)

var (
	// ErrMalformedToken is returned when a token fails base64 decoding, lacks a separator
	// or carries a checksum that does not match its ciphertext.
	ErrMalformedToken = errors.New("malformed return token")

	// ErrInvalidSerial is returned for empty serials or serials containing the separator.
	ErrInvalidSerial = errors.New("serial must be non-empty and must not contain '|'")

	// ErrEmptyKey is returned when WithKey receives an empty key.
	ErrEmptyKey = errors.New("return token key must not be empty")
)

// Payload is the decoded content of a token.
type Payload struct {
	Serial   string
	IssuedAt time.Time
}

// Codec encodes and decodes return tokens with one key.
type Codec struct {
	key []byte
}

// Option configures a Codec.
type Option func(*Codec) error

// WithKey replaces DefaultKey.
func WithKey(key string) Option {
	return func(c *Codec) error {
		if key == "" {
			return ErrEmptyKey
		}

		c.key = []byte(key)

		return nil
	}
}

// NewCodec creates a Codec using DefaultKey unless WithKey is given.
func NewCodec(options ...Option) (Codec, error) {
	codec := Codec{key: []byte(DefaultKey)}

	for _, option := range options {
		if err := option(&codec); err != nil {
			return Codec{}, err
		}
	}

	return codec, nil
}

// Encode builds the token for serial issued at now.
func (c Codec) Encode(serial string, now time.Time) (string, error) {
	if serial == "" || strings.IndexByte(serial, separator) >= 0 {
		return "", ErrInvalidSerial
	}

	plain := make([]byte, 0, len(serial)+1+13)
	plain = append(plain, serial...)
	plain = append(plain, separator)
	plain = strconv.AppendInt(plain, now.UnixMilli(), timestampBase)

	cipher := c.xor(plain)

	raw := make([]byte, 0, len(cipher)+8)
	raw = append(raw, cipher...)
	raw = append(raw, separator)
	raw = append(raw, checksum(cipher)...)

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode returns the serial carried by token.
func (c Codec) Decode(token string) (string, error) {
	payload, err := c.DecodePayload(token)
	if err != nil {
		return "", err
	}

	return payload.Serial, nil
}

// DecodePayload returns serial and issue instant carried by token.
func (c Codec) DecodePayload(token string) (Payload, error) {
	// the base64 decoder skips line breaks, which would let a corrupted token through
	if token == "" || strings.ContainsAny(token, "\r\n") {
		return Payload{}, ErrMalformedToken
	}

	raw, err := base64.RawURLEncoding.Strict().DecodeString(token)
	if err != nil {
		return Payload{}, errors.Join(ErrMalformedToken, err)
	}

	// the checksum is base 36 and never contains the separator, the ciphertext may
	cut := bytes.LastIndexByte(raw, separator)
	if cut < 0 {
		return Payload{}, ErrMalformedToken
	}

	cipher, sum := raw[:cut], raw[cut+1:]
	if string(sum) != string(checksum(cipher)) {
		return Payload{}, ErrMalformedToken
	}

	plain := c.xor(cipher)

	cut = bytes.IndexByte(plain, separator)
	if cut <= 0 {
		return Payload{}, ErrMalformedToken
	}

	millis, err := strconv.ParseInt(string(plain[cut+1:]), timestampBase, 64)
	if err != nil {
		return Payload{}, errors.Join(ErrMalformedToken, err)
	}

	return Payload{
		Serial:   string(plain[:cut]),
		IssuedAt: time.UnixMilli(millis).UTC(),
	}, nil
}

// Verify reports whether token decodes to expectedSerial. It never fails loudly.
func (c Codec) Verify(token, expectedSerial string) bool {
	serial, err := c.Decode(token)
	if err != nil {
		return false
	}

	return serial == expectedSerial
}

func (c Codec) xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		out[i] = b ^ c.key[i%len(c.key)]
	}

	return out
}

func checksum(cipher []byte) []byte {
	var sum int64
	for _, b := range cipher {
		sum += int64(b)
	}

	return strconv.AppendInt(nil, sum, checksumBase)
}
