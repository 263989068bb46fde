package returntoken_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/returntoken"
)

func newCodec(t *testing.T, options ...returntoken.Option) returntoken.Codec {
	t.Helper()

	codec, err := returntoken.NewCodec(options...)
	require.NoError(t, err)

	return codec
}

func Test_Codec_RoundTrip(t *testing.T) {
	// arrange
	codec := newCodec(t)
	serials := []string{"BK-2023-001", "SPD-042", "x", "Polygon Monarch 5 #17", "sepeda-ü"}
	instants := []time.Time{
		time.UnixMilli(0),
		time.UnixMilli(1715000000000),
		time.Date(2030, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
	}

	for _, serial := range serials {
		for _, instant := range instants {
			// act
			token, err := codec.Encode(serial, instant)
			require.NoError(t, err)

			payload, decodeErr := codec.DecodePayload(token)

			// assert
			require.NoError(t, decodeErr)
			assert.Equal(t, serial, payload.Serial)
			assert.Equal(t, instant.UnixMilli(), payload.IssuedAt.UnixMilli())
			assert.True(t, codec.Verify(token, serial))
		}
	}
}

func Test_Codec_Encode_KnownToken(t *testing.T) {
	// arrange
	codec := newCodec(t)

	// act
	token, err := codec.Encode("BK-2023-001", time.UnixMilli(1715000000000))

	// assert
	require.NoError(t, err)
	assert.Equal(t, "CxtvcFlZVm5VXkUZQ35hd3JZW1VzVV5EVXwxbmo", token)
}

func Test_Codec_Encode_DiffersPerInstant(t *testing.T) {
	// arrange
	codec := newCodec(t)
	now := time.UnixMilli(1715000000000)

	// act
	first, err1 := codec.Encode("BK-2023-001", now)
	second, err2 := codec.Encode("BK-2023-001", now.Add(time.Millisecond))

	// assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotEqual(t, first, second)
}

func Test_Codec_Encode_RejectsInvalidSerial(t *testing.T) {
	// arrange
	codec := newCodec(t)

	// act
	_, errEmpty := codec.Encode("", time.Now())
	_, errSeparator := codec.Encode("BK|1", time.Now())

	// assert
	assert.ErrorIs(t, errEmpty, returntoken.ErrInvalidSerial)
	assert.ErrorIs(t, errSeparator, returntoken.ErrInvalidSerial)
}

func Test_Codec_Verify_AnySingleBitFlipFails(t *testing.T) {
	// arrange
	codec := newCodec(t)
	serial := "BK-2023-001"
	token, err := codec.Encode(serial, time.UnixMilli(1715000000000))
	require.NoError(t, err)

	for i := range len(token) {
		for bit := range 8 {
			corrupted := []byte(token)
			corrupted[i] ^= 1 << bit

			// act
			ok := codec.Verify(string(corrupted), serial)

			// assert
			assert.False(t, ok, "flip of bit %d in position %d must be detected", bit, i)
		}
	}
}

func Test_Codec_Decode_Malformed(t *testing.T) {
	// arrange
	codec := newCodec(t)
	valid, err := codec.Encode("BK-2023-001", time.UnixMilli(1715000000000))
	require.NoError(t, err)

	testCases := map[string]string{
		"empty":           "",
		"not base64":      "###",
		"no separator":    base64.RawURLEncoding.EncodeToString([]byte("abcdef")),
		"bad checksum":    base64.RawURLEncoding.EncodeToString([]byte("abc|zz")),
		"padded":          valid + "=",
		"with line break": valid[:4] + "\n" + valid[4:],
	}

	for name, token := range testCases {
		t.Run(name, func(t *testing.T) {
			// act
			_, decodeErr := codec.Decode(token)

			// assert
			assert.ErrorIs(t, decodeErr, returntoken.ErrMalformedToken)
			assert.False(t, codec.Verify(token, "BK-2023-001"))
		})
	}
}

func Test_Codec_Verify_DifferentSerial(t *testing.T) {
	// arrange
	codec := newCodec(t)
	token, err := codec.Encode("BK-2023-001", time.Now())
	require.NoError(t, err)

	// act & assert
	assert.False(t, codec.Verify(token, "BK-2023-002"))
}

func Test_Codec_WithKey(t *testing.T) {
	// arrange
	codec := newCodec(t, returntoken.WithKey("another-key"))
	defaultCodec := newCodec(t)

	token, err := codec.Encode("BK-2023-001", time.UnixMilli(1715000000000))
	require.NoError(t, err)

	// act
	_, errEmptyKey := returntoken.NewCodec(returntoken.WithKey(""))

	// assert
	assert.True(t, codec.Verify(token, "BK-2023-001"))
	assert.False(t, defaultCodec.Verify(token, "BK-2023-001"))
	assert.ErrorIs(t, errEmptyKey, returntoken.ErrEmptyKey)
}
