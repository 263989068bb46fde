package mail_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bike-loan-engine-go/shell/mail"
	. "github.com/AntonStoeckl/bike-loan-engine-go/testutil/spies" //nolint:revive
)

func givenMessage() mail.Message {
	return mail.Message{
		To:      "budi@example.org",
		Subject: "Pemberitahuan Keterlambatan Pengembalian Sepeda",
		HTML:    "<p>late</p>",
		Text:    "late",
	}
}

func Test_ResendSender_Send_Success(t *testing.T) {
	// arrange
	var gotBody, gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody, gotAuth, gotPath = string(body), r.Header.Get("Authorization"), r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer server.Close()

	sender, err := mail.NewResendSender("re_test", "Bike Center <noreply@example.org>", mail.WithBaseURL(server.URL+"/"))
	require.NoError(t, err)

	// act
	err = sender.Send(context.Background(), givenMessage())

	// assert
	require.NoError(t, err)
	assert.Equal(t, "/emails", gotPath)
	assert.Equal(t, "Bearer re_test", gotAuth)
	assert.True(t, strings.Contains(gotBody, "budi@example.org"))
	assert.True(t, strings.Contains(gotBody, "Pemberitahuan Keterlambatan"))
}

func Test_ResendSender_Send_ProviderError(t *testing.T) {
	// arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"invalid to"}`))
	}))
	defer server.Close()

	sender, err := mail.NewResendSender("re_test", "noreply@example.org", mail.WithBaseURL(server.URL+"/"))
	require.NoError(t, err)

	// act
	err = sender.Send(context.Background(), givenMessage())

	// assert
	assert.ErrorIs(t, err, mail.ErrProviderRejected)
}

func Test_ResendSender_Send_InvalidMessage(t *testing.T) {
	sender, err := mail.NewResendSender("re_test", "noreply@example.org")
	require.NoError(t, err)

	err = sender.Send(context.Background(), mail.Message{Subject: "no recipient"})

	assert.ErrorIs(t, err, mail.ErrInvalidMessage)
}

func Test_NewResendSender_Validation(t *testing.T) {
	_, err := mail.NewResendSender("", "noreply@example.org")
	assert.ErrorIs(t, err, mail.ErrEmptyAPIKey)

	_, err = mail.NewResendSender("re_test", "")
	assert.ErrorIs(t, err, mail.ErrEmptySender)

	_, err = mail.NewResendSender("re_test", "noreply@example.org", mail.WithBaseURL("::not a url"))
	assert.ErrorIs(t, err, mail.ErrInvalidProviderURL)
}

func Test_LogSender_Send(t *testing.T) {
	// arrange
	logHandler := NewLogHandlerSpy(false)
	sender := mail.NewLogSender(slog.New(logHandler))

	// act
	err := sender.Send(context.Background(), givenMessage())

	// assert
	require.NoError(t, err)
	assert.True(t, logHandler.HasLog(slog.LevelInfo, "mail not sent"))
}

func Test_LogSender_Send_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mail.NewLogSender(nil).Send(ctx, givenMessage())

	assert.ErrorIs(t, err, context.Canceled)
}
