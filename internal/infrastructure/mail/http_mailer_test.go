package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testMessage() notification.Message {
	return notification.Message{
		To:      "billing@acme.test",
		ToName:  "Acme Traders",
		Subject: "Invoice #42",
		HTML:    "<p>Dear Acme Traders</p>",
		Attachments: []notification.Attachment{{
			Filename:    "invoice-42.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.7"),
		}},
	}
}

func newTestMailer(t *testing.T, url string, retries int) *HTTPMailer {
	t.Helper()
	m, err := NewHTTPMailer(config.MailConfig{
		BaseURL:    url + "/",
		APIKey:     "mail-key",
		From:       "Northwind Billing <billing@northwind.test>",
		RetryCount: retries,
	}, zap.NewNop())
	require.NoError(t, err)
	m.client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	return m
}

func TestHTTPMailer_Send(t *testing.T) {
	var got sendRequest
	var authHeader, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestMailer(t, srv.URL, 0).Send(context.Background(), testMessage()))

	assert.Equal(t, "/messages", path)
	assert.Equal(t, "Bearer mail-key", authHeader)
	assert.Equal(t, address{Email: "billing@northwind.test", Name: "Northwind Billing"}, got.From)
	assert.Equal(t, []address{{Email: "billing@acme.test", Name: "Acme Traders"}}, got.To)
	assert.Equal(t, "Invoice #42", got.Subject)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "invoice-42.pdf", got.Attachments[0].Filename)
	decoded, err := base64.StdEncoding.DecodeString(got.Attachments[0].Content)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(decoded))
}

func TestHTTPMailer_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	require.NoError(t, newTestMailer(t, srv.URL, 2).Send(context.Background(), testMessage()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPMailer_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"recipient rejected"}`))
	}))
	defer srv.Close()

	err := newTestMailer(t, srv.URL, 3).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient rejected")
	assert.Contains(t, err.Error(), "422")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPMailer_MissingRecipient(t *testing.T) {
	m := newTestMailer(t, "http://127.0.0.1:1", 0)
	msg := testMessage()
	msg.To = ""
	assert.Error(t, m.Send(context.Background(), msg))
}

func TestNewHTTPMailer_Validation(t *testing.T) {
	_, err := NewHTTPMailer(config.MailConfig{From: "a@b.test"}, nil)
	assert.Error(t, err)

	_, err = NewHTTPMailer(config.MailConfig{BaseURL: "https://mail.test"}, nil)
	assert.Error(t, err)
}

func TestParseSender(t *testing.T) {
	assert.Equal(t, address{Email: "a@b.test"}, parseSender(" a@b.test "))
	assert.Equal(t, address{Email: "a@b.test", Name: "Billing Team"}, parseSender("Billing Team <a@b.test>"))
}

func TestLogMailer_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	require.NoError(t, m.Send(context.Background(), testMessage()))

	entries := logs.FilterMessage("mail (not sent)").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "billing@acme.test", fields["to"])
	assert.Equal(t, []interface{}{"invoice-42.pdf"}, fields["attachments"])
}

func TestNew(t *testing.T) {
	m, err := New(config.MailConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogMailer{}, m)

	m, err = New(config.MailConfig{Provider: "HTTP", BaseURL: "https://mail.test", From: "a@b.test"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &HTTPMailer{}, m)

	_, err = New(config.MailConfig{Provider: "smtp"}, nil)
	assert.Error(t, err)
}
