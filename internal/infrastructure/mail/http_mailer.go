// Package mail delivers notification mails.
package mail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rsjrcat/invoice-server-main-hd/internal/application/notification"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ notification.Mailer = (*HTTPMailer)(nil)

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"` // base64
}

type sendRequest struct {
	From        address      `json:"from"`
	To          []address    `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type sendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// HTTPMailer posts mails as JSON to a transactional mail API
type HTTPMailer struct {
	client *resty.Client
	from   address
	logger *zap.Logger
}

// NewHTTPMailer creates a mailer for cfg.BaseURL. Server errors and
// transport failures are retried cfg.RetryCount times.
func NewHTTPMailer(cfg config.MailConfig, logger *zap.Logger) (*HTTPMailer, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("mail base url is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mail sender address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &HTTPMailer{
		client: client,
		from:   parseSender(cfg.From),
		logger: logger,
	}, nil
}

// parseSender accepts "Name <addr>" or a bare address
func parseSender(from string) address {
	if i := strings.LastIndex(from, "<"); i >= 0 && strings.HasSuffix(from, ">") {
		return address{
			Email: strings.TrimSpace(from[i+1 : len(from)-1]),
			Name:  strings.TrimSpace(from[:i]),
		}
	}
	return address{Email: strings.TrimSpace(from)}
}

// Send delivers msg
func (m *HTTPMailer) Send(ctx context.Context, msg notification.Message) error {
	if msg.To == "" {
		return errors.New("mail recipient is required")
	}

	req := sendRequest{
		From:    m.from,
		To:      []address{{Email: msg.To, Name: msg.ToName}},
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, attachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	var result sendResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post("/messages")
	if err != nil {
		m.logger.Error("mail API call failed", zap.Error(err))
		return fmt.Errorf("failed to call mail API: %w", err)
	}
	if resp.IsError() {
		m.logger.Error("mail API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("message", result.Message),
		)
		return fmt.Errorf("mail API error: %s (status: %d)", result.Message, resp.StatusCode())
	}

	m.logger.Info("mail sent",
		zap.String("message_id", result.ID),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
