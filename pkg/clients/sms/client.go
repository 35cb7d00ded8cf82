// Package sms delivers one-time recovery codes. The gateway client talks to
// an HTTP SMS provider; LogSender is the offline side channel used when no
// provider is configured.
package sms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ruralmed/clinicstock/internal/config"
)

// GatewayClient is a resty-backed sender for an HTTP SMS gateway.
type GatewayClient struct {
	httpClient *resty.Client
	senderID   string
}

// NewGatewayClient builds an SMS gateway client from configuration.
func NewGatewayClient(cfg config.SMSConfig) *GatewayClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	restyClient := resty.New().
		SetBaseURL(base).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &GatewayClient{
		httpClient: restyClient,
		senderID:   cfg.SenderID,
	}
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// SendCode posts the recovery code to the gateway's message endpoint.
func (c *GatewayClient) SendCode(ctx context.Context, contact, code string) error {
	req := sendRequest{
		From: c.senderID,
		To:   contact,
		Body: fmt.Sprintf("Your RuralMed recovery code is %s. It expires in 5 minutes.", code),
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("sms gateway call: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway error: %s", resp.Status())
	}
	return nil
}

// LogSender surfaces codes through the log instead of a real delivery
// channel. Demo installs run with this.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds the logging side channel.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// SendCode logs the code instead of sending it.
func (s *LogSender) SendCode(_ context.Context, contact, code string) error {
	s.logger.Info("recovery code (no sms gateway configured)",
		zap.String("contact", contact),
		zap.String("code", code))
	return nil
}
