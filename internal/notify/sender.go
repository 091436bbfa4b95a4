package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/d60-Lab/order-system/config"
)

// SMSSender 顾客短信发送口
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// EmailSender 管理员邮件发送口
type EmailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// ProviderError 外部网关失败；由队列重试吸收，不回传给触发请求
type ProviderError struct {
	Provider string
	Detail   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Detail)
}

// SMSClient 短信网关客户端（Africa's Talking 风格的表单接口），带限流
type SMSClient struct {
	httpClient *http.Client
	apiURL     string
	username   string
	apiKey     string
	senderID   string
	limiter    *rate.Limiter
}

func NewSMSClient(cfg config.NotifyConfig) *SMSClient {
	perSec := cfg.SMSRate
	if perSec <= 0 {
		perSec = 5
	}
	return &SMSClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     cfg.SMSAPIURL,
		username:   cfg.SMSUsername,
		apiKey:     cfg.SMSAPIKey,
		senderID:   cfg.SMSSenderID,
		limiter:    rate.NewLimiter(rate.Limit(perSec), 1),
	}
}

func (c *SMSClient) Send(ctx context.Context, phone, message string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("username", c.username)
	form.Set("to", phone)
	form.Set("message", message)
	if c.senderID != "" {
		form.Set("from", c.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("apiKey", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ProviderError{Provider: "sms", Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ProviderError{Provider: "sms", Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, body)}
	}
	return nil
}

// SMTPMailer 管理员邮件客户端
type SMTPMailer struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTPMailer(cfg config.NotifyConfig) *SMTPMailer {
	return &SMTPMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
	}
}

func (m *SMTPMailer) Send(_ context.Context, to []string, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.from, strings.Join(to, ", "), subject, body)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, to, []byte(msg)); err != nil {
		return &ProviderError{Provider: "smtp", Detail: err.Error()}
	}
	return nil
}
