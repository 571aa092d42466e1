package email

import (
	"context"
	"fmt"
	"sync"

	"orgmarket_backend/internal/logger"
)

// Provider - транспорт писем
type Provider interface {
	Send(ctx context.Context, email *Email) error
	Close() error
}

const TemplateConfirmationCode = "confirmation_code"

// Mailer - письма приложения поверх Provider и шаблонов
type Mailer struct {
	provider Provider
	renderer *TemplateManager
}

func NewMailer(provider Provider, renderer *TemplateManager) *Mailer {
	return &Mailer{provider: provider, renderer: renderer}
}

func (m *Mailer) Close() error {
	return m.provider.Close()
}

func (m *Mailer) SendConfirmationCode(ctx context.Context, to, name, code string) error {
	body, err := m.renderer.Render(TemplateConfirmationCode, TemplateData{
		"Name": name,
		"Code": code,
	})
	if err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}

	return m.provider.Send(ctx, &Email{
		To:       []string{to},
		Subject:  "Код подтверждения",
		Body:     "Ваш код подтверждения: " + code,
		HTMLBody: body,
	})
}

// LogProvider пишет письма в лог вместо отправки (email.enabled=false)
type LogProvider struct {
	mu   sync.Mutex
	sent []Email
}

func NewLogProvider() *LogProvider {
	return &LogProvider{}
}

func (p *LogProvider) Send(ctx context.Context, email *Email) error {
	p.mu.Lock()
	p.sent = append(p.sent, *email)
	p.mu.Unlock()

	logger.CtxInfo(ctx, "Email не отправлен, провайдер отключен", "to", email.To, "subject", email.Subject)
	return nil
}

// Sent возвращает копию отправленных писем
func (p *LogProvider) Sent() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Email, len(p.sent))
	copy(out, p.sent)
	return out
}

func (p *LogProvider) Close() error {
	return nil
}
