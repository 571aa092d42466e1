package email

import (
	"errors"
	"fmt"
	"time"
)

const defaultSendTimeout = 30 * time.Second

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	// UseTLS на 465 порту - неявный TLS, на остальных STARTTLS
	UseTLS bool
	// Timeout - предел на одно письмо, 0 значит defaultSendTimeout
	Timeout time.Duration
}

// Validate возвращает все ошибки конфига сразу
func (c *SMTPConfig) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("smtp host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid smtp port: %d", c.Port))
	}
	if c.FromEmail == "" {
		errs = append(errs, errors.New("from email is required"))
	}
	return errors.Join(errs...)
}

func (c *SMTPConfig) sendTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultSendTimeout
}
