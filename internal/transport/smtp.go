// Package transport submits composed messages over SMTP.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Config holds the SMTP submission settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	// TLS selects implicit TLS. Otherwise StartTLS upgrades a plain connection.
	TLS      bool
	StartTLS bool
}

// ErrAuthUnsupported is returned when credentials are configured but the
// server does not offer AUTH.
var ErrAuthUnsupported = errors.New("server does not support AUTH")

// NewSMTP creates an SMTP sender.
func NewSMTP(cfg Config) *SMTP {
	return &SMTP{cfg: cfg}
}

// SMTP sends messages, opening one connection per call.
type SMTP struct {
	cfg Config
}

// Send submits raw to the given envelope recipients.
func (s *SMTP) Send(ctx context.Context, from string, to []string, raw []byte) error {
	if len(to) == 0 {
		return errors.New("no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := s.dial()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
			log.Println(fmt.Errorf("smtp client.Close failed: %w", closeErr))
		}
	}()

	if s.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return ErrAuthUnsupported
		}
		if err := c.Auth(sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)); err != nil {
			return fmt.Errorf("SMTP auth as %s failed: %w", s.cfg.Username, err)
		}
	}

	if err := c.SendMail(from, to, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("client.SendMail failed: %w", err)
	}

	return c.Quit()
}

func (s *SMTP) dial() (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	tlsConfig := &tls.Config{ServerName: s.cfg.Host}

	var (
		c   *smtp.Client
		err error
	)
	switch {
	case s.cfg.TLS:
		c, err = smtp.DialTLS(addr, tlsConfig)
	case s.cfg.StartTLS:
		c, err = smtp.DialStartTLS(addr, tlsConfig)
	default:
		c, err = smtp.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to SMTP %s: %w", addr, err)
	}

	return c, nil
}
