package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/djazairmed/mailer/internal/pkg/clock"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

const (
	defaultSMTPTimeout = 10 * time.Second
	defaultLocalName   = "localhost"
)

var (
	// ErrSMTPHostPortRequired is returned when Host/Port are missing.
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	// ErrSMTPNoRecipients is returned when To is empty.
	ErrSMTPNoRecipients = errors.New("no recipients provided")
	// ErrSMTPNoSender is returned when Message.From is empty or unparsable.
	ErrSMTPNoSender = errors.New("no sender provided")
	// ErrSMTPTLSRequired is returned when RequireTLS is set and the server does not offer STARTTLS.
	ErrSMTPTLSRequired = errors.New("smtp server does not support STARTTLS but TLS is required")
	// ErrSMTPAuthUnsupported is returned when credentials are configured but the server offers no usable AUTH mechanism.
	ErrSMTPAuthUnsupported = errors.New("smtp server does not support a usable AUTH mechanism")
	// ErrSMTPURLScheme is returned by ParseSMTPURL for schemes other than smtp and smtps.
	ErrSMTPURLScheme = errors.New("smtp url scheme must be smtp or smtps")
)

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// Secure opens the connection with implicit TLS (usually port 465).
	Secure bool
	// RequireTLS fails the session when a plain connection cannot be upgraded with STARTTLS.
	RequireTLS bool
	// Username is the SMTP authentication username.
	Username string
	// Password is the SMTP authentication password.
	Password string
	// ConnectionTimeout bounds the TCP dial and TLS handshake.
	ConnectionTimeout time.Duration
	// GreetingTimeout bounds the wait for the server banner and EHLO reply.
	GreetingTimeout time.Duration
	// LocalName is the EHLO identity; defaults to "localhost".
	LocalName string
	// TLSConfig overrides the TLS settings; ServerName defaults to Host.
	TLSConfig *tls.Config
	// Clock stamps the Date header; defaults to the system clock.
	Clock clock.Clocker
}

// ParseSMTPURL turns "smtp[s]://user:pass@host:port" into an SMTPConfig.
//
// smtps implies implicit TLS and port 465; smtp defaults to port 587. The
// requireTLS query parameter ("true"/"false") sets RequireTLS.
func ParseSMTPURL(raw string) (SMTPConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return SMTPConfig{}, fmt.Errorf("parse smtp url: %w", err)
	}

	var cfg SMTPConfig
	switch strings.ToLower(u.Scheme) {
	case "smtps":
		cfg.Secure, cfg.Port = true, 465
	case "smtp":
		cfg.Port = 587
	default:
		return SMTPConfig{}, ErrSMTPURLScheme
	}

	cfg.Host = u.Hostname()
	if cfg.Host == "" {
		return SMTPConfig{}, ErrSMTPHostPortRequired
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return SMTPConfig{}, fmt.Errorf("parse smtp url: invalid port %q", p)
		}
		cfg.Port = port
	}

	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	if v := u.Query().Get("requireTLS"); v != "" {
		cfg.RequireTLS, _ = strconv.ParseBool(v)
	}

	return cfg, nil
}

var _ Mail = (*SMTP)(nil)

// SMTP is a Mail implementation backed by github.com/emersion/go-smtp.
//
// It holds immutable connection settings and opens one session per call, so a
// single value is safe for concurrent use.
type SMTP struct {
	cfg  SMTPConfig
	addr string
}

// NewSMTP constructs an SMTP mail sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if strings.TrimSpace(cfg.Host) == "" || cfg.Port <= 0 {
		return nil, ErrSMTPHostPortRequired
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = defaultSMTPTimeout
	}
	if cfg.GreetingTimeout <= 0 {
		cfg.GreetingTimeout = defaultSMTPTimeout
	}
	if cfg.LocalName == "" {
		cfg.LocalName = defaultLocalName
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return &SMTP{
		cfg:  cfg,
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}, nil
}

// Addr returns the host:port this sender dials.
func (s *SMTP) Addr() string {
	return s.addr
}

// Verify opens an authenticated session and quits.
func (s *SMTP) Verify(ctx context.Context) error {
	c, stop, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer stop()
	defer c.Close()

	return c.Quit()
}

// Send delivers a message over SMTP.
//
// Recipients rejected by the server are reported in the receipt; the call only
// fails when no recipient is accepted or the DATA phase fails.
func (s *SMTP) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if len(msg.To) == 0 {
		return nil, ErrSMTPNoRecipients
	}

	from, err := envelopeAddress(msg.From)
	if err != nil {
		return nil, ErrSMTPNoSender
	}

	recipients := make([]string, 0, len(msg.To))
	for _, to := range msg.To {
		addr, err := envelopeAddress(to)
		if err != nil {
			return nil, fmt.Errorf("smtp: invalid recipient %q: %w", to, err)
		}
		recipients = append(recipients, addr)
	}

	messageID := newMessageID(from)
	raw, err := buildMessage(msg, messageID, s.cfg.Clock.Now())
	if err != nil {
		return nil, err
	}

	c, stop, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()
	defer c.Close()

	if err := c.Mail(from, nil); err != nil {
		return nil, fmt.Errorf("smtp: mail from: %w", err)
	}

	receipt := &Receipt{
		MessageID: messageID,
		Envelope:  Envelope{From: from, To: recipients},
	}

	var rcptErr error
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			receipt.Rejected = append(receipt.Rejected, rcpt)
			rcptErr = err
			continue
		}
		receipt.Accepted = append(receipt.Accepted, rcpt)
	}
	if len(receipt.Accepted) == 0 {
		return nil, fmt.Errorf("smtp: all recipients rejected: %w", rcptErr)
	}

	w, err := c.Data()
	if err != nil {
		return nil, fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("smtp: data write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("smtp: data close: %w", err)
	}

	// The message is already queued by the server; a failed QUIT does not undo that.
	_ = c.Quit()

	return receipt, nil
}

// Close implements io.Closer for interface compatibility.
func (s *SMTP) Close() error {
	return nil
}

// open dials, greets, negotiates TLS and authenticates. The returned stop
// function releases the context watcher and must be called once done.
//
// With RequireTLS the session starts with STARTTLS straight away. Otherwise a
// plain session is opened and, when the server advertises STARTTLS, replaced
// by a fresh upgraded one.
func (s *SMTP) open(ctx context.Context) (*smtp.Client, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	c, stop, err := s.connect(ctx, !s.cfg.Secure && s.cfg.RequireTLS)
	if err != nil {
		return nil, nil, err
	}

	if !s.cfg.Secure && !s.cfg.RequireTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			_ = c.Quit()
			_ = c.Close()
			stop()

			c, stop, err = s.connect(ctx, true)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	if err := s.authenticate(c); err != nil {
		_ = c.Close()
		stop()
		return nil, nil, err
	}

	return c, stop, nil
}

// connect dials the server and completes the greeting, upgrading with
// STARTTLS first when startTLS is set.
func (s *SMTP) connect(ctx context.Context, startTLS bool) (*smtp.Client, func(), error) {
	dialer := &net.Dialer{Timeout: s.cfg.ConnectionTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return nil, nil, fmt.Errorf("smtp: dial %s: %w", s.addr, err)
	}

	if s.cfg.Secure {
		tlsConn := tls.Client(conn, s.tlsConfig())
		hsCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectionTimeout)
		err := tlsConn.HandshakeContext(hsCtx)
		cancel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("smtp: tls handshake: %w", err)
		}
		conn = tlsConn
	}

	greetCtx, cancel := context.WithTimeout(ctx, s.cfg.GreetingTimeout)
	stopGreet := closeOnDone(greetCtx, conn)
	c, err := s.greet(conn, startTLS)
	stopGreet()
	cancel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return c, closeOnDone(ctx, conn), nil
}

func (s *SMTP) greet(conn net.Conn, startTLS bool) (*smtp.Client, error) {
	if !startTLS {
		c := smtp.NewClient(conn)
		if err := c.Hello(s.cfg.LocalName); err != nil {
			return nil, fmt.Errorf("smtp: greeting: %w", err)
		}
		return c, nil
	}

	c, err := smtp.NewClientStartTLS(conn, s.tlsConfig())
	if err != nil {
		if isStartTLSUnsupported(err) {
			return nil, ErrSMTPTLSRequired
		}
		return nil, fmt.Errorf("smtp: starttls: %w", err)
	}

	// The upgrade drops the pre-TLS EHLO state, so the identity is sent again
	// over the encrypted channel.
	if err := c.Hello(s.cfg.LocalName); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("smtp: starttls greeting: %w", err)
	}

	return c, nil
}

// isStartTLSUnsupported matches the unexported error go-smtp returns when the
// server does not advertise STARTTLS.
func isStartTLSUnsupported(err error) bool {
	return strings.Contains(err.Error(), "doesn't support STARTTLS")
}

// closeOnDone closes conn when ctx ends before the returned stop is called.
func closeOnDone(ctx context.Context, conn net.Conn) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	return func() { close(done) }
}

func (s *SMTP) authenticate(c *smtp.Client) error {
	if s.cfg.Username == "" {
		return nil
	}

	ok, params := c.Extension("AUTH")
	if !ok {
		return ErrSMTPAuthUnsupported
	}

	var auth sasl.Client
	mechs := strings.Fields(strings.ToUpper(params))
	switch {
	case slices.Contains(mechs, sasl.Plain):
		auth = sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	case slices.Contains(mechs, sasl.Login):
		auth = sasl.NewLoginClient(s.cfg.Username, s.cfg.Password)
	default:
		return ErrSMTPAuthUnsupported
	}

	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("smtp: auth: %w", err)
	}

	return nil
}

func (s *SMTP) tlsConfig() *tls.Config {
	if s.cfg.TLSConfig != nil {
		cfg := s.cfg.TLSConfig.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = s.cfg.Host
		}
		return cfg
	}

	return &tls.Config{
		ServerName: s.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
}
