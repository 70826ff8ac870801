// Package mailconfig turns raw settings into a validated, immutable MailConfig.
//
// Resolution happens once at startup; any failure is a configuration error
// and the process is expected to exit.
package mailconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/djazairmed/mailer/internal/mailer/entity"
	"github.com/djazairmed/mailer/internal/pkg/config"
	"github.com/djazairmed/mailer/internal/pkg/validator"
	"github.com/samber/lo"
)

const (
	// GmailHost is used when only the gmail shortcut credentials are set.
	GmailHost = "smtp.gmail.com"

	defaultTimeout = 10 * time.Second
)

var (
	ErrUsernameWithoutPassword = errors.New("relay username is set without a password")
	ErrPasswordWithoutUsername = errors.New("relay password is set without a username")
	ErrSenderMissing           = errors.New("sender address is required: set mail.from_address or a relay username")
	ErrSenderInvalid           = errors.New("sender address is not a valid email")
	ErrInvalidProvider         = errors.New("mail.default_provider must be relay or exchange")
	ErrInvalidURLScheme        = errors.New("smtp.url scheme must be smtp or smtps")
	ErrInvalidExchangeAuth     = errors.New("exchange.auth must be ntlm or basic")
	ErrInvalidPort             = errors.New("smtp.port must be between 1 and 65535")
)

// Auth is a relay username/password pair.
type Auth struct {
	User string
	Pass string
}

// Transport describes how to reach the relay. It is either a *URLTransport or
// a *HostTransport.
type Transport interface {
	isTransport()
}

// URLTransport is a full smtp:// or smtps:// connection URL.
type URLTransport struct {
	ConnectionURL string
	// RequireTLS is nil when not configured.
	RequireTLS *bool
	Auth       *Auth
}

// HostTransport is a relay described by its parts.
type HostTransport struct {
	Host       string
	Port       int
	Secure     bool
	RequireTLS bool
	Auth       *Auth
}

func (*URLTransport) isTransport()  {}
func (*HostTransport) isTransport() {}

// ExchangeConfig holds EWS settings. It is only built when every field is set.
type ExchangeConfig struct {
	URL        string
	Username   string
	Password   string
	FromEmail  string
	AuthScheme string
}

// Timeouts apply to relay connections.
type Timeouts struct {
	Connection time.Duration
	Greeting   time.Duration
}

// MailConfig is the resolved mail configuration.
type MailConfig struct {
	APIKey          string
	Sender          entity.Sender
	Transport       Transport
	Exchange        *ExchangeConfig
	DefaultProvider entity.Provider
	Timeouts        Timeouts
}

// Resolve reads mail settings from cfg. Every error is an *entity.MailError of
// kind configuration.
func Resolve(cfg config.Config, v validator.Validator) (*MailConfig, error) {
	fail := func(err error) (*MailConfig, error) {
		return nil, entity.NewMailError(entity.KindConfiguration, entity.ProviderNone, "resolve config", err)
	}

	auth, shortcut, err := resolveAuth(cfg)
	if err != nil {
		return fail(err)
	}

	transport, err := resolveTransport(cfg, auth, shortcut)
	if err != nil {
		return fail(err)
	}

	relayUser := ""
	if auth != nil {
		relayUser = auth.User
	}

	address := lo.CoalesceOrEmpty(cfg.GetString("mail.from_address"), relayUser)
	if address == "" {
		return fail(ErrSenderMissing)
	}
	if err := v.ValidateVar(address, "email"); err != nil {
		return fail(fmt.Errorf("%w: %q", ErrSenderInvalid, address))
	}

	exchange, err := resolveExchange(cfg)
	if err != nil {
		return fail(err)
	}

	explicit, ok := entity.ProviderFromString(cfg.GetString("mail.default_provider"))
	if !ok {
		return fail(ErrInvalidProvider)
	}

	return &MailConfig{
		APIKey:          cfg.GetString("api.key"),
		Sender:          entity.Sender{Name: cfg.GetString("mail.from_name"), Address: address},
		Transport:       transport,
		Exchange:        exchange,
		DefaultProvider: DeriveDefaultProvider(explicit, exchange != nil),
		Timeouts: Timeouts{
			Connection: durationOr(cfg.GetMillisecond("smtp.connection_timeout_ms"), defaultTimeout),
			Greeting:   durationOr(cfg.GetMillisecond("smtp.greeting_timeout_ms"), defaultTimeout),
		},
	}, nil
}

// DeriveDefaultProvider picks the default provider: an explicit choice wins,
// otherwise exchange when it is configured, else relay.
func DeriveDefaultProvider(explicit entity.Provider, exchangePresent bool) entity.Provider {
	switch {
	case explicit.IsSet():
		return explicit
	case exchangePresent:
		return entity.ProviderExchange
	default:
		return entity.ProviderRelay
	}
}

// resolveAuth returns the relay credentials and whether they came from the
// gmail shortcut pair.
func resolveAuth(cfg config.Config) (*Auth, bool, error) {
	user, pass := cfg.GetString("smtp.user"), cfg.GetString("smtp.pass")
	shortcut := false
	if user == "" && pass == "" {
		user, pass = cfg.GetString("gmail.user"), cfg.GetString("gmail.app_password")
		shortcut = true
	}

	switch {
	case user == "" && pass == "":
		return nil, false, nil
	case pass == "":
		return nil, false, ErrUsernameWithoutPassword
	case user == "":
		return nil, false, ErrPasswordWithoutUsername
	}

	return &Auth{User: user, Pass: pass}, shortcut, nil
}

func resolveTransport(cfg config.Config, auth *Auth, shortcut bool) (Transport, error) {
	if raw := cfg.GetString("smtp.url"); raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("smtp.url: %w", err)
		}
		if s := strings.ToLower(u.Scheme); s != "smtp" && s != "smtps" {
			return nil, ErrInvalidURLScheme
		}

		t := &URLTransport{ConnectionURL: raw, Auth: auth}
		if cfg.IsSet("smtp.require_tls") {
			t.RequireTLS = lo.ToPtr(cfg.GetBool("smtp.require_tls"))
		}
		return t, nil
	}

	host := cfg.GetString("smtp.host")
	if host == "" && shortcut {
		host = GmailHost
	}

	secureSet := cfg.IsSet("smtp.secure")
	explicitSecure := secureSet && cfg.GetBool("smtp.secure")

	port := cfg.GetInt("smtp.port")
	if port == 0 {
		port = 587
		if explicitSecure {
			port = 465
		}
	}
	if port < 0 || port > 65535 {
		return nil, ErrInvalidPort
	}

	secure := port == 465
	if secureSet {
		secure = explicitSecure
	}

	requireTLS := !secure
	if cfg.IsSet("smtp.require_tls") {
		requireTLS = cfg.GetBool("smtp.require_tls")
	}

	return &HostTransport{
		Host:       host,
		Port:       port,
		Secure:     secure,
		RequireTLS: requireTLS,
		Auth:       auth,
	}, nil
}

func resolveExchange(cfg config.Config) (*ExchangeConfig, error) {
	ex := ExchangeConfig{
		URL:        cfg.GetString("exchange.url"),
		Username:   cfg.GetString("exchange.username"),
		Password:   cfg.GetString("exchange.password"),
		FromEmail:  cfg.GetString("exchange.from_email"),
		AuthScheme: strings.ToLower(cfg.GetString("exchange.auth")),
	}

	fields := []string{ex.URL, ex.Username, ex.Password, ex.FromEmail}
	set := lo.CountBy(fields, func(s string) bool { return s != "" })
	if set < len(fields) {
		if set > 0 {
			slog.WarnContext(context.Background(), "exchange settings are incomplete, exchange provider disabled",
				"url_set", ex.URL != "",
				"username_set", ex.Username != "",
				"password_set", ex.Password != "",
				"from_email_set", ex.FromEmail != "",
			)
		}
		return nil, nil //nolint:nilnil // absent exchange is a valid outcome
	}

	switch ex.AuthScheme {
	case "":
		ex.AuthScheme = "ntlm"
	case "ntlm", "basic":
	default:
		return nil, ErrInvalidExchangeAuth
	}

	return &ex, nil
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
