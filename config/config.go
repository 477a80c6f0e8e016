package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const defaultPath = "."

const (
	defaultBcryptCost        = 12
	defaultSessionTTL        = 24 * time.Hour
	defaultRememberMeTTL     = 7 * 24 * time.Hour
	defaultWSAuthGrace       = 30 * time.Second
	defaultAuthRateLimit     = 3
	defaultAuthRateWindow    = time.Minute
	defaultVerifyRateLimit   = 5
	defaultVerifyRateWindow  = time.Minute
	defaultEmailRateLimit    = 2
	defaultEmailRateWindow   = 5 * time.Minute
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port     int `json:"port" yaml:"port"`
		Timeouts struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// SecretKey holds the four independent signing secrets. They are four
	// distinct key slots on purpose: leakage or rotation of one token family
	// must not compromise the others.
	SecretKey struct {
		Access            string `json:"access" yaml:"access"`
		Refresh           string `json:"refresh" yaml:"refresh"`
		EmailVerification string `json:"emailVerification" yaml:"emailVerification"`
		PasswordReset     string `json:"passwordReset" yaml:"passwordReset"`
	} `json:"secretKey" yaml:"secretKey"`

	SMTP *SMTPConfig `json:"smtp" yaml:"smtp"`

	Frontend struct {
		URL string `json:"url" yaml:"url"`
	} `json:"frontend" yaml:"frontend"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
}

// SMTPConfig defines the outbound email transport.
type SMTPConfig struct {
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password" yaml:"password"`
	FromEmail string `json:"fromEmail" yaml:"fromEmail"`
	FromName  string `json:"fromName" yaml:"fromName"`
}

// AuthConfig defines authentication-related configuration.
type AuthConfig struct {
	BcryptCost int `json:"bcryptCost" yaml:"bcryptCost"`

	// SessionTTL is the absolute session lifetime for a normal login;
	// RememberMeSessionTTL applies when the client sets the rememberMe flag.
	SessionTTL           time.Duration `json:"sessionTTL" yaml:"sessionTTL"`
	RememberMeSessionTTL time.Duration `json:"rememberMeSessionTTL" yaml:"rememberMeSessionTTL"`

	// WSAuthGrace is how long an unauthenticated socket connection may stay
	// open before it is forcibly closed.
	WSAuthGrace time.Duration `json:"wsAuthGrace" yaml:"wsAuthGrace"`
}

// RateLimitConfig defines per-route-group fixed-window limits.
type RateLimitConfig struct {
	Auth         RateWindow `json:"auth" yaml:"auth"`
	Verification RateWindow `json:"verification" yaml:"verification"`
	Email        RateWindow `json:"email" yaml:"email"`
}

// RateWindow is a fixed window of Max requests per Window.
type RateWindow struct {
	Max    int           `json:"max" yaml:"max"`
	Window time.Duration `json:"window" yaml:"window"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf, overlaying environment variables.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to a path and align each segment with
			// existing YAML keys. Example: SECRETKEY_EMAILVERIFICATION ->
			// secretKey.emailVerification (not secretkey.emailverification).
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.validateSecrets(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = defaultBcryptCost
	}
	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = defaultSessionTTL
	}
	if cfg.Auth.RememberMeSessionTTL == 0 {
		cfg.Auth.RememberMeSessionTTL = defaultRememberMeTTL
	}
	if cfg.Auth.WSAuthGrace == 0 {
		cfg.Auth.WSAuthGrace = defaultWSAuthGrace
	}

	if cfg.RateLimit == nil {
		cfg.RateLimit = &RateLimitConfig{}
	}
	if cfg.RateLimit.Auth.Max == 0 {
		cfg.RateLimit.Auth = RateWindow{Max: defaultAuthRateLimit, Window: defaultAuthRateWindow}
	}
	if cfg.RateLimit.Verification.Max == 0 {
		cfg.RateLimit.Verification = RateWindow{Max: defaultVerifyRateLimit, Window: defaultVerifyRateWindow}
	}
	if cfg.RateLimit.Email.Max == 0 {
		cfg.RateLimit.Email = RateWindow{Max: defaultEmailRateLimit, Window: defaultEmailRateWindow}
	}
}

// validateSecrets refuses to start without all four signing secrets.
func (cfg *Config) validateSecrets() error {
	missing := make([]string, 0, 4)
	if cfg.SecretKey.Access == "" {
		missing = append(missing, "secretKey.access")
	}
	if cfg.SecretKey.Refresh == "" {
		missing = append(missing, "secretKey.refresh")
	}
	if cfg.SecretKey.EmailVerification == "" {
		missing = append(missing, "secretKey.emailVerification")
	}
	if cfg.SecretKey.PasswordReset == "" {
		missing = append(missing, "secretKey.passwordReset")
	}

	if len(missing) > 0 {
		return errors.Errorf("missing required signing secrets: %s", strings.Join(missing, ", "))
	}

	return nil
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
