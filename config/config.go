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
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100K"
	defaultPort               = 8080
	defaultCSPPolicyPath      = "config/csp.json"
	defaultContactTemplate    = "contact"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Mailer options, resolved by the mailer itself
	Mailer *MailerConfig `json:"mailer" yaml:"mailer"`

	// Password hashing options, resolved by the hasher itself
	Password *PasswordConfig `json:"password" yaml:"password"`

	Security SecurityConfig `json:"security" yaml:"security"`

	// Contact form delivery
	Contact *ContactConfig `json:"contact" yaml:"contact"`
}

// MailerConfig mirrors the mailer options. Zero values are left out of
// Options so the mailer defaults apply.
type MailerConfig struct {
	DSN      string        `json:"dsn" yaml:"dsn"`
	From     string        `json:"from" yaml:"from"`
	FromName string        `json:"fromName" yaml:"fromName"`
	ReplyTo  string        `json:"replyTo" yaml:"replyTo"`
	Root     string        `json:"root" yaml:"root"`
	Path     string        `json:"path" yaml:"path"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// Options returns the option map handed to the mailer.
func (m *MailerConfig) Options() map[string]any {
	opts := map[string]any{}
	if m == nil {
		return opts
	}
	setString(opts, "dsn", m.DSN)
	setString(opts, "from", m.From)
	setString(opts, "from_name", m.FromName)
	setString(opts, "reply_to", m.ReplyTo)
	setString(opts, "root", m.Root)
	setString(opts, "path", m.Path)
	if m.Timeout > 0 {
		opts["timeout"] = m.Timeout
	}

	return opts
}

// PasswordConfig mirrors the password hashing options.
type PasswordConfig struct {
	Algo       string `json:"algo" yaml:"algo"`
	Cost       int    `json:"cost" yaml:"cost"`
	MemoryCost int    `json:"memoryCost" yaml:"memoryCost"`
	TimeCost   int    `json:"timeCost" yaml:"timeCost"`
	Threads    int    `json:"threads" yaml:"threads"`
}

// Options returns the option map handed to the hasher.
func (p *PasswordConfig) Options() map[string]any {
	opts := map[string]any{}
	if p == nil {
		return opts
	}
	setString(opts, "algo", p.Algo)
	setInt(opts, "cost", p.Cost)
	setInt(opts, "memory_cost", p.MemoryCost)
	setInt(opts, "time_cost", p.TimeCost)
	setInt(opts, "threads", p.Threads)

	return opts
}

// SecurityConfig configures the security response headers
type SecurityConfig struct {
	PoweredBy     string `json:"poweredBy" yaml:"poweredBy"`
	CSPPolicyPath string `json:"cspPolicyPath" yaml:"cspPolicyPath"`
}

// ContactConfig configures the contact form
type ContactConfig struct {
	Inbox    string `json:"inbox" yaml:"inbox"`
	Template string `json:"template" yaml:"template"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

func setString(opts map[string]any, key, value string) {
	if value != "" {
		opts[key] = value
	}
}

func setInt(opts map[string]any, key string, value int) {
	if value != 0 {
		opts[key] = value
	}
}

// LoadWithEnv loads .yaml files through koanf.
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
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
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

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = defaultPort
	}
	if cfg.Security.CSPPolicyPath == "" {
		cfg.Security.CSPPolicyPath = defaultCSPPolicyPath
	}
	if cfg.Contact != nil && cfg.Contact.Template == "" {
		cfg.Contact.Template = defaultContactTemplate
	}
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
