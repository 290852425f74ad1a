package internal

import (
	"fmt"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/fileexpo/internal/voice"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Data     DataConfig        `yaml:"data"`
	Usage    UsageConfig       `yaml:"usage"`
	Explorer ExplorerConfig    `yaml:"explorer"`
	Index    IndexConfig       `yaml:"index"`
	Voice    VoiceConfig       `yaml:"voice"`
	AI       AIConfig          `yaml:"ai"`
	QR       QRConfig          `yaml:"qr"`
	Auth     AuthConfig        `yaml:"auth"`
	Metrics  MetricsConfig     `yaml:"metrics"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Data, &c.Usage, &c.Index, &c.Voice, &c.AI, &c.QR, &c.Auth,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration. An empty host listens on all
// interfaces.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DataConfig locates the persisted JSON documents.
type DataConfig struct {
	Dir        string `yaml:"dir"`
	UsageFile  string `yaml:"usage_file"`
	TagsFile   string `yaml:"tags_file"`
	HashesFile string `yaml:"hashes_file"`
}

// Validate validates the data configuration.
func (c *DataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.UsageFile, validation.Required),
		validation.Field(&c.TagsFile, validation.Required),
		validation.Field(&c.HashesFile, validation.Required),
	)
}

// UsagePath returns the usage document path.
func (c *DataConfig) UsagePath() string { return filepath.Join(c.Dir, c.UsageFile) }

// TagsPath returns the tags document path.
func (c *DataConfig) TagsPath() string { return filepath.Join(c.Dir, c.TagsFile) }

// HashesPath returns the integrity document path.
func (c *DataConfig) HashesPath() string { return filepath.Join(c.Dir, c.HashesFile) }

// UsageConfig tunes usage analytics.
type UsageConfig struct {
	SaveProbability float64 `yaml:"save_probability"`
	RecentLimit     int     `yaml:"recent_limit"`
}

// Validate validates the usage configuration.
func (c *UsageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SaveProbability, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.RecentLimit, validation.Required, validation.Min(1)),
	)
}

// ExplorerConfig holds the browsing defaults. An empty StartDir means the
// user's home directory. An empty OpenCommand picks the platform opener.
type ExplorerConfig struct {
	StartDir    string `yaml:"start_dir"`
	ShowHidden  bool   `yaml:"show_hidden"`
	OpenCommand string `yaml:"open_command"`
}

// IndexConfig controls the SQLite file-name index.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Root    string `yaml:"root"`
	Path    string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// VoiceConfig controls the voice assistant. An empty Destinations list
// falls back to downloads, documents and desktop under the home directory.
type VoiceConfig struct {
	Enabled       bool                `yaml:"enabled"`
	ListenTimeout time.Duration       `yaml:"listen_timeout"`
	PhraseLimit   int                 `yaml:"phrase_limit"`
	QueueSize     int                 `yaml:"queue_size"`
	Destinations  []voice.Destination `yaml:"destinations"`
}

// Validate validates the voice configuration.
func (c *VoiceConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.ListenTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.PhraseLimit, validation.Min(0)),
		validation.Field(&c.QueueSize, validation.Min(0)),
	); err != nil {
		return err
	}
	for i, d := range c.Destinations {
		if d.Keyword == "" || d.Path == "" {
			return fmt.Errorf("voice: destination %d: keyword and path are required", i)
		}
	}
	return nil
}

// AIConfig configures the Gemini summarizer.
type AIConfig struct {
	Enabled         bool   `yaml:"enabled"`
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	MaxContentBytes int    `yaml:"max_content_bytes"`
}

// Validate validates the AI configuration.
func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.MaxContentBytes, validation.Min(0)),
	)
}

// QRConfig configures QR code rendering.
type QRConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

// Validate validates the QR configuration.
func (c *QRConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Size, validation.When(c.Enabled, validation.Required, validation.Min(21), validation.Max(4096))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: "127.0.0.1",
				Port: 8080,
			},
		},
		Data: DataConfig{
			Dir:        "./data",
			UsageFile:  "file_usage.json",
			TagsFile:   "file_tags.json",
			HashesFile: "file_hashes.json",
		},
		Usage: UsageConfig{
			SaveProbability: 0.1,
			RecentLimit:     10,
		},
		Index: IndexConfig{
			Path: "./data/fileexpo.db",
		},
		Voice: VoiceConfig{
			ListenTimeout: 5 * time.Second,
			PhraseLimit:   200,
			QueueSize:     16,
		},
		AI: AIConfig{
			Model:           "gemini-2.0-flash",
			MaxContentBytes: 8000,
		},
		QR: QRConfig{
			Enabled: true,
			Size:    256,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
