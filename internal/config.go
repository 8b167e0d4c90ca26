package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/muninn/internal/moc"
	"github.com/starford/muninn/internal/vector"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Vector backends.
const (
	VectorBackendDisabled = "disabled"
	VectorBackendLocal    = "local"
	VectorBackendQdrant   = "qdrant"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Vector VectorConfig      `yaml:"vector"`
	Auth   AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Vector.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
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

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the vault directory and its conventions knobs.
type VaultConfig struct {
	Path         string `yaml:"path"`
	MOCThreshold int    `yaml:"moc_threshold"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MOCThreshold, validation.Min(1)),
	)
}

// SQLiteConfig holds SQLite database configuration. The database carries
// the sync journal and, with the local vector backend, the embeddings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// VectorConfig selects and configures the semantic search backend.
//
// Backend controls where embeddings are stored:
//   - "disabled" (default): no embeddings; search_notes reports unavailable.
//   - "local": embeddings live in the SQLite database.
//   - "qdrant": embeddings live in a Qdrant collection.
type VectorConfig struct {
	Backend string             `yaml:"backend"`
	OpenAI  OpenAIVectorConfig `yaml:"openai"`
	Qdrant  QdrantVectorConfig `yaml:"qdrant"`
}

// OpenAIVectorConfig configures the embedding provider.
type OpenAIVectorConfig struct {
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model"`
	Dimension         int     `yaml:"dimension"`
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// QdrantVectorConfig configures the Qdrant backend.
type QdrantVectorConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
}

// Validate validates the vector configuration.
func (c *VectorConfig) Validate() error {
	// Normalise empty backend to "disabled".
	if c.Backend == "" {
		c.Backend = VectorBackendDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(VectorBackendDisabled, VectorBackendLocal, VectorBackendQdrant)),
	); err != nil {
		return err
	}
	if c.Backend == VectorBackendDisabled {
		return nil
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("vector: backend is %q but openai api_key is empty", c.Backend)
	}
	if c.Backend == VectorBackendQdrant && c.Qdrant.URL == "" {
		return fmt.Errorf("vector: backend is %q but qdrant url is empty", c.Backend)
	}
	return nil
}

// Enabled returns true when a vector backend is active.
func (c *VectorConfig) Enabled() bool {
	return c.Backend == VectorBackendLocal || c.Backend == VectorBackendQdrant
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:         "./vault",
			MOCThreshold: moc.DefaultThreshold,
		},
		SQLite: SQLiteConfig{
			Path: "./muninn.db",
		},
		Vector: VectorConfig{
			Backend: VectorBackendDisabled,
			OpenAI: OpenAIVectorConfig{
				Model:             vector.DefaultModel,
				Dimension:         vector.DefaultDimension,
				RequestsPerSecond: 5,
			},
			Qdrant: QdrantVectorConfig{
				URL:        "http://localhost:6333",
				Collection: vector.DefaultCollection,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

// DefaultConfigYAML is the commented configuration template written by the
// init command. ${VAR} references are expanded from the environment at load
// time.
const DefaultConfigYAML = `app:
  log_level: 0 # -4 debug, 0 info, 4 warn, 8 error
  http:
    port: 8080

vault:
  path: ./vault
  moc_threshold: 12

sqlite:
  path: ./muninn.db

vector:
  backend: disabled # disabled, local, or qdrant
  openai:
    api_key: ${OPENAI_API_KEY}
    model: text-embedding-3-small
    dimension: 1536
    requests_per_second: 5
  qdrant:
    url: http://localhost:6333
    collection: muninn_notes

auth:
  mode: disabled # disabled or token
  token: ""
`
