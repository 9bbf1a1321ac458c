package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	ThreadsPerPage int `yaml:"threads_per_page" validate:"required,min=1"`
	PostsPerPage   int `yaml:"posts_per_page" validate:"required,min=1"`
	SearchLimit    int `yaml:"search_limit" validate:"required,min=1"`
	LatestLimit    int `yaml:"latest_limit" validate:"required,min=1"`

	Cache     Cache     `yaml:"cache"`
	RateLimit RateLimit `yaml:"rate_limit"`

	// who may delete or edit a post: admins always, authors within the window (0 = never)
	PostEditWindow   time.Duration `yaml:"post_edit_window"`
	PostDeleteWindow time.Duration `yaml:"post_delete_window"`

	ReactionTypes []string `yaml:"reaction_types" validate:"required,min=1,dive,required"`

	JwtTTL        time.Duration `yaml:"jwt_ttl" validate:"required"`
	SecureCookies bool          `yaml:"secure_cookies"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	ListenAddr    string        `yaml:"listen_addr"`

	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`
}

type Cache struct {
	Backend         string        `yaml:"backend" validate:"omitempty,oneof=pg fs none"`
	Dir             string        `yaml:"dir" validate:"required_if=Backend fs"`
	ThreadTTL       time.Duration `yaml:"thread_ttl"`
	ListTTL         time.Duration `yaml:"list_ttl"`
	PostListTTL     time.Duration `yaml:"post_list_ttl"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

// RateLimit throttles writes per user. A zero rate disables that limit.
type RateLimit struct {
	ThreadsPerMinute   float64 `yaml:"threads_per_minute" validate:"gte=0"`
	PostsPerMinute     float64 `yaml:"posts_per_minute" validate:"gte=0"`
	ReactionsPerMinute float64 `yaml:"reactions_per_minute" validate:"gte=0"`
	Burst              int     `yaml:"burst" validate:"gte=0"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	JwtKey string `yaml:"jwt_key" validate:"required"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

// IsReactionType reports whether t is one of the configured reaction types.
func (p *Public) IsReactionType(t string) bool {
	for _, allowed := range p.ReactionTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err = yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{Public: public, Private: private}
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	return cfg
}

// Validate checks required fields and fills in defaults for optional ones.
func (s *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if s.Public.Cache.Backend == "" {
		s.Public.Cache.Backend = "pg"
	}
	if s.Public.ListenAddr == "" {
		s.Public.ListenAddr = ":8080"
	}
	c := &s.Public.Cache
	if c.ThreadTTL == 0 {
		c.ThreadTTL = 5 * time.Minute
	}
	if c.ListTTL == 0 {
		c.ListTTL = time.Minute
	}
	if c.PostListTTL == 0 {
		c.PostListTTL = time.Minute
	}
	return nil
}
