package di

import (
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/cafekit/go-entity-cache/cache"
	"github.com/cafekit/go-entity-cache/entitycache"
	"github.com/cafekit/go-entity-cache/rest"
)

// Config holds everything the container needs to wire the data layer.
type Config struct {
	// APIHost is the REST backend base URL.
	APIHost string
	// Token is the initial bearer token; empty starts unauthenticated.
	Token string
	// RevalidateHost is the server-rendering host for the revalidation side
	// channel. Empty disables revalidation.
	RevalidateHost string
	// RevalidateSecret guards the revalidation endpoint.
	RevalidateSecret string
	// Cache tunes the shared store.
	Cache cache.Config
	// LogLevel is a logrus level name; empty means info.
	LogLevel string
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.APIHost, validation.Required, is.URL),
		validation.Field(&c.RevalidateHost, is.URL),
		validation.Field(&c.RevalidateSecret, validation.Required.When(c.RevalidateHost != "")),
	); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one is present.
func LoadConfig() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		APIHost:          os.Getenv("API_HOST"),
		Token:            os.Getenv("JWT_TOKEN"),
		RevalidateHost:   os.Getenv("REVALIDATE_HOST"),
		RevalidateSecret: os.Getenv("REVALIDATE_TOKEN"),
		Cache:            cache.DefaultConfig(),
		LogLevel:         os.Getenv("LOG_LEVEL"),
	}
	if v := os.Getenv("CACHE_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Cache.Capacity = n
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Cache.TTL = ttl
	}
	return cfg, cfg.Validate()
}

// Container provides dependency injection for the data layer. It manages the
// singleton store, request client, token source, and revalidator, and offers
// a factory for per-entity caches.
type Container struct {
	config      Config
	logger      *logrus.Logger
	store       cache.Store
	tokens      *rest.StaticTokenSource
	client      *rest.Client
	revalidator *rest.Revalidator
}

// New creates a container from the provided configuration.
func New(cfg Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.New()
	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		logger.SetLevel(level)
	}

	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		return nil, err
	}

	tokens := rest.NewStaticTokenSource(cfg.Token)
	client := rest.NewClient(cfg.APIHost,
		rest.WithTokenSource(tokens),
		rest.WithLogger(logger),
	)

	var revalidator *rest.Revalidator
	if cfg.RevalidateHost != "" {
		revalidator = rest.NewRevalidator(cfg.RevalidateHost, cfg.RevalidateSecret,
			rest.WithRevalidatorLogger(logger),
		)
	}

	return &Container{
		config:      cfg,
		logger:      logger,
		store:       store,
		tokens:      tokens,
		client:      client,
		revalidator: revalidator,
	}, nil
}

// NewFromEnv creates a container from environment configuration.
func NewFromEnv() (*Container, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Config returns a copy of the container's configuration.
func (c *Container) Config() Config { return c.config }

// Logger returns the shared logger.
func (c *Container) Logger() *logrus.Logger { return c.logger }

// Store returns the shared query cache.
func (c *Container) Store() cache.Store { return c.store }

// Tokens returns the mutable token source, e.g. to install a token after login.
func (c *Container) Tokens() *rest.StaticTokenSource { return c.tokens }

// Client returns the request client.
func (c *Container) Client() *rest.Client { return c.client }

// Revalidator returns the revalidation side channel, nil when disabled.
func (c *Container) Revalidator() *rest.Revalidator { return c.revalidator }

// NewEntityCache creates an entity cache wired to the container's store,
// client, revalidator, and logger. Options already carrying a revalidator or
// logger keep them.
//
// Since Go methods cannot have type parameters, this is a package-level
// function: NewEntityCache[Table](container, opts).
func NewEntityCache[T any](c *Container, opts entitycache.Options[T]) *entitycache.Cache[T] {
	if opts.Revalidator == nil {
		opts.Revalidator = c.revalidator
	}
	if opts.Logger == nil {
		opts.Logger = c.logger
	}
	return entitycache.New(c.store, c.client, opts)
}
