package settings

import (
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-settings/cache"
	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/goliatone/go-settings/pkg/storage"
)

// DefaultName is the slot the settings blob is persisted under when no name
// is configured.
const DefaultName = "settings"

// Store is a dot-path addressed settings registry persisted as one blob.
//
// Reads consult the cache tiers first, then the decoded blob. Writes run the
// sanitize/validate gate, persist the whole blob and invalidate the touched
// cache keys. Concurrent writers racing on the same backend slot follow
// last-write-wins; Store serialises only calls made through one value.
type Store struct {
	mu sync.Mutex

	backend  storage.Backend
	cache    cache.Cache
	registry *Registry
	codec    Codec
	logger   Logger
	emitter  *activity.Emitter
	now      func() time.Time
	name     string
	origin   string

	tree   map[string]any
	loaded bool
}

// Option configures a Store.
type Option func(*config)

type config struct {
	name           string
	cache          cache.Cache
	cacheTTL       time.Duration
	registry       *Registry
	codec          Codec
	logger         Logger
	origin         string
	activityHooks  activity.Hooks
	activityConfig *activity.Config
	now            func() time.Time
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithName sets the slot the blob is persisted under. Defaults and backups
// use slots derived from it.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = strings.TrimSpace(name)
	}
}

// WithCache replaces the default two-tier cache.
func WithCache(c cache.Cache) Option {
	return func(cfg *config) {
		cfg.cache = c
	}
}

// WithCacheTTL sets the TTL of the default shared tier.
func WithCacheTTL(ttl time.Duration) Option {
	return func(cfg *config) {
		cfg.cacheTTL = ttl
	}
}

// WithRegistry injects the validator/sanitizer registry.
func WithRegistry(registry *Registry) Option {
	return func(cfg *config) {
		cfg.registry = registry
	}
}

// WithCodec selects the encoding of persisted blobs.
func WithCodec(codec Codec) Option {
	return func(cfg *config) {
		cfg.codec = codec
	}
}

// WithOrigin sets the identifier recorded in exports.
func WithOrigin(origin string) Option {
	return func(cfg *config) {
		cfg.origin = strings.TrimSpace(origin)
	}
}

// WithActivityHooks attaches activity hooks notified after accepted
// mutations. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	return func(cfg *config) {
		cfg.activityHooks = hooks
	}
}

// WithActivityConfig overrides the emitter configuration. Without it, events
// are emitted whenever hooks are present.
func WithActivityConfig(c activity.Config) Option {
	return func(cfg *config) {
		cfg.activityConfig = &c
	}
}

// WithClock overrides the time source used for exports and backups.
func WithClock(now func() time.Time) Option {
	return func(cfg *config) {
		cfg.now = now
	}
}

// New constructs a Store over backend.
func New(backend storage.Backend, opts ...Option) *Store {
	cfg := applyOptions(opts)
	if cfg.name == "" {
		cfg.name = DefaultName
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	if cfg.registry == nil {
		cfg.registry = NewRegistry(RegistryWithLogger(cfg.logger))
	}
	if cfg.codec == nil {
		cfg.codec = JSONCodec()
	}
	if cfg.cache == nil {
		cfg.cache = cache.NewLayered(cache.NewMemory(), cache.NewTTL(cfg.name, cfg.cacheTTL))
	}
	if cfg.origin == "" {
		cfg.origin = "go-settings"
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	activityCfg := activity.Config{Enabled: true, Channel: "settings"}
	if cfg.activityConfig != nil {
		activityCfg = *cfg.activityConfig
	}
	return &Store{
		backend:  backend,
		cache:    cfg.cache,
		registry: cfg.registry,
		codec:    cfg.codec,
		logger:   cfg.logger,
		emitter:  activity.NewEmitter(cfg.activityHooks, activityCfg),
		now:      cfg.now,
		name:     cfg.name,
		origin:   cfg.origin,
	}
}

// Name returns the slot the blob is persisted under.
func (s *Store) Name() string {
	return s.name
}

// Registry returns the validator/sanitizer registry.
func (s *Store) Registry() *Registry {
	return s.registry
}

func (s *Store) defaultsKey() string {
	return s.name + "_defaults"
}

func (s *Store) backupPrefix() string {
	return s.name + "_backup_"
}

// SetOption configures the sanitize/validate gate of a single write.
type SetOption func(*setConfig)

type setConfig struct {
	sanitizeName string
	sanitizer    Sanitizer
	validateName string
	validator    Validator
}

// WithSanitize applies the registered sanitizer name before validation.
func WithSanitize(name string) SetOption {
	return func(cfg *setConfig) {
		cfg.sanitizeName = name
		cfg.sanitizer = nil
	}
}

// WithSanitizer applies fn before validation.
func WithSanitizer(fn Sanitizer) SetOption {
	return func(cfg *setConfig) {
		cfg.sanitizer = fn
		cfg.sanitizeName = ""
	}
}

// WithValidate requires the registered validator name to pass.
func WithValidate(name string) SetOption {
	return func(cfg *setConfig) {
		cfg.validateName = name
		cfg.validator = nil
	}
}

// WithValidator requires fn to pass.
func WithValidator(fn Validator) SetOption {
	return func(cfg *setConfig) {
		cfg.validator = fn
		cfg.validateName = ""
	}
}

func applySetOptions(opts []SetOption) setConfig {
	cfg := setConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
