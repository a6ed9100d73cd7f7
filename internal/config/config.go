package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int
	Env            string
	Site           SiteConfig
	Database       DatabaseRuntimeConfig
	Redis          RedisRuntimeConfig
	AI             AIConfig
	Rules          RulesConfig
	LogDirPath     string
	Backup         BackupConfig
	AllowedOrigins []string

	// DSN and RedisURL are resolved connection strings.
	DSN      string
	RedisURL string
}

type SiteConfig struct {
	Name string
	URL  string
}

type DatabaseRuntimeConfig struct {
	Driver    string
	DSN       string
	Host      string
	Port      int
	User      string
	Password  string
	Name      string
	Charset   string
	ParseTime bool
	Loc       string
	Path      string
	Params    map[string]string
}

type RedisRuntimeConfig struct {
	Enable             bool
	URL                string
	Host               string
	Port               int
	Username           string
	Password           string
	DB                 int
	TLS                bool
	CacheTTL           time.Duration
	RateLimitPerMinute int
}

// AIConfig selects the completion provider used for answers and classification.
type AIConfig struct {
	Provider string // openai | openai-compatible | anthropic | google
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
	Retries  int
}

// RulesConfig carries the tunable question-screening heuristics.
type RulesConfig struct {
	SlugMaxLength         int
	MinWords              int
	MinChars              int
	ClassifierMinChars    int
	BlocklistMode         string
	ExtraKeywords         []string
	ExtraBlockedTokens    []string
	ExtraBlockedFragments []string
}

type BackupConfig struct {
	Dir string
	// Interval schedules automatic backups while serving; zero disables them.
	Interval time.Duration
	S3       S3Options
}

type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	PathStyle       bool
}

// Enabled reports whether enough S3 settings are present to upload.
func (o S3Options) Enabled() bool {
	return o.Bucket != "" && o.Region != ""
}

type rawAppConfig struct {
	Port           int               `yaml:"port"`
	Env            string            `yaml:"env"`
	Site           rawSiteConfig     `yaml:"site"`
	Database       rawDatabaseConfig `yaml:"database"`
	DatabaseURL    string            `yaml:"database_url"`
	Redis          rawRedisConfig    `yaml:"redis"`
	RedisURL       string            `yaml:"redis_url"`
	AI             rawAIConfig       `yaml:"ai"`
	Rules          rawRulesConfig    `yaml:"rules"`
	Log            rawLogConfig      `yaml:"log"`
	Backup         rawBackupConfig   `yaml:"backup"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
}

type rawSiteConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type rawDatabaseConfig struct {
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Path      string            `yaml:"path"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	Enable             *bool  `yaml:"enable"`
	URL                string `yaml:"url"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	DB                 *int   `yaml:"db"`
	TLS                *bool  `yaml:"tls"`
	CacheTTL           string `yaml:"cache_ttl"`
	RateLimitPerMinute *int   `yaml:"rate_limit_per_minute"`
}

type rawAIConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
	Retries  *int   `yaml:"retries"`
}

type rawRulesConfig struct {
	SlugMaxLength         int      `yaml:"slug_max_length"`
	MinWords              *int     `yaml:"min_words"`
	MinChars              *int     `yaml:"min_chars"`
	ClassifierMinChars    *int     `yaml:"classifier_min_chars"`
	BlocklistMode         string   `yaml:"blocklist_mode"`
	ExtraKeywords         []string `yaml:"extra_keywords"`
	ExtraBlockedTokens    []string `yaml:"extra_blocked_tokens"`
	ExtraBlockedFragments []string `yaml:"extra_blocked_fragments"`
}

type rawLogConfig struct {
	Dir string `yaml:"dir"`
}

type rawBackupConfig struct {
	Dir      string       `yaml:"dir"`
	Interval string       `yaml:"interval"`
	S3       rawS3Options `yaml:"s3"`
}

type rawS3Options struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
}

// Load reads the YAML file at configPath. A missing file is not an error when
// the default path is used; every setting then comes from defaults and env.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		content = nil
	}
	return Parse(content)
}

// Parse decodes YAML content into a validated AppConfig.
func Parse(content []byte) (*AppConfig, error) {
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg := defaultAppConfig()
	var result *multierror.Error
	if err := applyRawAppConfig(&cfg, raw); err != nil {
		result = multierror.Append(result, err)
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Site: SiteConfig{Name: defaultSiteName, URL: defaultSiteURL},
		Database: DatabaseRuntimeConfig{
			Driver:    defaultDBDriver,
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
			Path:      defaultSQLitePath,
		},
		Redis: RedisRuntimeConfig{
			Host:               defaultRedisHost,
			Port:               defaultRedisPort,
			DB:                 defaultRedisDB,
			RateLimitPerMinute: defaultRateLimit,
		},
		AI: AIConfig{
			Provider: defaultAIProvider,
			Timeout:  defaultAITimeout,
			Retries:  defaultAIRetries,
		},
		Rules: RulesConfig{
			SlugMaxLength:      defaultSlugMaxLength,
			MinWords:           defaultMinWords,
			MinChars:           defaultMinChars,
			ClassifierMinChars: defaultClassifierMinChars,
			BlocklistMode:      BlocklistModeToken,
		},
		LogDirPath: defaultLogDir,
		Backup:     BackupConfig{Dir: defaultBackupDir},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	var result *multierror.Error

	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	cfg.Env = normalizeEnv(cfg.Env)
	if v := strings.TrimSpace(raw.Site.Name); v != "" {
		cfg.Site.Name = v
	}
	if v := strings.TrimSpace(raw.Site.URL); v != "" {
		cfg.Site.URL = v
	}
	cfg.Site.URL = strings.TrimRight(cfg.Site.URL, "/")

	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)

	redis, err := applyRawRedisConfig(cfg.Redis, raw)
	if err != nil {
		result = multierror.Append(result, err)
	}
	cfg.Redis = redis

	ai, err := applyRawAIConfig(cfg.AI, raw.AI)
	if err != nil {
		result = multierror.Append(result, err)
	}
	cfg.AI = ai

	cfg.Rules = applyRawRulesConfig(cfg.Rules, raw.Rules)

	if v := strings.TrimSpace(raw.Log.Dir); v != "" {
		cfg.LogDirPath = v
	}
	if v := strings.TrimSpace(raw.Backup.Dir); v != "" {
		cfg.Backup.Dir = v
	}
	if v := strings.TrimSpace(raw.Backup.Interval); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid backup.interval %q: %w", v, err))
		} else {
			cfg.Backup.Interval = interval
		}
	}
	cfg.Backup.S3 = S3Options{
		Bucket:          strings.TrimSpace(raw.Backup.S3.Bucket),
		Region:          strings.TrimSpace(raw.Backup.S3.Region),
		Endpoint:        strings.TrimSpace(raw.Backup.S3.Endpoint),
		AccessKeyID:     strings.TrimSpace(raw.Backup.S3.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(raw.Backup.S3.SecretAccessKey),
		Prefix:          strings.Trim(strings.TrimSpace(raw.Backup.S3.Prefix), "/"),
		PathStyle:       raw.Backup.S3.PathStyle,
	}

	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = normalizeList(raw.AllowedOrigins, false)
	}

	return result.ErrorOrNil()
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current
	db := raw.Database

	if v := strings.ToLower(strings.TrimSpace(db.Driver)); v != "" {
		cfg.Driver = v
	}
	if v := strings.TrimSpace(db.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DatabaseURL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(db.Host); v != "" {
		cfg.Host = v
	}
	if db.Port != 0 {
		cfg.Port = db.Port
	}
	if v := strings.TrimSpace(db.User); v != "" {
		cfg.User = v
	}
	if v := strings.TrimSpace(db.Password); v != "" {
		cfg.Password = v
	}
	if v := strings.TrimSpace(db.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(db.Charset); v != "" {
		cfg.Charset = v
	}
	if db.ParseTime != nil {
		cfg.ParseTime = *db.ParseTime
	}
	if v := strings.TrimSpace(db.Loc); v != "" {
		cfg.Loc = v
	}
	if v := strings.TrimSpace(db.Path); v != "" {
		cfg.Path = v
	}
	if db.Params != nil {
		cfg.Params = copyStringMap(db.Params)
	}
	if cfg.Driver == "sqlite3" {
		cfg.Driver = DriverSQLite
	}
	return cfg
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) (RedisRuntimeConfig, error) {
	cfg := current
	r := raw.Redis

	if v := strings.TrimSpace(r.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(r.Host); v != "" {
		cfg.Host = v
	}
	if r.Port != 0 {
		cfg.Port = r.Port
	}
	if v := strings.TrimSpace(r.Username); v != "" {
		cfg.Username = v
	}
	if v := strings.TrimSpace(r.Password); v != "" {
		cfg.Password = v
	}
	if r.DB != nil {
		cfg.DB = *r.DB
	}
	if r.TLS != nil {
		cfg.TLS = *r.TLS
	}
	if r.RateLimitPerMinute != nil {
		cfg.RateLimitPerMinute = *r.RateLimitPerMinute
	}

	// A configured URL implies the cache is wanted unless explicitly disabled.
	cfg.Enable = cfg.URL != ""
	if r.Enable != nil {
		cfg.Enable = *r.Enable
	}

	if v := strings.TrimSpace(r.CacheTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid redis.cache_ttl %q: %w", v, err)
		}
		cfg.CacheTTL = ttl
	}
	return cfg, nil
}

func applyRawAIConfig(current AIConfig, raw rawAIConfig) (AIConfig, error) {
	cfg := current
	if v := strings.TrimSpace(raw.Provider); v != "" {
		cfg.Provider = normalizeProviderType(v)
	}
	if v := strings.TrimSpace(raw.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := strings.TrimSpace(raw.Model); v != "" {
		cfg.Model = v
	}
	if raw.Retries != nil {
		cfg.Retries = *raw.Retries
	}
	if v := strings.TrimSpace(raw.Timeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid ai.timeout %q: %w", v, err)
		}
		cfg.Timeout = timeout
	}
	if cfg.Model == "" {
		cfg.Model = defaultAIModels[cfg.Provider]
	}
	return cfg, nil
}

func applyRawRulesConfig(current RulesConfig, raw rawRulesConfig) RulesConfig {
	cfg := current
	if raw.SlugMaxLength != 0 {
		cfg.SlugMaxLength = raw.SlugMaxLength
	}
	if raw.MinWords != nil {
		cfg.MinWords = *raw.MinWords
	}
	if raw.MinChars != nil {
		cfg.MinChars = *raw.MinChars
	}
	if raw.ClassifierMinChars != nil {
		cfg.ClassifierMinChars = *raw.ClassifierMinChars
	}
	if v := strings.ToLower(strings.TrimSpace(raw.BlocklistMode)); v != "" {
		cfg.BlocklistMode = v
	}
	cfg.ExtraKeywords = normalizeList(raw.ExtraKeywords, true)
	cfg.ExtraBlockedTokens = normalizeList(raw.ExtraBlockedTokens, true)
	cfg.ExtraBlockedFragments = normalizeList(raw.ExtraBlockedFragments, true)
	return cfg
}

func applyEnvOverrides(cfg *AppConfig) {
	if cfg.AI.APIKey == "" {
		for _, key := range []string{EnvAIAPIKey, EnvOpenAIAPIKey} {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				cfg.AI.APIKey = v
				break
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseDSN)); v != "" && cfg.Database.DSN == "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisURL)); v != "" && cfg.Redis.URL == "" {
		cfg.Redis.URL = v
		cfg.Redis.Enable = true
	}
}

// Validate reports every invalid setting at once.
func (c *AppConfig) Validate() error {
	var result *multierror.Error
	if c.Port < 1 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("invalid port %d, expected 1-65535", c.Port))
	}
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.DSN == "" && (c.Database.Port < 1 || c.Database.Port > 65535) {
			result = multierror.Append(result, fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port))
		}
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" && c.Database.DSN == "" {
			result = multierror.Append(result, fmt.Errorf("database.path is required for the sqlite driver"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported database.driver %q, expected mysql or sqlite", c.Database.Driver))
	}
	if c.Redis.Enable && c.Redis.URL == "" && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
		result = multierror.Append(result, fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port))
	}
	if c.Redis.DB < 0 {
		result = multierror.Append(result, fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB))
	}
	if c.Redis.CacheTTL < 0 {
		result = multierror.Append(result, fmt.Errorf("invalid redis.cache_ttl %s, expected >= 0", c.Redis.CacheTTL))
	}
	switch c.AI.Provider {
	case "openai", "openai-compatible", "anthropic", "google":
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported ai.provider %q", c.AI.Provider))
	}
	if c.AI.Provider == "openai-compatible" && c.AI.Endpoint == "" {
		result = multierror.Append(result, fmt.Errorf("ai.endpoint is required for openai-compatible providers"))
	}
	if c.AI.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("invalid ai.timeout %s, expected > 0", c.AI.Timeout))
	}
	if c.AI.Retries < 1 {
		result = multierror.Append(result, fmt.Errorf("invalid ai.retries %d, expected >= 1", c.AI.Retries))
	}
	if c.Backup.Interval < 0 {
		result = multierror.Append(result, fmt.Errorf("invalid backup.interval %s, expected >= 0", c.Backup.Interval))
	}
	if c.Rules.SlugMaxLength < 10 {
		result = multierror.Append(result, fmt.Errorf("invalid rules.slug_max_length %d, expected >= 10", c.Rules.SlugMaxLength))
	}
	if c.Rules.BlocklistMode != BlocklistModeToken && c.Rules.BlocklistMode != BlocklistModeSubstring {
		result = multierror.Append(result, fmt.Errorf("invalid rules.blocklist_mode %q, expected token or substring", c.Rules.BlocklistMode))
	}
	return result.ErrorOrNil()
}

// IsDev reports whether the service runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

// LogDir returns the absolute log directory.
func (c *AppConfig) LogDir() string {
	return ResolveRuntimePath(c.LogDirPath, defaultLogDir)
}

// BackupDir returns the absolute backup directory.
func (c *AppConfig) BackupDir() string {
	return ResolveRuntimePath(c.Backup.Dir, defaultBackupDir)
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production":
		return "production"
	case "test":
		return "test"
	default:
		return "development"
	}
}

func normalizeProviderType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	if t == "openaicompatible" {
		t = "openai-compatible"
	}
	if t == "gemini" {
		t = "google"
	}
	return t
}

func normalizeList(items []string, lower bool) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		v := strings.TrimSpace(item)
		if lower {
			v = strings.ToLower(v)
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
