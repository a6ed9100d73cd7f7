package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 8000
	defaultEnv        = "development"
	defaultSiteName   = "RuleMate India"
	defaultSiteURL    = "http://localhost:8000"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	defaultDBDriver   = DriverSQLite
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "rulemate"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultSQLitePath = "data/rulemate.db"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0
	defaultRateLimit = 20

	defaultAIProvider = "openai"
	defaultAITimeout  = 30 * time.Second
	defaultAIRetries  = 1

	defaultSlugMaxLength      = 80
	defaultMinWords           = 3
	defaultMinChars           = 15
	defaultClassifierMinChars = 20
	BlocklistModeToken        = "token"
	BlocklistModeSubstring    = "substring"

	defaultLogDir    = "logs"
	defaultBackupDir = "backups"

	// EnvAIAPIKey and EnvOpenAIAPIKey are consulted when ai.api_key is empty.
	EnvAIAPIKey     = "RULEMATE_AI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvDatabaseDSN  = "RULEMATE_DATABASE_DSN"
	EnvRedisURL     = "RULEMATE_REDIS_URL"
)

// defaultAIModels is consulted when ai.model is left empty.
var defaultAIModels = map[string]string{
	"openai":            "gpt-4o-mini",
	"openai-compatible": "gpt-4o-mini",
	"anthropic":         "claude-haiku-4-5-20251001",
	"google":            "gemini-1.5-flash",
}
