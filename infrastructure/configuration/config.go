package configuration

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"social-publisher/infrastructure/logger"

	"github.com/spf13/viper"
)

const (
	defaultPort        = 10001
	defaultHTTPTimeout = 15
	minHTTPTimeout     = 10
	maxHTTPTimeout     = 30
	defaultStateTTL    = 10
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	Logger      Logger      `json:"logger"`
	HTTP        HTTP        `json:"http"`
	OAuth       OAuth       `json:"oauth"`
}

type App struct {
	Port           int      `json:"port"`
	SecretKey      string   `json:"secretKey"`
	AllowedOrigins []string `json:"allowedOrigins"`
	TLSEnabled     bool     `json:"tlsEnabled"`
	TLSCertFile    string   `json:"tlsCertFile"`
	TLSKeyFile     string   `json:"tlsKeyFile"`
}

type Database struct {
	// Vendor selects the credential/result store: postgres (default) or mssql.
	Vendor string `json:"vendor"`
	Psql   Db     `json:"psql"`
	Mssql  Db     `json:"mssql"`
	Mongo  Db     `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	TopicID   string `json:"topicID"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type Logger struct {
	Format string `json:"format"`
	Level  string `json:"level"`
}

type HTTP struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
}

// Timeout is the deadline applied to every outbound OAuth, profile, publish and revoke call.
func (h HTTP) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// OAuth holds the state-token settings and the per-platform client credentials.
type OAuth struct {
	StateSecret     string      `json:"stateSecret"`
	StateTTLMinutes int         `json:"stateTTLMinutes"`
	ExposeTokens    bool        `json:"exposeTokens"`
	LinkedIn        OAuthClient `json:"linkedin"`
	Twitter         OAuthClient `json:"twitter"`
	Facebook        OAuthClient `json:"facebook"`
	Blogger         OAuthClient `json:"blogger"`
}

func (o OAuth) StateTTL() time.Duration {
	return time.Duration(o.StateTTLMinutes) * time.Minute
}

type OAuthClient struct {
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	RedirectURI  string   `json:"redirectURI"`
	Scopes       []string `json:"scopes"`
}

// Load reads config[-ENV].json, dotenv files and environment overrides.
func Load() (*Config, error) {
	LoadEnvFromFile("config.env", ".env")

	v := viper.New()
	name := getConfig()
	v.SetConfigName(name)
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	v.AddConfigPath("../../")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", name, err)
		}
		logger.GetLogger().WithField("config", name).Warn("Config file not found")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	initApp(&c)
	initDatabase(&c)
	initOAuth(&c)
	initMisc(&c)

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	return &c, nil
}

func getConfig() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(c *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.App.SecretKey = v
	}
	// APP_PORT -> PORT -> config -> default
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	}
	if c.App.Port == 0 {
		c.App.Port = defaultPort
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.App.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true":
			c.App.TLSEnabled = true
		case "0", "false":
			c.App.TLSEnabled = false
		}
	}
	c.App.TLSCertFile = getConfigValue(c.App.TLSCertFile, "TLS_CERT_FILE", "")
	c.App.TLSKeyFile = getConfigValue(c.App.TLSKeyFile, "TLS_KEY_FILE", "")
	if c.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; API authentication will reject every request")
	}
}

func initDatabase(c *Config) {
	c.Database.Vendor = strings.ToLower(getConfigValue(c.Database.Vendor, "DB_VENDOR", "postgres"))

	psql := &c.Database.Psql
	psql.Name = getConfigValue(psql.Name, "DB_NAME", "")
	psql.Host = getConfigValue(psql.Host, "DB_HOST", "localhost")
	psql.Port = getConfigValue(psql.Port, "DB_PORT", "5432")
	psql.User = getConfigValue(psql.User, "DB_USER", "")
	psql.Password = getConfigValue(psql.Password, "DB_PASSWORD", "")
	psql.SSLMode = getConfigValue(psql.SSLMode, "DB_SSLMODE", "disable")

	mssql := &c.Database.Mssql
	mssql.Name = getConfigValue(mssql.Name, "MSSQL_DB_NAME", "")
	mssql.Host = getConfigValue(mssql.Host, "MSSQL_HOST", "localhost")
	mssql.Port = getConfigValue(mssql.Port, "MSSQL_PORT", "1433")
	mssql.User = getConfigValue(mssql.User, "MSSQL_USER", "")
	mssql.Password = getConfigValue(mssql.Password, "MSSQL_PASSWORD", "")

	mongo := &c.Database.Mongo
	mongo.Name = getConfigValue(mongo.Name, "MONGO_DB_NAME", "social_publisher")
	mongo.Host = getConfigValue(mongo.Host, "MONGO_HOST", "")
	mongo.Port = getConfigValue(mongo.Port, "MONGO_PORT", "27017")
	mongo.User = getConfigValue(mongo.User, "MONGO_USER", "")
	mongo.Password = getConfigValue(mongo.Password, "MONGO_PASSWORD", "")
}

func initOAuth(c *Config) {
	o := &c.OAuth
	o.StateSecret = getConfigValue(o.StateSecret, "OAUTH_STATE_SECRET", c.App.SecretKey)
	if v := os.Getenv("OAUTH_STATE_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			o.StateTTLMinutes = n
		}
	}
	if o.StateTTLMinutes <= 0 {
		o.StateTTLMinutes = defaultStateTTL
	}
	if v := os.Getenv("OAUTH_EXPOSE_TOKENS"); v != "" {
		o.ExposeTokens = v == "1" || strings.EqualFold(v, "true")
	}
	initClient(&o.LinkedIn, "LINKEDIN")
	initClient(&o.Twitter, "TWITTER")
	initClient(&o.Facebook, "FACEBOOK")
	initClient(&o.Blogger, "BLOGGER")
	// Prefer https redirect URIs when TLS is enabled locally.
	if c.App.TLSEnabled {
		for _, client := range []*OAuthClient{&o.LinkedIn, &o.Twitter, &o.Facebook, &o.Blogger} {
			if client.RedirectURI != "" && !hasHTTPS(client.RedirectURI) {
				client.RedirectURI = toHTTPSCallback(client.RedirectURI)
			}
		}
	}
}

func initClient(client *OAuthClient, prefix string) {
	client.ClientID = getConfigValue(client.ClientID, prefix+"_CLIENT_ID", "")
	client.ClientSecret = getConfigValue(client.ClientSecret, prefix+"_CLIENT_SECRET", "")
	client.RedirectURI = getConfigValue(client.RedirectURI, prefix+"_REDIRECT_URI", "")
	if v := os.Getenv(prefix + "_SCOPES"); v != "" {
		client.Scopes = splitList(v)
	}
}

func initMisc(c *Config) {
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HTTP.TimeoutSeconds = n
		}
	}
	switch {
	case c.HTTP.TimeoutSeconds == 0:
		c.HTTP.TimeoutSeconds = defaultHTTPTimeout
	case c.HTTP.TimeoutSeconds < minHTTPTimeout:
		c.HTTP.TimeoutSeconds = minHTTPTimeout
	case c.HTTP.TimeoutSeconds > maxHTTPTimeout:
		c.HTTP.TimeoutSeconds = maxHTTPTimeout
	}

	c.RedisClient.Host = getConfigValue(c.RedisClient.Host, "REDIS_HOST", "")
	c.RedisClient.Port = getConfigValue(c.RedisClient.Port, "REDIS_PORT", "6379")
	c.RedisClient.Username = getConfigValue(c.RedisClient.Username, "REDIS_USERNAME", "")
	c.RedisClient.Password = getConfigValue(c.RedisClient.Password, "REDIS_PASSWORD", "")

	c.Pubsub.ProjectID = getConfigValue(c.Pubsub.ProjectID, "PUBSUB_PROJECT_ID", "")
	c.Pubsub.TopicID = getConfigValue(c.Pubsub.TopicID, "PUBSUB_TOPIC_ID", "publish-outcomes")
	c.ServiceBus.Namespace = getConfigValue(c.ServiceBus.Namespace, "SERVICEBUS_NAMESPACE", "")
	c.ServiceBus.Queue = getConfigValue(c.ServiceBus.Queue, "SERVICEBUS_QUEUE", "publish-outcomes")

	c.Logger.Format = getConfigValue(c.Logger.Format, "LOG_FORMAT", "json")
	c.Logger.Level = getConfigValue(c.Logger.Level, "LOG_LEVEL", "debug")
}

// getConfigValue prefers the environment, then a non-placeholder config value, then the default.
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasHTTPS(u string) bool { return strings.HasPrefix(u, "https://") }

func toHTTPSCallback(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
