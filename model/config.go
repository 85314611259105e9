package model

// Config 对应于 .env / config.yaml / 环境变量 的顶级结构
type Config struct {
	DiscordToken     string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordChannelID string `mapstructure:"DISCORD_CHANNEL_ID"`

	Twitter Twitter `mapstructure:",squash"`

	DatabasePath string `mapstructure:"DATABASE_PATH"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	Redis Redis `mapstructure:",squash"`
}

// Twitter holds the OAuth 1.0a user-context credentials.
type Twitter struct {
	APIKey       string `mapstructure:"API_KEY"`
	SecretKey    string `mapstructure:"SECRET_KEY"`
	AccessToken  string `mapstructure:"ACCESS_TOKEN"`
	AccessSecret string `mapstructure:"ACCESS_SECRET"`
}

// Redis 对应可选的分布式锁配置，Addr 为空时使用进程内锁
type Redis struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}
