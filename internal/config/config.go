package config

type Config interface {
	EnvConfig
	SessionConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAuthServiceURL() string
	GetTracingEndpoint() string
	GetMetricsAddr() string
}

type StorageConfig interface {
	GetStorage() StorageType
	GetRedisURL() string
	GetRedisKeyPrefix() string
}

type mainConfig struct {
	EnvVars
	Session
	Storage
}

func New() Config {
	return mainConfig{}
}
