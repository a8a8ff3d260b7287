package config

import "strings"

type StorageType string

const (
	MemoryStorage StorageType = "memory"
	RedisStorage  StorageType = "redis"
)

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetStorage() StorageType {
	switch StorageType(strings.ToLower(GetEnv("STORAGE", string(MemoryStorage)))) {
	case RedisStorage:
		return RedisStorage
	default:
		return MemoryStorage
	}
}

func (Storage) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Storage) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "booklet:session:")
}
