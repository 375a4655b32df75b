package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

type Config struct {
	Port              string        `validate:"required,number"`
	Env               string        `validate:"required,oneof=development production test"`
	LogLevel          string        `validate:"required,oneof=debug info warn error"`
	AllowedOrigins    []string      `validate:"required,min=1,dive,required"`
	RoomIdleTTL       time.Duration `validate:"gte=0"`
	RoomSweepInterval time.Duration `validate:"gt=0"`
	SendBuffer        int           `validate:"min=1"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func LoadConfig() (*Config, error) {
	// a missing .env file is not an error, the environment may be set directly
	_ = godotenv.Load()

	InitValidator()

	idleTTL, err := getenvDuration("ROOM_IDLE_TTL", DefaultRoomIdleTTL)
	if err != nil {
		return nil, err
	}

	sweepInterval, err := getenvDuration("ROOM_SWEEP_INTERVAL", DefaultRoomSweepInterval)
	if err != nil {
		return nil, err
	}

	sendBuffer, err := getenvInt("WS_SEND_BUFFER", DefaultSendBuffer)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Port:              getenv("PORT", DefaultPort),
		Env:               getenv("APP_ENV", DefaultEnv),
		LogLevel:          strings.ToLower(getenv("LOG_LEVEL", DefaultLogLevel)),
		AllowedOrigins:    splitList(getenv("ALLOWED_ORIGINS", DefaultAllowedOrigins)),
		RoomIdleTTL:       idleTTL,
		RoomSweepInterval: sweepInterval,
		SendBuffer:        sendBuffer,
	}

	if err := Validate.Struct(config); err != nil {
		return nil, err
	}

	return config, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})

	return lo.Compact(parts)
}
