package util

import "time"

const DefaultFEN string = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

const (
	DefaultPort              = "3001"
	DefaultEnv               = EnvProduction
	DefaultLogLevel          = "info"
	DefaultAllowedOrigins    = "*"
	DefaultRoomIdleTTL       = 12 * time.Hour
	DefaultRoomSweepInterval = time.Minute
	DefaultSendBuffer        = 32
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const AnyOrigin = "*"
