package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("UG_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("UG_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("UG_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/usergate"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetListen() string {
	return os.Getenv("UG_LISTEN")
}

func GetPort() int {
	port, err := strconv.Atoi(os.Getenv("UG_PORT"))
	if err != nil || port <= 0 || port > 65535 {
		return 8080
	}
	return port
}

func GetWebDomain() string {
	return os.Getenv("UG_DOMAIN")
}

func GetSessionSecret() string {
	return os.Getenv("UG_SESSION_SECRET")
}

// GetSessionMaxAge returns the session lifetime in minutes. Zero means a
// browser-session cookie.
func GetSessionMaxAge() int {
	maxAge, err := strconv.Atoi(os.Getenv("UG_SESSION_MAX_AGE"))
	if err != nil || maxAge < 0 {
		return 0
	}
	return maxAge
}

func GetRedisAddr() string {
	return os.Getenv("UG_REDIS_ADDR")
}
