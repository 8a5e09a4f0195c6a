package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetSafeUserFields() []string {
	fields := os.Getenv("UG_SAFE_USER_FIELDS")
	if fields == "" {
		return nil
	}
	return strings.Fields(fields)
}

// GetAdminRolesValue returns the raw allow-list; ParseAdminRoles validates it.
func GetAdminRolesValue() string {
	return os.Getenv("UG_ADMIN_ROLES")
}

func GetVerify() bool {
	return os.Getenv("UG_VERIFY") == "true"
}

// GetCodeTTL returns the reset/verification token lifetime. Unset or
// invalid means no expiry.
func GetCodeTTL() time.Duration {
	ttl, err := time.ParseDuration(os.Getenv("UG_CODE_TTL"))
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

func GetAPIPrefix() string {
	return os.Getenv("UG_API_PREFIX")
}

func GetSMTPHost() string {
	return os.Getenv("UG_SMTP_HOST")
}

func GetSMTPPort() int {
	port, err := strconv.Atoi(os.Getenv("UG_SMTP_PORT"))
	if err != nil || port <= 0 || port > 65535 {
		return 587
	}
	return port
}

func GetSMTPUsername() string {
	return os.Getenv("UG_SMTP_USERNAME")
}

func GetSMTPPassword() string {
	return os.Getenv("UG_SMTP_PASSWORD")
}

func GetEmailFrom() string {
	return os.Getenv("UG_EMAIL_FROM")
}

func GetEmailTemplateDir() string {
	return os.Getenv("UG_EMAIL_TEMPLATE_DIR")
}

func GetAppName() string {
	appName := os.Getenv("UG_APP_NAME")
	if appName == "" {
		return GetName()
	}
	return appName
}

func GetAppURL() string {
	return os.Getenv("UG_APP_URL")
}
