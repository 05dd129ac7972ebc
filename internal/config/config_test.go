package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "DB_DRIVER", "OTP_TTL", "MAIL_WORKERS", "CORS_ORIGINS", "TOKEN_TTL"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 2, cfg.MailWorkers)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("MAIL_WORKERS", "4")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, http://localhost:3000,")
	cfg := LoadConfig()
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 4, cfg.MailWorkers)
	assert.Equal(t, []string{"https://shop.example.com", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "shop", DBPassword: "secret", DBHost: "db", DBName: "shop"}
	assert.Equal(t, "shop:secret@tcp(db:3306)/shop?parseTime=true", cfg.DSN())

	cfg.DBDriver = "postgres"
	cfg.DBPort = "6543"
	assert.Equal(t, "host=db user=shop password=secret dbname=shop port=6543 sslmode=disable TimeZone=UTC", cfg.DSN())
}
