package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port        int
		LockTimeout time.Duration // таймаут ожидания блокировок счета
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // в часах
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
		Enabled  bool
	}
	Migrations string // путь к каталогу SQL-миграций
}

// NewConfig создает новый экземпляр конфигурации.
// Значения читаются из переменных окружения через viper
// (SERVER_PORT, DB_HOST, JWT_SECRET_KEY и т.д.).
func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Настройки сервера
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.lock_timeout", "5s")

	// Настройки базы данных
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.dbname", "bank_db")
	v.SetDefault("db.sslmode", "disable")

	// Настройки JWT
	v.SetDefault("jwt.secret_key", "your-secret-key-here")
	v.SetDefault("jwt.expires_in", 24)

	// Настройки SMTP
	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	v.SetDefault("migrations", "file://migrations")

	cfg := &Config{}
	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.LockTimeout = v.GetDuration("server.lock_timeout")
	if cfg.Server.LockTimeout <= 0 {
		return nil, fmt.Errorf("неверный формат таймаута блокировки: %q", v.GetString("server.lock_timeout"))
	}

	cfg.DB.Host = v.GetString("db.host")
	cfg.DB.Port = v.GetInt("db.port")
	cfg.DB.User = v.GetString("db.user")
	cfg.DB.Password = v.GetString("db.password")
	cfg.DB.DBName = v.GetString("db.dbname")
	cfg.DB.SSLMode = v.GetString("db.sslmode")

	cfg.JWT.SecretKey = v.GetString("jwt.secret_key")
	cfg.JWT.ExpiresIn = v.GetInt("jwt.expires_in")
	if cfg.JWT.ExpiresIn <= 0 {
		return nil, fmt.Errorf("неверный формат времени жизни JWT: %d", cfg.JWT.ExpiresIn)
	}

	cfg.SMTP.Enabled = v.GetBool("smtp.enabled")
	cfg.SMTP.Host = v.GetString("smtp.host")
	cfg.SMTP.Port = v.GetInt("smtp.port")
	cfg.SMTP.Username = v.GetString("smtp.username")
	cfg.SMTP.Password = v.GetString("smtp.password")
	cfg.SMTP.From = v.GetString("smtp.from")

	cfg.Migrations = v.GetString("migrations")

	return cfg, nil
}

// DSN возвращает строку подключения к базе данных
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.DBName, c.DB.SSLMode)
}

// MigrateURL возвращает URL подключения для golang-migrate
func (c *Config) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.DBName, c.DB.SSLMode)
}
