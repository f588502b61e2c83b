package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env       string // DEV (default), TEST, QA, PROD
		Debug     bool
		TestMode  bool
		AppName   string
		SecretKey string
		Build     string

		FrontendBaseURL  string
		DefaultFromEmail mail.Address

		// emails that register with the admin role; everyone else is a student
		AdminEmails []string

		SendgridAPIKey string
		RollbarToken   string

		Server   ServerConfig
		Database DatabaseConfig
		Uploads  UploadsConfig
	}

	ServerConfig struct {
		Host               string
		Port               int
		DebugHost          string
		JWTExpirationDelta time.Duration
		ShutdownTimeout    time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          int
		DisableTLS    bool
	}

	UploadsConfig struct {
		Dir     string
		MaxSize int64 // bytes
	}
)

func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewConfig loads the app configuration from the environment,
// after sourcing an optional `config/.env.<env>` file.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Sadhana")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "x1wb@7=bu1-k)a#b9a5$cegm2emy+p0q5wer_enb$+57=dz&uo")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("adminEmails", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "sadhana")
	v.SetDefault("database.user", "sadhana")
	v.SetDefault("database.password", "sadhana")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.maxSize", int64(50<<20))

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Env:             env,
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		Build:           v.GetString("build"),
		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("appName"),
			Address: v.GetString("defaultFromEmail"),
		},
		AdminEmails:    splitEmails(v.GetString("adminEmails")),
		SendgridAPIKey: v.GetString("sendgridApiKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Port:               v.GetInt("server.port"),
			DebugHost:          v.GetString("server.debugHost"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Uploads: UploadsConfig{
			Dir:     v.GetString("uploads.dir"),
			MaxSize: v.GetInt64("uploads.maxSize"),
		},
	}
}

// IsAdminEmail reports whether email is on the admin allow-list.
func (c *Config) IsAdminEmail(email string) bool {
	email = CleanString(email, true /* lower */)
	for _, adm := range c.AdminEmails {
		if adm == email {
			return true
		}
	}
	return false
}

func splitEmails(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	emails := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = CleanString(p, true /* lower */); p != "" {
			emails = append(emails, p)
		}
	}
	return emails
}
