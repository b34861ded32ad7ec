package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

// Mode is the persistence mode the platform runs in.
type Mode string

const (
	// ModeLive operates against the real Postgres/OSS backend.
	ModeLive Mode = "LIVE"
	// ModeDemo operates against the seeded in-memory dataset; used whenever
	// backend credentials are missing or the deployment is a demo host.
	ModeDemo Mode = "DEMO"
)

type (
	Config struct {
		Debug    bool
		TestMode bool
		Env      string // DEV (local; default), TEST, QA, PROD
		AppName  string
		Build    string

		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridAPIKey   string

		Server   ServerConfig
		Database DatabaseConfig
		Storage  StorageConfig
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		PasswordResetTimeoutDelta time.Duration

		// DemoHosts are public host suffixes of static/demo deployments;
		// a Server.Host matching any of them can never run LIVE.
		DemoHosts []string
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	StorageConfig struct {
		Endpoint        string
		AccessKeyID     string
		AccessKeySecret string
		Bucket          string
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// configured reports whether backend credentials are present at all.
func (c DatabaseConfig) configured() bool {
	return c.Name != "" && c.User != ""
}

// Mode resolves the persistence mode; evaluated fresh on every call.
// LIVE requires configured database credentials, a PROD deployment and a
// public host that is not a known demo/static-hosting fallback domain.
func (c *Config) Mode() Mode {
	if !c.Database.configured() {
		return ModeDemo
	}
	if c.Env != "PROD" {
		return ModeDemo
	}
	for _, host := range c.Server.DemoHosts {
		if host != "" && strings.HasSuffix(c.Server.Host, host) {
			return ModeDemo
		}
	}
	return ModeLive
}

func (c *Config) IsDemo() bool { return c.Mode() == ModeDemo }

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Darasa")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "w3l2-zyx)dar$+04=as&abkh7(h!x)#*c9(#yg2h^$cegm8asa")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	conf.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	conf.SetDefault("demoHosts", []string{".web.app", ".firebaseapp.com"})

	conf.SetDefault("databaseEngine", "postgres")
	conf.SetDefault("databaseName", "")
	conf.SetDefault("databaseUser", "")
	conf.SetDefault("databasePassword", "")
	conf.SetDefault("databaseAdminUser", "")
	conf.SetDefault("databaseAdminPassword", "")
	conf.SetDefault("databaseHost", "localhost")
	conf.SetDefault("databasePort", "5432")
	conf.SetDefault("databaseDisableTLS", true)

	conf.SetDefault("storageEndpoint", "")
	conf.SetDefault("storageAccessKeyId", "")
	conf.SetDefault("storageAccessKeySecret", "")
	conf.SetDefault("storageBucket", "")

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	case "PROD":
		conf.SetDefault("debug", false)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	c := &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		Env:              env,
		AppName:          conf.GetString("appName"),
		Build:            conf.GetString("build"),
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: conf.GetString("appName"), Address: conf.GetString("defaultFromEmail")},
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridAPIKey:   conf.GetString("sendgridApiKey"),
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Addr:                      conf.GetString("serverAddr"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			PasswordResetTimeoutDelta: conf.GetDuration("passwordResetTimeoutDelta"),
			DemoHosts:                 conf.GetStringSlice("demoHosts"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("databaseEngine"),
			Name:          conf.GetString("databaseName"),
			User:          conf.GetString("databaseUser"),
			Password:      conf.GetString("databasePassword"),
			AdminUser:     conf.GetString("databaseAdminUser"),
			AdminPassword: conf.GetString("databaseAdminPassword"),
			Host:          conf.GetString("databaseHost"),
			Port:          conf.GetString("databasePort"),
			DisableTLS:    conf.GetBool("databaseDisableTLS"),
		},
		Storage: StorageConfig{
			Endpoint:        conf.GetString("storageEndpoint"),
			AccessKeyID:     conf.GetString("storageAccessKeyId"),
			AccessKeySecret: conf.GetString("storageAccessKeySecret"),
			Bucket:          conf.GetString("storageBucket"),
		},
	}
	if err := c.check(); err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

func (c *Config) check() error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.AppName, "appName"),
		vala.StringNotEmpty(c.SecretKey, "secretKey"),
		vala.StringNotEmpty(c.Env, "env"),
		vala.StringNotEmpty(c.Server.Addr, "serverAddr"),
	).Check()
}
