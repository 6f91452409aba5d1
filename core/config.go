package core

import (
	"fmt"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ReadTimeout        time.Duration
		WriteTimeout       time.Duration
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		DisableReqLogs     bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | bolt
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // bolt file
	}

	EventsConfig struct {
		SNSTopicARN string
		AWSRegion   string
	}

	ReminderConfig struct {
		Schedule string
		Window   time.Duration
	}

	Config struct {
		Env              string
		Build            string
		AppName          string
		Debug            bool
		TestMode         bool
		SecretKey        string
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string
		Server           ServerConfig
		Database         DatabaseConfig
		Events           EventsConfig
		Reminder         ReminderConfig
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func (c *Config) DefaultFrom() mail.Address {
	addr, err := mail.ParseAddress(c.DefaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
	}
	return *addr
}

// Validate checks the settings that have no usable default outside of DEV.
func (c *Config) Validate() error {
	checks := []vala.Checker{
		vala.StringNotEmpty(c.AppName, "appName"),
		vala.StringNotEmpty(c.Database.Engine, "database.engine"),
	}
	if !c.Debug {
		checks = append(checks,
			vala.StringNotEmpty(c.SecretKey, "secretKey"),
			vala.StringNotEmpty(c.Server.Address, "server.address"),
		)
		if c.Database.Engine == "postgres" {
			checks = append(checks, vala.StringNotEmpty(c.Database.Name, "database.name"))
		}
	}
	if err := vala.BeginValidation().Validate(checks...).Check(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	switch c.Database.Engine {
	case "postgres", "bolt":
	default:
		return fmt.Errorf("invalid configuration: unknown database engine %q", c.Database.Engine)
	}
	return nil
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` and the environment.
// ENV selects the environment: DEV (local; default), TEST, QA, PROD.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Masomo")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("defaultFromEmail", "Masomo <noreply@localhost>")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "bolt")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "masomo")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", filepath.Join("data", "masomo.db"))

	v.SetDefault("events.snsTopicARN", "")
	v.SetDefault("events.awsRegion", "us-east-1")

	v.SetDefault("reminder.schedule", "0 7 * * *")
	v.SetDefault("reminder.window", 24*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd, err := Getwd()
	if err != nil {
		return nil, err
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err = os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ReadTimeout:        v.GetDuration("server.readTimeout"),
			WriteTimeout:       v.GetDuration("server.writeTimeout"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          v.GetString("database.path"),
		},
		Events: EventsConfig{
			SNSTopicARN: v.GetString("events.snsTopicARN"),
			AWSRegion:   v.GetString("events.awsRegion"),
		},
		Reminder: ReminderConfig{
			Schedule: v.GetString("reminder.schedule"),
			Window:   v.GetDuration("reminder.window"),
		},
	}
	if err = conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
