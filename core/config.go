package core

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		DisableReqLogs     bool
	}

	DatabaseConfig struct {
		Engine        string // memory | badger | postgres
		Name          string
		User          string
		Password      string
		Host          string
		Port          int
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		BadgerPath    string
	}

	EnrollmentConfig struct {
		MaxPerSemester int
		RetakePolicy   string // never | unless_failed
	}

	GradingConfig struct {
		DefaultMaxScore int
	}

	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Database     DatabaseConfig
		Enrollment   EnrollmentConfig
		Grading      GradingConfig
	}
)

// Address returns the "host:port" of the database server.
func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Academia")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "memory")
	v.SetDefault("database.name", "academia")
	v.SetDefault("database.user", "academia")
	v.SetDefault("database.password", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.badgerPath", "data/badger")

	v.SetDefault("enrollment.maxPerSemester", 6)
	v.SetDefault("enrollment.retakePolicy", "never")

	v.SetDefault("grading.defaultMaxScore", DefaultMaxScore)
}

// DefaultMaxScore is used when neither the assignment nor the configuration set one.
const DefaultMaxScore = 20

// MaxScore is the configured default maximum score, falling back to DefaultMaxScore.
func (c GradingConfig) MaxScore() int {
	if c.DefaultMaxScore <= 0 {
		return DefaultMaxScore
	}
	return c.DefaultMaxScore
}

// NewConfig loads the application configuration from defaults, `config/.env.<env>` (if it exists)
// and the environment. ENV selects the environment: DEV (default), TEST, QA or PROD.
// Environment variables are prefixed with the environment name, eg. PROD_DATABASE.ENGINE.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return configFromViper(v, env)
}

func configFromViper(v *viper.Viper, env string) *Config {
	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			BadgerPath:    v.GetString("database.badgerPath"),
		},
		Enrollment: EnrollmentConfig{
			MaxPerSemester: v.GetInt("enrollment.maxPerSemester"),
			RetakePolicy:   v.GetString("enrollment.retakePolicy"),
		},
		Grading: GradingConfig{
			DefaultMaxScore: v.GetInt("grading.defaultMaxScore"),
		},
	}
}

// NewTestConfig returns the default configuration with test mode on.
func NewTestConfig() *Config {
	v := viper.New()
	setDefaults(v)
	v.Set("testMode", true)
	v.Set("secretKey", "secret")
	return configFromViper(v, "TEST")
}

func (conf *Config) String() string {
	return fmt.Sprintf("%s [%s] build=%s db=%s", conf.AppName, conf.Env, conf.Build, conf.Database.Engine)
}
