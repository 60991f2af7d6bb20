package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	ServerConfig struct {
		Host               string
		Addr               string
		SecretKey          string
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	SchedulerConfig struct {
		TickInterval time.Duration
	}

	// TranscriptionConfig drives the speech-to-text client.
	TranscriptionConfig struct {
		APIKey         string
		BaseURL        string
		RequestTimeout time.Duration
		PollInterval   time.Duration
		PollTimeout    time.Duration
	}

	// AnalysisConfig drives the generative comparison client.
	// Models are tried in order, most capable first.
	AnalysisConfig struct {
		APIKey         string
		BaseURL        string
		Models         []string
		RequestTimeout time.Duration
		ModelCooldown  time.Duration
	}

	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		AppName          string
		Build            string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string
		AudioDir         string

		Server        ServerConfig
		Database      DatabaseConfig
		Scheduler     SchedulerConfig
		Transcription TranscriptionConfig
		Analysis      AnalysisConfig
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func init() {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "w#4l1mu-p@k3e(ne&9vu^sh=ul3*28dar4s4kw4nz4^vyumba!")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("audioDir", filepath.Join(os.TempDir(), "darasa", "audio"))

	v.SetDefault("databaseEngine", "postgres")
	v.SetDefault("databaseName", "darasa")
	v.SetDefault("databaseHost", "localhost")
	v.SetDefault("databasePort", "5432")
	v.SetDefault("databaseDisableTLS", true)

	v.SetDefault("schedulerTickInterval", time.Minute)

	v.SetDefault("transcriptionBaseURL", "https://api.assemblyai.com/v2")
	v.SetDefault("transcriptionRequestTimeout", 30*time.Second)
	v.SetDefault("transcriptionPollInterval", 3*time.Second)
	v.SetDefault("transcriptionPollTimeout", 180*time.Second)

	v.SetDefault("analysisBaseURL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("analysisModels", []string{
		"gemini-2.5-flash",
		"gemini-2.0-flash",
		"gemini-2.0-flash-exp",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
		"gemini-1.0-pro",
	})
	v.SetDefault("analysisRequestTimeout", 30*time.Second)
	v.SetDefault("analysisModelCooldown", 500*time.Millisecond)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		AppName:          v.GetString("appName"),
		Build:            v.GetString("build"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		AudioDir:         v.GetString("audioDir"),
		Server: ServerConfig{
			Host:               v.GetString("serverHost"),
			Addr:               v.GetString("serverAddr"),
			SecretKey:          v.GetString("secretKey"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("databaseEngine"),
			Name:          v.GetString("databaseName"),
			Host:          v.GetString("databaseHost"),
			Port:          v.GetString("databasePort"),
			User:          v.GetString("databaseUser"),
			Password:      v.GetString("databasePassword"),
			AdminUser:     v.GetString("databaseAdminUser"),
			AdminPassword: v.GetString("databaseAdminPassword"),
			DisableTLS:    v.GetBool("databaseDisableTLS"),
		},
		Scheduler: SchedulerConfig{
			TickInterval: v.GetDuration("schedulerTickInterval"),
		},
		Transcription: TranscriptionConfig{
			APIKey:         v.GetString("assemblyAIApiKey"),
			BaseURL:        v.GetString("transcriptionBaseURL"),
			RequestTimeout: v.GetDuration("transcriptionRequestTimeout"),
			PollInterval:   v.GetDuration("transcriptionPollInterval"),
			PollTimeout:    v.GetDuration("transcriptionPollTimeout"),
		},
		Analysis: AnalysisConfig{
			APIKey:         v.GetString("geminiApiKey"),
			BaseURL:        v.GetString("analysisBaseURL"),
			Models:         v.GetStringSlice("analysisModels"),
			RequestTimeout: v.GetDuration("analysisRequestTimeout"),
			ModelCooldown:  v.GetDuration("analysisModelCooldown"),
		},
	}
}
