package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Uploads
		Auth
		Reader
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Uploads struct {
		Dir string
	}
	Auth struct {
		JWTSecret      string
		TokenExpiry    time.Duration
		BcryptCost     int
		GoogleClientID string
	}
	Reader struct {
		SaveInterval     time.Duration // periodic progress-save fallback
		LocationSamples  int           // slices in the position-to-percentage index
		LocalLibraryPath string        // on-device store for unauthenticated sessions
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", "./data.db")
	v.SetDefault("upload_dir", "./data/uploads")

	// Auth defaults
	v.SetDefault("jwt_secret", "")          // required in serve mode
	v.SetDefault("auth_token_expiry", "1h") // bearer token lifetime
	v.SetDefault("auth_bcrypt_cost", 10)    // bcrypt cost factor
	v.SetDefault("google_client_id", "")    // empty disables Google login

	// Reader defaults
	v.SetDefault("reader_save_interval", "60s")
	v.SetDefault("reader_location_samples", 1000)
	v.SetDefault("local_library_path", "./data/library.db")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Uploads: Uploads{
			Dir: v.GetString("UPLOAD_DIR"),
		},
		Auth: Auth{
			JWTSecret:      v.GetString("JWT_SECRET"),
			TokenExpiry:    v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:     v.GetInt("AUTH_BCRYPT_COST"),
			GoogleClientID: v.GetString("GOOGLE_CLIENT_ID"),
		},
		Reader: Reader{
			SaveInterval:     v.GetDuration("READER_SAVE_INTERVAL"),
			LocationSamples:  v.GetInt("READER_LOCATION_SAMPLES"),
			LocalLibraryPath: v.GetString("LOCAL_LIBRARY_PATH"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
