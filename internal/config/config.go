package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration, read from the environment.
type Config struct {
	ServerPort int    `envconfig:"SERVER_PORT" default:"8080"`
	JWTSecret  string `envconfig:"JWT_SECRET" required:"true"`

	// StoreDriver selects the persistence backend: "postgres" or "memory".
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// BlobDriver selects where file bytes live: "s3" or "memory".
	BlobDriver    string `envconfig:"BLOB_DRIVER" default:"s3"`
	AWSBucketName string `envconfig:"AWS_BUCKET_NAME"`
	AWSRegion     string `envconfig:"AWS_REGION"`

	// PurgeSchedule is a cron expression for the expired-record sweep.
	// Purging is housekeeping only; expiry is enforced at evaluation time
	// whether or not the sweep runs.
	PurgeSchedule string `envconfig:"PURGE_SCHEDULE" default:"@hourly"`

	// PurgeRetentionHours is how long expired records stay visible to the
	// owner's audit listings before the sweep deletes them.
	PurgeRetentionHours int `envconfig:"PURGE_RETENTION_HOURS" default:"720"`

	CORSAllowedOrigin string `envconfig:"CORS_ALLOWED_ORIGIN" default:"http://localhost:3000"`
}

// Load reads the configuration from environment variables.
func Load(cfg *Config) error {
	return envconfig.Process("", cfg)
}
