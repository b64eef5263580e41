package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/flagx"
	"github.com/dmitrijs2005/eternalvault/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Pointer fields distinguish an
// absent key from a zero value so a file only overrides what it names.
// Durations accept "90s" strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	RedisURL                     *string         `json:"redis_url"`
	DraftTTL                     *timex.Duration `json:"draft_ttl"`
	BlobBackend                  *string         `json:"blob_backend"`
	PresignTTL                   *timex.Duration `json:"presign_ttl"`
	S3RootUser                   *string         `json:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
	CloudinaryCloudName          *string         `json:"cloudinary_cloud_name"`
	CloudinaryAPIKey             *string         `json:"cloudinary_api_key"`
	CloudinaryAPISecret          *string         `json:"cloudinary_api_secret"`
	CloudinaryFolder             *string         `json:"cloudinary_folder"`
	CORSAllowedOrigins           []string        `json:"cors_allowed_origins"`
	MediaCaptureEnabled          *bool           `json:"media_capture_enabled"`
	RecordingCeiling             *timex.Duration `json:"recording_ceiling"`
	MaxUploadBytes               *int64          `json:"max_upload_bytes"`
	WizardLayout                 *string         `json:"wizard_layout"`
	HealthCheckInterval          *timex.Duration `json:"health_check_interval"`
	LogLevel                     *string         `json:"log_level"`
	LogFormat                    *string         `json:"log_format"`
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDur(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

// parseJSON overlays the file named by -c/-config in args. Without the flag
// nothing is loaded.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setStr(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setStr(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setStr(&config.DatabaseDSN, c.DatabaseDSN)
	setStr(&config.SecretKey, c.SecretKey)
	setStr(&config.RedisURL, c.RedisURL)
	setStr(&config.BlobBackend, c.BlobBackend)
	setStr(&config.S3RootUser, c.S3RootUser)
	setStr(&config.S3RootPassword, c.S3RootPassword)
	setStr(&config.S3Bucket, c.S3Bucket)
	setStr(&config.S3Region, c.S3Region)
	setStr(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setStr(&config.CloudinaryCloudName, c.CloudinaryCloudName)
	setStr(&config.CloudinaryAPIKey, c.CloudinaryAPIKey)
	setStr(&config.CloudinaryAPISecret, c.CloudinaryAPISecret)
	setStr(&config.CloudinaryFolder, c.CloudinaryFolder)
	setStr(&config.WizardLayout, c.WizardLayout)
	setStr(&config.LogLevel, c.LogLevel)
	setStr(&config.LogFormat, c.LogFormat)

	setDur(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDur(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDur(&config.DraftTTL, c.DraftTTL)
	setDur(&config.PresignTTL, c.PresignTTL)
	setDur(&config.RecordingCeiling, c.RecordingCeiling)
	setDur(&config.HealthCheckInterval, c.HealthCheckInterval)

	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	if c.MediaCaptureEnabled != nil {
		config.MediaCaptureEnabled = *c.MediaCaptureEnabled
	}
	if c.MaxUploadBytes != nil {
		config.MaxUploadBytes = *c.MaxUploadBytes
	}
	return nil
}
