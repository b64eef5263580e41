package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv exports the variables of path into the process environment
// without overriding ones already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

type envBinding struct {
	name string
	set  func(c *Config, v string) error
}

func str(dst func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func dur(dst func(c *Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var envBindings = []envBinding{
	{"EV_HTTP_ADDR", str(func(c *Config) *string { return &c.EndpointAddrHTTP })},
	{"EV_GRPC_ADDR", str(func(c *Config) *string { return &c.EndpointAddrGRPC })},
	{"EV_DATABASE_DSN", str(func(c *Config) *string { return &c.DatabaseDSN })},
	{"EV_SECRET_KEY", str(func(c *Config) *string { return &c.SecretKey })},
	{"EV_ACCESS_TOKEN_TTL", dur(func(c *Config) *time.Duration { return &c.AccessTokenValidityDuration })},
	{"EV_REFRESH_TOKEN_TTL", dur(func(c *Config) *time.Duration { return &c.RefreshTokenValidityDuration })},
	{"EV_REDIS_URL", str(func(c *Config) *string { return &c.RedisURL })},
	{"EV_DRAFT_TTL", dur(func(c *Config) *time.Duration { return &c.DraftTTL })},
	{"EV_BLOB_BACKEND", str(func(c *Config) *string { return &c.BlobBackend })},
	{"EV_PRESIGN_TTL", dur(func(c *Config) *time.Duration { return &c.PresignTTL })},
	{"EV_S3_ROOT_USER", str(func(c *Config) *string { return &c.S3RootUser })},
	{"EV_S3_ROOT_PASSWORD", str(func(c *Config) *string { return &c.S3RootPassword })},
	{"EV_S3_BUCKET", str(func(c *Config) *string { return &c.S3Bucket })},
	{"EV_S3_REGION", str(func(c *Config) *string { return &c.S3Region })},
	{"EV_S3_BASE_ENDPOINT", str(func(c *Config) *string { return &c.S3BaseEndpoint })},
	{"EV_CLOUDINARY_CLOUD_NAME", str(func(c *Config) *string { return &c.CloudinaryCloudName })},
	{"EV_CLOUDINARY_API_KEY", str(func(c *Config) *string { return &c.CloudinaryAPIKey })},
	{"EV_CLOUDINARY_API_SECRET", str(func(c *Config) *string { return &c.CloudinaryAPISecret })},
	{"EV_CLOUDINARY_FOLDER", str(func(c *Config) *string { return &c.CloudinaryFolder })},
	{"EV_CORS_ALLOWED_ORIGINS", func(c *Config, v string) error {
		c.CORSAllowedOrigins = splitList(v)
		return nil
	}},
	{"EV_MEDIA_CAPTURE_ENABLED", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.MediaCaptureEnabled = b
		return nil
	}},
	{"EV_RECORDING_CEILING", dur(func(c *Config) *time.Duration { return &c.RecordingCeiling })},
	{"EV_MAX_UPLOAD_BYTES", func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.MaxUploadBytes = n
		return nil
	}},
	{"EV_WIZARD_LAYOUT", str(func(c *Config) *string { return &c.WizardLayout })},
	{"EV_HEALTH_CHECK_INTERVAL", dur(func(c *Config) *time.Duration { return &c.HealthCheckInterval })},
	{"EV_LOG_LEVEL", str(func(c *Config) *string { return &c.LogLevel })},
	{"EV_LOG_FORMAT", str(func(c *Config) *string { return &c.LogFormat })},
}

// parseEnv applies every EV_* variable lookup reports as set.
func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	for _, b := range envBindings {
		v, ok := lookup(b.name)
		if !ok {
			continue
		}
		if err := b.set(c, v); err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
	}
	return nil
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
