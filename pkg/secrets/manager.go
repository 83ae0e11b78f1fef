// Package secrets resolves credentials from the environment or AWS Secrets
// Manager and overlays them on the loaded configuration.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/jordanlanch/salescrm/config"
)

// ErrNotFound is returned when a secret does not exist in the backend.
var ErrNotFound = errors.New("secret not found")

// Source resolves secrets by name.
type Source interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// Config holds secrets backend configuration
type Config struct {
	Backend       string // "env" or "aws"
	AWSRegion     string
	AWSEndpoint   string // overrides the service endpoint, e.g. for LocalStack
	Prefix        string // prepended to every secret id in AWS
	CacheDuration time.Duration
	// Credentials overrides the default AWS credential chain.
	Credentials *credentials.Credentials
}

// NewSource creates the configured backend.
func NewSource(cfg Config) (Source, error) {
	switch cfg.Backend {
	case "", "env", "environment":
		return EnvSource{}, nil
	case "aws", "aws-secrets-manager":
		return NewAWSSource(cfg)
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Backend)
	}
}

// EnvSource reads secrets from environment variables.
type EnvSource struct{}

// GetSecret returns the variable named key.
func (EnvSource) GetSecret(_ context.Context, key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return value, nil
}

// AWSSource loads secrets from AWS Secrets Manager with a per-key cache.
type AWSSource struct {
	client *secretsmanager.SecretsManager
	prefix string
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewAWSSource creates a Secrets Manager client.
func NewAWSSource(cfg Config) (*AWSSource, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.AWSRegion)}
	if cfg.AWSEndpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.AWSEndpoint)
	}
	if cfg.Credentials != nil {
		awsCfg.Credentials = cfg.Credentials
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	ttl := cfg.CacheDuration
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &AWSSource{
		client: secretsmanager.New(sess),
		prefix: cfg.Prefix,
		ttl:    ttl,
		cache:  make(map[string]cachedSecret),
	}, nil
}

// GetSecret fetches prefix+key, serving repeats from the cache until they expire.
func (m *AWSSource) GetSecret(ctx context.Context, key string) (string, error) {
	id := m.prefix + key

	m.mu.Lock()
	cached, ok := m.cache[id]
	m.mu.Unlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.value, nil
	}

	result, err := m.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return "", fmt.Errorf("failed to get secret %s: %w", id, err)
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", id)
	}

	m.mu.Lock()
	m.cache[id] = cachedSecret{value: *result.SecretString, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()

	return *result.SecretString, nil
}

// Apply overlays the credentials in cfg with values from src. Secrets the
// backend does not have keep their configured value.
func Apply(ctx context.Context, src Source, cfg *config.Config) error {
	fields := []struct {
		key string
		dst *string
	}{
		{"JWT_SECRET", &cfg.JWTSecret},
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"REDIS_URL", &cfg.RedisURL},
		{"SENDGRID_API_KEY", &cfg.SendGridAPIKey},
	}

	for _, f := range fields {
		value, err := src.GetSecret(ctx, f.key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		*f.dst = value
	}
	return nil
}
