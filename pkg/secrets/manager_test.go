package secrets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/jordanlanch/salescrm/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSource_Backends(t *testing.T) {
	src, err := NewSource(Config{Backend: "env"})
	require.NoError(t, err)
	assert.IsType(t, EnvSource{}, src)

	_, err = NewSource(Config{Backend: "vault"})
	assert.Error(t, err)
}

func TestEnvSource(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")

	v, err := EnvSource{}.GetSecret(context.Background(), "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = EnvSource{}.GetSecret(context.Background(), "SALESCRM_MISSING_SECRET")
	assert.ErrorIs(t, err, ErrNotFound)
}

// fakeSecretsManager answers GetSecretValue calls the way the AWS JSON
// protocol does.
func fakeSecretsManager(t *testing.T, values map[string]string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "secretsmanager.GetSecretValue", r.Header.Get("X-Amz-Target"))

		var in struct{ SecretId string }
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&in)) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		value, ok := values[in.SecretId]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"__type":  "ResourceNotFoundException",
				"message": "Secrets Manager can't find the specified secret.",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"Name": in.SecretId, "SecretString": value})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAWSSource(t *testing.T, srv *httptest.Server) *AWSSource {
	t.Helper()
	src, err := NewAWSSource(Config{
		AWSRegion:   "us-east-1",
		AWSEndpoint: srv.URL,
		Prefix:      "salescrm/",
		Credentials: credentials.NewStaticCredentials("AKID", "SECRET", ""),
	})
	require.NoError(t, err)
	return src
}

func TestAWSSource_GetSecretCaches(t *testing.T) {
	var calls int32
	srv := fakeSecretsManager(t, map[string]string{"salescrm/JWT_SECRET": "from-aws"}, &calls)
	src := newAWSSource(t, srv)
	ctx := context.Background()

	v, err := src.GetSecret(ctx, "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-aws", v)

	v, err = src.GetSecret(ctx, "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-aws", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = src.GetSecret(ctx, "DATABASE_URL")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApply_OverlaysFoundSecrets(t *testing.T) {
	var calls int32
	srv := fakeSecretsManager(t, map[string]string{
		"salescrm/JWT_SECRET":       "from-aws",
		"salescrm/SENDGRID_API_KEY": "SG.from-aws",
	}, &calls)

	cfg := &config.Config{
		JWTSecret:   "from-env",
		DatabaseURL: "postgres://localhost/salescrm",
	}
	require.NoError(t, Apply(context.Background(), newAWSSource(t, srv), cfg))

	assert.Equal(t, "from-aws", cfg.JWTSecret)
	assert.Equal(t, "SG.from-aws", cfg.SendGridAPIKey)
	assert.Equal(t, "postgres://localhost/salescrm", cfg.DatabaseURL)
}
