package config

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/raywall/fast-dispatch-toolkit/apimiddleware"
	"github.com/raywall/fast-dispatch-toolkit/pkg/config/injector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockS3 struct {
	GetObjectFunc func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.GetObjectFunc(ctx, params, optFns...)
}

type mockDynamo struct {
	GetItemFunc func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return m.GetItemFunc(ctx, params, optFns...)
}

type mockSecrets struct {
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func (m *mockSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return m.GetSecretValueFunc(ctx, params, optFns...)
}

func testLoader(environ ...string) *Loader {
	l := NewLoader()
	l.environ = func() []string { return environ }
	return l
}

const sampleYAML = `
version: "1.0"
service:
  name: "users-api"
logging:
  enabled: false
  level: "debug"
  format: "console"
fetch:
  base_url: "https://api.example.com"
  timeout: "2s"
middleware:
  action_types:
    start: "START"
  request_defaults:
    method: "POST"
    headers:
      x-api-key: "abc"
`

// --- Testes ---

func TestLoader_Load_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := testLoader().Load(context.Background(), "file://"+path)
	require.NoError(t, err)

	assert.Equal(t, "users-api", cfg.Service.Name)
	assert.False(t, cfg.Logging.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "https://api.example.com", cfg.Fetch.BaseURL)

	// Override parcial: apenas start muda
	assert.Equal(t, "START", cfg.Middleware.ActionTypes.Start)
	assert.Equal(t, apimiddleware.DefaultEndType, cfg.Middleware.ActionTypes.End)
	assert.Equal(t, apimiddleware.DefaultFailureType, cfg.Middleware.ActionTypes.Failure)
	assert.Equal(t, "POST", cfg.Middleware.RequestDefaults["method"])
}

func TestLoader_Load_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	l := testLoader(
		"APIMW_LOG_LEVEL=warn",
		"APIMW_MW_ACTION_FAILURE=REQUEST_FAILED",
		"APIMW_FETCH_TIMEOUT=5s",
		"UNRELATED=1",
	)

	cfg, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "REQUEST_FAILED", cfg.Middleware.ActionTypes.Failure)
	assert.Equal(t, "START", cfg.Middleware.ActionTypes.Start)
	assert.Equal(t, "5s", cfg.Fetch.Timeout)
}

func TestLoader_Load_Placeholders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: "1.0"
fetch:
  auth:
    token_url: "https://auth.example.com/token"
    client_id: "${env.OAUTH_CLIENT_ID}"
    client_secret: "${secret.apicall/oauth}"
middleware:
  request_defaults:
    headers:
      x-api-key: "${env.API_KEY}"
`), 0o600))

	l := testLoader("OAUTH_CLIENT_ID=apicall", "API_KEY=k-123", "APIMW_LOG_ENABLED=false")
	l.injector = injector.New(
		injector.WithEnv(l.lookupEnv),
		injector.WithSecretsManager(&mockSecrets{
			GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
				assert.Equal(t, "apicall/oauth", *params.SecretId)
				secret := "s3cr3t"
				return &secretsmanager.GetSecretValueOutput{SecretString: &secret}, nil
			},
		}),
	)

	cfg, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "apicall", cfg.Fetch.Auth.ClientID)
	assert.Equal(t, "s3cr3t", cfg.Fetch.Auth.ClientSecret)
	assert.Equal(t, map[string]any{"x-api-key": "k-123"}, cfg.Middleware.RequestDefaults["headers"])
	assert.False(t, cfg.Logging.Enabled)
}

func TestLoader_Load_PlaceholderError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nfetch:\n  user_agent: \"${secret.missing}\"\n"), 0o600))

	l := testLoader()
	l.injector = injector.New(injector.WithSecretsManager(&mockSecrets{
		GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			return nil, errors.New("ResourceNotFoundException")
		},
	}))

	_, err := l.Load(context.Background(), path)
	assert.ErrorContains(t, err, "ResourceNotFoundException")
}

func TestLoader_Load_EmptySource(t *testing.T) {
	cfg, err := testLoader().Load(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, apimiddleware.DefaultConfig().ActionTypes, cfg.Middleware.ActionTypes)
	assert.Equal(t, "30s", cfg.Fetch.Timeout)
}

func TestLoader_Load_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: [\n"), 0o600))

	_, err := testLoader().Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoader_Load_ValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1.0\"\nlogging:\n  level: loud\n"), 0o600))

	_, err := testLoader().Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoader_Load_S3(t *testing.T) {
	l := testLoader()
	l.newS3 = func(ctx context.Context) (S3Getter, error) {
		return &mockS3{
			GetObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				assert.Equal(t, "my-bucket", *params.Bucket)
				assert.Equal(t, "configs/svc.yaml", *params.Key)
				return &s3.GetObjectOutput{
					Body: io.NopCloser(strings.NewReader(sampleYAML)),
				}, nil
			},
		}, nil
	}

	cfg, err := l.Load(context.Background(), "s3://my-bucket/configs/svc.yaml")
	require.NoError(t, err)
	assert.Equal(t, "users-api", cfg.Service.Name)
}

func TestLoader_Load_S3ClientError(t *testing.T) {
	l := testLoader()
	l.newS3 = func(ctx context.Context) (S3Getter, error) {
		return nil, errors.New("no credentials")
	}

	_, err := l.Load(context.Background(), "s3://my-bucket/configs/svc.yaml")
	assert.ErrorContains(t, err, "no credentials")
}

func TestLoader_Load_Dynamo(t *testing.T) {
	l := testLoader()
	l.newDynamo = func(ctx context.Context) (DynamoGetter, error) {
		return &mockDynamo{
			GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
				assert.Equal(t, "ConfigTable", *params.TableName)
				key := params.Key["ServiceName"].(*types.AttributeValueMemberS).Value
				assert.Equal(t, "my-svc", key)

				return &dynamodb.GetItemOutput{
					Item: map[string]types.AttributeValue{
						"yaml_body": &types.AttributeValueMemberS{Value: sampleYAML},
					},
				}, nil
			},
		}, nil
	}

	// Tabela=ConfigTable, PK_Value=my-svc, PK_Name=ServiceName, Col=yaml_body
	cfg, err := l.Load(context.Background(), "dynamodb://ConfigTable/my-svc?pk=ServiceName&col=yaml_body")
	require.NoError(t, err)
	assert.Equal(t, "users-api", cfg.Service.Name)
}

func TestLoader_Load_DynamoItemNotFound(t *testing.T) {
	l := testLoader()
	l.newDynamo = func(ctx context.Context) (DynamoGetter, error) {
		return &mockDynamo{
			GetItemFunc: func(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
				return &dynamodb.GetItemOutput{}, nil
			},
		}, nil
	}

	_, err := l.Load(context.Background(), "dynamodb://ConfigTable/missing")
	assert.ErrorContains(t, err, "não encontrado")
}

func TestAppConfig_MiddlewareConfig(t *testing.T) {
	cfg := Default()
	cfg.Middleware.RequestDefaults = apimiddleware.Options{"method": "GET"}

	mw := cfg.MiddlewareConfig()
	mw.RequestDefaults["method"] = "DELETE"

	assert.Equal(t, "GET", cfg.Middleware.RequestDefaults["method"], "cópia não deve compartilhar o mapa")
}
