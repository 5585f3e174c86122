package injector_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/raywall/fast-dispatch-toolkit/pkg/config/injector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSSM struct {
	GetParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

func (m *mockSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	return m.GetParameterFunc(ctx, params, optFns...)
}

type mockSecrets struct {
	GetSecretValueFunc func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

func (m *mockSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return m.GetSecretValueFunc(ctx, params, optFns...)
}

type testConfig struct {
	APIKey      string
	Description string
	Tags        []string
	Meta        map[string]any
	Headers     map[string]string
	Nested      *nestedConfig
	hidden      string
}

type nestedConfig struct {
	URL string
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestInjector_Inject_Environment(t *testing.T) {
	inj := injector.New(injector.WithEnv(envMap(map[string]string{
		"API_KEY": "12345-abcde",
		"REGION":  "us-east-1",
		"DB_HOST": "localhost",
	})))

	target := &testConfig{
		APIKey:      "${env.API_KEY}",
		Description: "Service running in ${env.REGION}",
		Tags:        []string{"region:${env.REGION}"},
		Meta: map[string]any{
			"db_host": "${env.DB_HOST}",
			"timeout": 5000,
			"nested":  map[string]any{"region": "${env.REGION}"},
			"list":    []any{"${env.REGION}", 1},
		},
		Headers: map[string]string{"x-api-key": "${env.API_KEY}"},
		Nested:  &nestedConfig{URL: "https://${env.REGION}.api.com"},
		hidden:  "${env.API_KEY}",
	}

	require.NoError(t, inj.Inject(context.Background(), target))

	assert.Equal(t, "12345-abcde", target.APIKey)
	assert.Equal(t, "Service running in us-east-1", target.Description)
	assert.Equal(t, []string{"region:us-east-1"}, target.Tags)
	assert.Equal(t, "localhost", target.Meta["db_host"])
	assert.Equal(t, 5000, target.Meta["timeout"])
	assert.Equal(t, map[string]any{"region": "us-east-1"}, target.Meta["nested"])
	assert.Equal(t, []any{"us-east-1", 1}, target.Meta["list"])
	assert.Equal(t, "12345-abcde", target.Headers["x-api-key"])
	assert.Equal(t, "https://us-east-1.api.com", target.Nested.URL)
	assert.Equal(t, "${env.API_KEY}", target.hidden)
}

func TestInjector_Inject_AWS(t *testing.T) {
	inj := injector.New(
		injector.WithParameterStore(&mockSSM{
			GetParameterFunc: func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				assert.Equal(t, "/app/base_url", *params.Name)
				assert.True(t, *params.WithDecryption)
				return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String("https://api.local")}}, nil
			},
		}),
		injector.WithSecretsManager(&mockSecrets{
			GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
				assert.Equal(t, "oauth_secret", *params.SecretId)
				return &secretsmanager.GetSecretValueOutput{SecretString: aws.String("s3cr3t")}, nil
			},
		}),
	)

	target := &testConfig{
		APIKey:      "${secret.oauth_secret}",
		Description: "${ssm./app/base_url}/v1",
	}

	require.NoError(t, inj.Inject(context.Background(), target))
	assert.Equal(t, "s3cr3t", target.APIKey)
	assert.Equal(t, "https://api.local/v1", target.Description)
}

func TestInjector_Inject_Errors(t *testing.T) {
	t.Run("secret inexistente", func(t *testing.T) {
		boom := errors.New("ResourceNotFoundException")
		inj := injector.New(injector.WithSecretsManager(&mockSecrets{
			GetSecretValueFunc: func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
				return nil, boom
			},
		}))

		target := &testConfig{Headers: map[string]string{"authorization": "${secret.missing}"}}
		err := inj.Inject(context.Background(), target)
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "Headers")
	})

	t.Run("target inválido", func(t *testing.T) {
		err := injector.New().Inject(context.Background(), testConfig{})
		assert.Error(t, err)
	})
}
