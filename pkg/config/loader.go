package config

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caarlos0/env/v11"
	"github.com/raywall/fast-dispatch-toolkit/pkg/config/injector"
	"gopkg.in/yaml.v3"
)

// S3Getter é o subconjunto do cliente S3 usado pelo Loader (permite Mocking).
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// DynamoGetter é o subconjunto do cliente DynamoDB usado pelo Loader.
type DynamoGetter interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Loader lê o AppConfig de um arquivo local, de um objeto S3 ou de um item
// DynamoDB, resolve os placeholders ${env|ssm|secret.X}, aplica as
// variáveis de ambiente e valida o resultado.
//
// Fontes suportadas:
//   - "config.yaml" ou "file://config.yaml"
//   - "s3://bucket/caminho/config.yaml"
//   - "dynamodb://tabela/chave?pk=id&col=config"
type Loader struct {
	validator *ConfigValidator
	environ   func() []string
	injector  *injector.Injector

	// Fábricas dos clientes AWS; substituídas nos testes.
	newS3     func(ctx context.Context) (S3Getter, error)
	newDynamo func(ctx context.Context) (DynamoGetter, error)
}

// NewLoader cria um Loader com clientes AWS carregados da configuração
// padrão do SDK (variáveis de ambiente, profile, IMDS).
func NewLoader() *Loader {
	l := &Loader{
		validator: NewValidator(),
		environ:   os.Environ,
		newS3: func(ctx context.Context) (S3Getter, error) {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, err
			}
			return s3.NewFromConfig(cfg), nil
		},
		newDynamo: func(ctx context.Context) (DynamoGetter, error) {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, err
			}
			return dynamodb.NewFromConfig(cfg), nil
		},
	}
	l.injector = injector.New(injector.WithEnv(l.lookupEnv))
	return l
}

// Load é o atalho usado pelos binários: NewLoader().Load.
func Load(ctx context.Context, source string) (*AppConfig, error) {
	return NewLoader().Load(ctx, source)
}

// Load lê a fonte e retorna a configuração validada. Uma fonte vazia
// resulta na configuração padrão sobreposta pelas variáveis de ambiente.
func (l *Loader) Load(ctx context.Context, source string) (*AppConfig, error) {
	cfg := Default()

	if source != "" {
		data, err := l.read(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("falha leitura config (%s): %w", source, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("YAML malformado: %w", err)
		}
		if err := l.injector.Inject(ctx, &cfg); err != nil {
			return nil, fmt.Errorf("falha ao resolver placeholders: %w", err)
		}
	}

	if err := l.applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := l.validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validação da configuração falhou: %w", err)
	}

	return &cfg, nil
}

// lookupEnv resolve ${env.X} com a mesma fonte usada pelo overlay APIMW_*.
func (l *Loader) lookupEnv(key string) (string, bool) {
	prefix := key + "="
	for _, kv := range l.environ() {
		if strings.HasPrefix(kv, prefix) {
			return kv[len(prefix):], true
		}
	}
	return "", false
}

func (l *Loader) applyEnv(cfg *AppConfig) error {
	environ := make(map[string]string)
	for _, kv := range l.environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "s3://"):
		client, err := l.newS3(ctx)
		if err != nil {
			return nil, fmt.Errorf("cliente S3: %w", err)
		}
		return readS3(ctx, client, source)

	case strings.HasPrefix(source, "dynamodb://"):
		client, err := l.newDynamo(ctx)
		if err != nil {
			return nil, fmt.Errorf("cliente DynamoDB: %w", err)
		}
		return readDynamo(ctx, client, source)

	default:
		return os.ReadFile(strings.TrimPrefix(source, "file://"))
	}
}

func readS3(ctx context.Context, client S3Getter, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL S3 inválida: %w", err)
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func readDynamo(ctx context.Context, client DynamoGetter, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("URL DynamoDB inválida: %w", err)
	}

	table := u.Host
	pkValue := strings.TrimPrefix(u.Path, "/")

	column := u.Query().Get("col")
	if column == "" {
		column = "config"
	}
	pkName := u.Query().Get("pk")
	if pkName == "" {
		pkName = "id"
	}

	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			pkName: &types.AttributeValueMemberS{Value: pkValue},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("item '%s' não encontrado na tabela '%s'", pkValue, table)
	}

	var item map[string]interface{}
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}

	content, ok := item[column].(string)
	if !ok {
		return nil, fmt.Errorf("coluna '%s' inválida ou vazia no DynamoDB", column)
	}

	return []byte(content), nil
}
