// Package injector expande placeholders ${env.X}, ${ssm./caminho} e
// ${secret.nome} nos campos string de uma struct de configuração.
package injector

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Ex: ${env.API_KEY}, ${ssm./app/config}, ${secret.db_pass}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// ParameterGetter é o subconjunto do cliente SSM usado pelo Injector.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SecretGetter é o subconjunto do cliente Secrets Manager usado pelo Injector.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Injector resolve os placeholders. Os clientes AWS só são criados quando
// um placeholder ssm ou secret aparece.
type Injector struct {
	lookupEnv func(string) (string, bool)

	newSSM     func(ctx context.Context) (ParameterGetter, error)
	newSecrets func(ctx context.Context) (SecretGetter, error)

	ssm     ParameterGetter
	secrets SecretGetter
}

// Option customiza o Injector.
type Option func(*Injector)

// WithEnv troca a fonte de ${env.X} (default os.LookupEnv).
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(i *Injector) {
		i.lookupEnv = lookup
	}
}

// WithParameterStore usa client para ${ssm...}.
func WithParameterStore(client ParameterGetter) Option {
	return func(i *Injector) {
		i.ssm = client
	}
}

// WithSecretsManager usa client para ${secret...}.
func WithSecretsManager(client SecretGetter) Option {
	return func(i *Injector) {
		i.secrets = client
	}
}

func New(opts ...Option) *Injector {
	i := &Injector{
		lookupEnv: os.LookupEnv,
		newSSM: func(ctx context.Context) (ParameterGetter, error) {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, err
			}
			return ssm.NewFromConfig(cfg), nil
		},
		newSecrets: func(ctx context.Context) (SecretGetter, error) {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, err
			}
			return secretsmanager.NewFromConfig(cfg), nil
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inject percorre target (ponteiro para struct) substituindo os
// placeholders em strings, slices e mapas com chave string.
func (i *Injector) Inject(ctx context.Context, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target deve ser um ponteiro para struct não nulo")
	}
	return i.injectValue(ctx, v.Elem())
}

func (i *Injector) injectValue(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		for k := 0; k < v.NumField(); k++ {
			field := v.Field(k)
			if !field.CanSet() {
				continue
			}
			if err := i.injectValue(ctx, field); err != nil {
				return fmt.Errorf("%s: %w", v.Type().Field(k).Name, err)
			}
		}

	case reflect.String:
		if !v.CanSet() {
			return nil
		}
		out, err := i.interpolate(ctx, v.String())
		if err != nil {
			return err
		}
		v.SetString(out)

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectValue(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectValue(ctx, v.Index(j)); err != nil {
				return err
			}
		}

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String || v.IsNil() {
			return nil
		}
		return i.injectMap(ctx, v)
	}
	return nil
}

// injectMap trata mapas dinâmicos (ex: Options vindas do YAML). Os valores
// não são endereçáveis, então as trocas são aplicadas depois da iteração.
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	updates := make(map[string]reflect.Value)

	iter := v.MapRange()
	for iter.Next() {
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}

		switch elem.Kind() {
		case reflect.String:
			out, err := i.interpolate(ctx, elem.String())
			if err != nil {
				return fmt.Errorf("%s: %w", iter.Key().String(), err)
			}
			if out != elem.String() {
				updates[iter.Key().String()] = reflect.ValueOf(out).Convert(v.Type().Elem())
			}
		case reflect.Map:
			if elem.Type().Key().Kind() == reflect.String && !elem.IsNil() {
				if err := i.injectMap(ctx, elem); err != nil {
					return fmt.Errorf("%s: %w", iter.Key().String(), err)
				}
			}
		case reflect.Slice:
			for j := 0; j < elem.Len(); j++ {
				item := elem.Index(j)
				if item.Kind() == reflect.Interface {
					s, ok := item.Interface().(string)
					if !ok {
						continue
					}
					out, err := i.interpolate(ctx, s)
					if err != nil {
						return err
					}
					item.Set(reflect.ValueOf(out))
					continue
				}
				if err := i.injectValue(ctx, item); err != nil {
					return err
				}
			}
		}
	}

	for k, val := range updates {
		v.SetMapIndex(reflect.ValueOf(k).Convert(v.Type().Key()), val)
	}
	return nil
}

// interpolate substitui cada placeholder de input pelo valor resolvido.
func (i *Injector) interpolate(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		sub := pattern.FindStringSubmatch(match)

		val, resolveErr := i.fetchValue(ctx, sub[1], sub[2])
		if resolveErr != nil {
			err = resolveErr
			return match
		}
		return val
	})

	return result, err
}

func (i *Injector) fetchValue(ctx context.Context, source, key string) (string, error) {
	switch source {
	case "env":
		val, _ := i.lookupEnv(key)
		return val, nil

	case "ssm":
		if i.ssm == nil {
			client, err := i.newSSM(ctx)
			if err != nil {
				return "", fmt.Errorf("cliente SSM: %w", err)
			}
			i.ssm = client
		}
		out, err := i.ssm.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(key),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return "", fmt.Errorf("erro no SSM GetParameter (%s): %w", key, err)
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			return "", fmt.Errorf("parâmetro SSM '%s' sem valor", key)
		}
		return *out.Parameter.Value, nil

	case "secret":
		if i.secrets == nil {
			client, err := i.newSecrets(ctx)
			if err != nil {
				return "", fmt.Errorf("cliente SecretsManager: %w", err)
			}
			i.secrets = client
		}
		out, err := i.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(key),
		})
		if err != nil {
			return "", fmt.Errorf("erro no SecretsManager (%s): %w", key, err)
		}
		if out.SecretString == nil {
			return "", fmt.Errorf("secret '%s' sem SecretString", key)
		}
		return *out.SecretString, nil
	}

	return "", fmt.Errorf("fonte de placeholder desconhecida: %s", source)
}
