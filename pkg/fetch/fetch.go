package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raywall/fast-dispatch-toolkit/apimiddleware"
	"github.com/raywall/fast-dispatch-toolkit/pkg/config"
	"github.com/rs/zerolog"
)

// Chaves de Options reconhecidas pelo Client.
const (
	OptMethod  = "method"
	OptHeaders = "headers"
	OptBody    = "body"
	OptQuery   = "query"
	OptTimeout = "timeout"
)

// HTTPDoer permite mockar o cliente HTTP nos testes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource fornece o bearer token enviado em cada requisição.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// HTTPError é retornado quando o destino responde com status >= 400.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d: %s", e.StatusCode, string(e.Body))
}

// Response é a resposta bruta do destino. Ela implementa
// apimiddleware.Decoder, portanto o middleware a decodifica antes de chamar
// OnSuccess.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// JSON decodifica o corpo da resposta.
//
// Corpo vazio resulta em nil. Corpos que não são exatamente um valor JSON
// (inclusive com dados sobrando após o valor) são devolvidos como string, a
// menos que o Content-Type declare JSON; nesse caso o erro é retornado.
func (r *Response) JSON(ctx context.Context) (any, error) {
	if len(r.Body) == 0 {
		return nil, nil
	}

	// Usar Decoder com UseNumber para manter inteiros como inteiros
	var result any
	decoder := json.NewDecoder(bytes.NewReader(r.Body))
	decoder.UseNumber()

	err := decoder.Decode(&result)
	if err == nil {
		// o corpo inteiro precisa ser um único valor JSON
		if _, extra := decoder.Token(); extra != io.EOF {
			err = fmt.Errorf("dados após o valor JSON no offset %d", decoder.InputOffset())
		} else {
			return result, nil
		}
	}
	if strings.Contains(r.Headers["Content-Type"], "json") {
		return nil, fmt.Errorf("erro ao decodificar resposta JSON: %w", err)
	}
	return string(r.Body), nil
}

// Client é uma RequestFunc HTTP no estilo fetch.
type Client struct {
	doer      HTTPDoer
	baseURL   string
	userAgent string
	timeout   time.Duration
	tokens    TokenSource
}

// New cria um Client com um http.Client próprio.
func New(cfg config.FetchConf) *Client {
	return NewWithDoer(cfg, &http.Client{})
}

// NewWithDoer cria um Client que executa as requisições via doer.
func NewWithDoer(cfg config.FetchConf, doer HTTPDoer) *Client {
	return &Client{
		doer:      doer,
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		timeout:   cfg.GetTimeout(),
	}
}

// WithTokenSource faz o Client enviar "Authorization: Bearer <token>".
// Um header authorization nas opções da action tem precedência.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	c.tokens = ts
	return c
}

// Request executa a requisição descrita por target e opts e devolve uma
// resposta Raw.
//
// Opções reconhecidas:
//   - method: método HTTP (default GET).
//   - headers: map[string]string ou map[string]any.
//   - body: string, []byte ou qualquer valor serializável em JSON.
//   - query: parâmetros de query string (map[string]string ou map[string]any).
//   - timeout: string de duração ("500ms") ou time.Duration.
//
// Erros:
//   - *HTTPError: o destino respondeu com status >= 400.
//   - erros de rede, timeout e de montagem da requisição.
func (c *Client) Request(ctx context.Context, target string, opts apimiddleware.Options) (apimiddleware.Response, error) {
	start := time.Now()

	timeout, err := c.resolveTimeout(opts[OptTimeout])
	if err != nil {
		return nil, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL, err := c.resolveURL(target, opts[OptQuery])
	if err != nil {
		return nil, err
	}

	method := http.MethodGet
	if m, ok := opts[OptMethod].(string); ok && m != "" {
		method = strings.ToUpper(m)
	}

	body, isJSON, err := encodeBody(opts[OptBody])
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(reqCtx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("erro ao obter token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range stringMap(opts[OptHeaders]) {
		req.Header.Set(k, v)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("falha na conexão com target (%s): %w", fullURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler resposta do target: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("method", method).
		Str("target", fullURL).
		Int("status", resp.StatusCode).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("fetch completed")

	if resp.StatusCode >= 400 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: respBody}
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return apimiddleware.Raw(&Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       respBody,
	}), nil
}

// resolveTimeout aceita apenas durações positivas, como fetch.timeout.
func (c *Client) resolveTimeout(v any) (time.Duration, error) {
	var d time.Duration
	switch t := v.(type) {
	case nil:
		return c.timeout, nil
	case time.Duration:
		d = t
	case string:
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("timeout inválido '%s': %w", t, err)
		}
		d = parsed
	default:
		return 0, fmt.Errorf("timeout com tipo não suportado: %T", v)
	}

	if d <= 0 {
		return 0, fmt.Errorf("timeout deve ser positivo: %s", d)
	}
	return d, nil
}

func (c *Client) resolveURL(target string, query any) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("url inválida '%s': %w", target, err)
	}
	if !u.IsAbs() && c.baseURL != "" {
		u, err = url.Parse(c.baseURL + "/" + strings.TrimPrefix(target, "/"))
		if err != nil {
			return "", fmt.Errorf("url inválida '%s': %w", target, err)
		}
	}

	params := stringMap(query)
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// encodeBody prepara o corpo; isJSON indica que o valor foi serializado.
func encodeBody(body any) (io.Reader, bool, error) {
	switch b := body.(type) {
	case nil:
		return nil, false, nil
	case string:
		return strings.NewReader(b), false, nil
	case []byte:
		return bytes.NewReader(b), false, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, false, fmt.Errorf("erro ao codificar body: %w", err)
		}
		return bytes.NewReader(data), true, nil
	}
}

// stringMap aceita tanto map[string]string quanto map[string]any (vindo de YAML).
func stringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = fmt.Sprint(val)
		}
		return out
	case apimiddleware.Options:
		return stringMap(map[string]any(m))
	default:
		return nil
	}
}
