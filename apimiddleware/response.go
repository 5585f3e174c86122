package apimiddleware

import (
	"context"
	"fmt"
)

// Response é o resultado de uma RequestFunc. A função declara qual variante
// produz: Decoded (payload pronto) ou Raw (exige decodificação explícita).
type Response interface {
	payload(ctx context.Context) (any, error)
}

// Decoder é implementado por respostas brutas que sabem se decodificar
// como JSON.
type Decoder interface {
	JSON(ctx context.Context) (any, error)
}

type decoded struct {
	value any
}

func (d decoded) payload(context.Context) (any, error) {
	return d.value, nil
}

type raw struct {
	decoder Decoder
}

func (r raw) payload(ctx context.Context) (any, error) {
	if r.decoder == nil {
		return nil, fmt.Errorf("apimiddleware: raw response without decoder")
	}
	return r.decoder.JSON(ctx)
}

// Decoded cria uma Response cujo payload é usado sem transformação.
func Decoded(v any) Response {
	return decoded{value: v}
}

// Raw cria uma Response que será decodificada via Decoder.JSON antes de
// chegar a OnSuccess.
func Raw(d Decoder) Response {
	return raw{decoder: d}
}

// Resolve normaliza a Response no payload final: Decoded é usado como está e
// Raw passa por Decoder.JSON. Uma Response nil equivale a Decoded(nil).
func Resolve(ctx context.Context, resp Response) (any, error) {
	if resp == nil {
		return nil, nil
	}
	return resp.payload(ctx)
}
