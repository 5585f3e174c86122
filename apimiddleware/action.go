package apimiddleware

// Action é qualquer valor que trafega pela cadeia de dispatch do store.
type Action = any

// StandardAction segue a convenção de actions padrão: um tipo, um payload
// opcional e a marca de erro.
type StandardAction struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
	Error   bool   `json:"error,omitempty"`
}

// SuccessFunc recebe o payload normalizado e devolve a action a despachar.
type SuccessFunc func(payload any) Action

// FailureFunc recebe o erro capturado e devolve a action a despachar.
type FailureFunc func(err error) Action

// RequestAction é a action interceptada pelo middleware. O próprio tipo Go
// funciona como a marca que a distingue do restante do tráfego.
type RequestAction struct {
	// Type é a tag de correlação usada nas actions de ciclo de vida.
	// Vazio desativa START/END/FAILURE para esta requisição.
	Type string
	// URL é o destino repassado para a RequestFunc. Uma URL vazia não chega
	// à RequestFunc: a action segue para o ramo de falha com ErrInvalidURL.
	URL string
	// OnSuccess, se definido, tem o retorno despachado após o sucesso.
	OnSuccess SuccessFunc
	// OnFailure, se definido, tem o retorno despachado após a falha.
	OnFailure FailureFunc
	// Options são repassadas para a RequestFunc, sobrepondo RequestDefaults.
	Options Options
}

// RequestOptions agrupa os argumentos opcionais de BuildRequestAction.
type RequestOptions struct {
	Type      string
	OnSuccess SuccessFunc
	OnFailure FailureFunc
	// Extra contém opções livres (method, headers, body...) para a RequestFunc.
	Extra Options
}

// BuildRequestAction cria uma RequestAction para a URL informada.
//
// Retorna ErrInvalidURL se a URL estiver vazia. As continuações não são
// validadas e as opções extras são copiadas.
func BuildRequestAction(url string, opts RequestOptions) (*RequestAction, error) {
	if url == "" {
		return nil, ErrInvalidURL
	}

	return &RequestAction{
		Type:      opts.Type,
		URL:       url,
		OnSuccess: opts.OnSuccess,
		OnFailure: opts.OnFailure,
		Options:   opts.Extra.Clone(),
	}, nil
}

// MustBuildRequestAction é similar ao BuildRequestAction, mas panic em caso de erro
func MustBuildRequestAction(url string, opts RequestOptions) *RequestAction {
	action, err := BuildRequestAction(url, opts)
	if err != nil {
		panic(err)
	}
	return action
}
