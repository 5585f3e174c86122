package apimiddleware

const (
	DefaultStartType   = "API_REQUEST_START"
	DefaultEndType     = "API_REQUEST_END"
	DefaultFailureType = "API_REQUEST_FAILURE"
)

// ActionTypes define os nomes das actions de ciclo de vida.
type ActionTypes struct {
	Start   string `yaml:"start" json:"start" env:"START"`
	End     string `yaml:"end" json:"end" env:"END"`
	Failure string `yaml:"failure" json:"failure" env:"FAILURE"`
}

// Config é a configuração do middleware. Campos vazios assumem os valores
// padrão de forma individual.
type Config struct {
	ActionTypes     ActionTypes `yaml:"action_types" json:"actionTypes" envPrefix:"ACTION_"`
	RequestDefaults Options     `yaml:"request_defaults" json:"requestDefaults"`
}

// DefaultConfig retorna a configuração padrão.
func DefaultConfig() Config {
	return Config{
		ActionTypes: ActionTypes{
			Start:   DefaultStartType,
			End:     DefaultEndType,
			Failure: DefaultFailureType,
		},
		RequestDefaults: Options{},
	}
}

// WithDefaults preenche os campos vazios com os valores padrão e copia
// RequestDefaults, de modo que alterações posteriores no Config original não
// afetem o resultado.
func (c *Config) WithDefaults() Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}

	if c.ActionTypes.Start != "" {
		out.ActionTypes.Start = c.ActionTypes.Start
	}
	if c.ActionTypes.End != "" {
		out.ActionTypes.End = c.ActionTypes.End
	}
	if c.ActionTypes.Failure != "" {
		out.ActionTypes.Failure = c.ActionTypes.Failure
	}
	out.RequestDefaults = c.RequestDefaults.Clone()

	return out
}
