package apimiddleware

// Options é o conjunto aberto de opções repassado para a RequestFunc.
type Options map[string]any

// Clone retorna uma cópia rasa das opções. Uma cópia de nil é um mapa vazio.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Merge combina as opções atuais (menor precedência) com over (maior
// precedência) em um novo mapa. Nenhum dos operandos é alterado.
func (o Options) Merge(over Options) Options {
	out := o.Clone()
	for k, v := range over {
		out[k] = v
	}
	return out
}
