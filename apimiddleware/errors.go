// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package apimiddleware

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequestFunc é retornado por New quando nenhuma RequestFunc
	// é informada.
	ErrMissingRequestFunc = errors.New("apimiddleware: request function is required")
	// ErrInvalidURL é retornado por BuildRequestAction quando a URL é vazia.
	ErrInvalidURL = errors.New("apimiddleware: url must be a non-empty string")
)

// ContinuationError é produzido quando uma etapa executada em nome do
// chamador entra em pânico: a RequestFunc, OnSuccess, OnFailure ou o
// dispatch de uma action.
//
// Pânicos na RequestFunc e em OnSuccess seguem para o ramo de falha, como
// qualquer outro erro de requisição. Pânicos em OnFailure (ou no dispatch do
// FAILURE/END) não têm recuperação: o erro é devolvido por Pending.Wait.
type ContinuationError struct {
	// Stage identifica a etapa ("request", "onSuccess", "onFailure",
	// "failure dispatch" ou "end dispatch").
	Stage string
	// Value é o valor recuperado do pânico.
	Value any
}

// Error retorna uma mensagem com o estágio e o valor do pânico.
//
// Exemplo de Retorno: "apimiddleware: onFailure panicked: boom"
func (e *ContinuationError) Error() string {
	return fmt.Sprintf("apimiddleware: %s panicked: %v", e.Stage, e.Value)
}

// Unwrap retorna o valor do pânico quando ele próprio é um erro.
func (e *ContinuationError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
