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
//
// Package apimiddleware fornece um middleware de dispatch que centraliza o
// ciclo de vida de chamadas assíncronas de API dentro de um store.
//
// Visão Geral:
// Sem este pacote, cada action creator assíncrono precisa repetir a mesma
// sequência: sinalizar o início da chamada, executar a requisição, despachar
// a falha, executar as continuações de sucesso/falha e sinalizar o fim. O
// middleware intercepta actions do tipo *RequestAction, executa a função de
// requisição fornecida pelo chamador e despacha as actions de ciclo de vida
// na ordem garantida:
//
//	sucesso: START -> (OnSuccess) -> END
//	falha:   START -> FAILURE -> (OnFailure) -> END
//
// Qualquer outra action é repassada sem alterações para o próximo elo da
// cadeia.
//
// Funcionalidades Principais:
//   - BuildRequestAction: Construção da action de requisição (URL obrigatória).
//   - New: Fábrica do middleware, configurada com uma RequestFunc e um Config.
//   - Pending: Futuro retornado pelo dispatch, permitindo aguardar a resposta.
//   - Response: Tipo soma (Decoded / Raw) que define como o resultado da
//     RequestFunc é normalizado.
//
// Exemplo de Uso:
//
//	mw, err := apimiddleware.New(fetch.New(config.FetchConf{}).Request, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	st := store.New(reducer, initialState, mw)
//
//	action := apimiddleware.MustBuildRequestAction("https://api/users", apimiddleware.RequestOptions{
//		Type: "FETCH_USERS",
//		OnSuccess: func(payload any) apimiddleware.Action {
//			return apimiddleware.StandardAction{Type: "USERS_LOADED", Payload: payload}
//		},
//	})
//
//	pending := st.Dispatch(ctx, action).(*apimiddleware.Pending)
//	users, err := pending.Wait(ctx)
//
// Configuração:
// Os nomes das actions de ciclo de vida e as opções padrão de requisição são
// definidos em Config. Campos não informados usam os valores padrão
// individualmente (API_REQUEST_START, API_REQUEST_END, API_REQUEST_FAILURE).
package apimiddleware
