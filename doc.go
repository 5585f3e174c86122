// Package fastdispatch reúne um middleware de requisições assíncronas para
// stores no estilo Redux e a infraestrutura para operá-lo como serviço.
//
// Visão Geral:
// Uma RequestAction despachada na store é interceptada pelo middleware, que
// sinaliza o início, executa a RequestFunc em background, despacha o
// resultado das continuações OnSuccess/OnFailure e sinaliza o fim.
//
// Sub-Pacotes Principais:
//
// 1. apimiddleware:
//   - BuildRequestAction e New (protocolo store => next => action).
//   - Response como Decoded/Raw e Pending para aguardar o resultado.
//
// 2. store:
//   - Store[S] genérica com reducer, middlewares e assinantes.
//
// 3. pkg/fetch e pkg/auth:
//   - RequestFunc HTTP no estilo fetch, com bearer token OAuth2 opcional.
//
// 4. pkg/config, pkg/logger, pkg/observability:
//   - YAML (arquivo, S3 ou DynamoDB) + variáveis APIMW_*, zerolog e métricas Datadog.
//
// 5. cmd/apicall:
//   - CLI que despacha uma requisição e imprime o ciclo de vida.
package fastdispatch
