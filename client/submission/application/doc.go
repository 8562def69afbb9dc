// Package application contém os casos de uso (regras de aplicação) para a admissão
// de envios e o limite de POSTs simultâneos.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide() retorna uma Decision (allow/deny + retry-after).
package application
