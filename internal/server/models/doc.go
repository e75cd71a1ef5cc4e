// Package models defines the records persisted and exchanged by the ledger
// server. JSON names form the public wire contract and are camelCase; SQL
// columns are snake_case.
package models
