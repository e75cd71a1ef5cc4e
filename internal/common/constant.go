// Package common contains shared constants and sentinel errors used across
// the ledger server components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token value inside the Authorization header.
const BearerPrefix = "Bearer "
