package common

// AuthorizationHeaderName carries the session token as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authorization scheme prefix expected by the server.
const BearerScheme = "Bearer"
