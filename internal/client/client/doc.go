// Package client talks to the node keeper backend over gRPC.
//
// GRPCClient owns the connection, attaches the access token to every call
// through a unary interceptor, stamps the session key onto each command and
// maps gRPC status codes to the sentinel errors ErrUnavailable,
// ErrUnauthorized and ErrRejected.
package client
