package core

import (
	"encoding/base64"
	"net/http"
)

// Authenticator attaches credentials to outgoing requests. Every request is
// authenticated independently; no session token is acquired or cached.
type Authenticator interface {
	setAuthHeader(headers *http.Header)
}

// createAuthenticator creates an Authenticator from the provided config.
func createAuthenticator(config *ClusterConfig) (Authenticator, error) {
	auth := &BasicAuthenticator{
		Username: config.Username,
		Password: config.Password,
	}
	auth.encode()
	return auth, nil
}

// BasicAuthenticator implements HTTP basic authentication.
type BasicAuthenticator struct {
	Username    string
	Password    string
	encodedAuth string // cached Base64-encoded credentials
}

// encode pre-computes the Base64-encoded credentials once, avoiding
// repeated encoding on each request.
func (auth *BasicAuthenticator) encode() {
	authStr := auth.Username + ":" + auth.Password
	auth.encodedAuth = base64.StdEncoding.EncodeToString([]byte(authStr))
}

func (auth *BasicAuthenticator) setAuthHeader(headers *http.Header) {
	headers.Set(HeaderAuthorization, AuthTypeBasic+" "+auth.encodedAuth)
}
