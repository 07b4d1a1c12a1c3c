/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

type routerOptions struct {
	token          string
	allowedOrigins []string
}

// RouterOption configures NewRouter.
type RouterOption func(*routerOptions)

// WithAuthToken requires every request to carry the bearer token.
func WithAuthToken(token string) RouterOption {
	return func(o *routerOptions) {
		o.token = token
	}
}

// WithAllowedOrigins restricts the origins of cross-origin requests. All origins are allowed by default.
func WithAllowedOrigins(origins ...string) RouterOption {
	return func(o *routerOptions) {
		o.allowedOrigins = origins
	}
}

// NewRouter returns an http.Handler serving handlers, wrapped with CORS support.
func NewRouter(handlers []Handler, opts ...RouterOption) http.Handler {
	o := &routerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	router := mux.NewRouter()

	if o.token != "" {
		router.Use(authorizationMiddleware(o.token))
	}

	for _, handler := range handlers {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}

	return cors.New(
		cors.Options{
			AllowedOrigins: o.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		},
	).Handler(router)
}

func authorizationMiddleware(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validateAuthorizationBearerToken(w, r, token) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

func validateAuthorizationBearerToken(w http.ResponseWriter, r *http.Request, token string) bool {
	actHdr := r.Header.Get("Authorization")
	expHdr := "Bearer " + token

	if subtle.ConstantTimeCompare([]byte(actHdr), []byte(expHdr)) != 1 {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthorised.\n")) // nolint:gosec,errcheck

		return false
	}

	return true
}
