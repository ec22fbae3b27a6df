package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/internal/httpjson"
)

// Resolver turns a raw credential into an identity. *goCred.Engine
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (*goCred.Identity, error)
}

type identityContextKey struct{}
type credentialContextKey struct{}

// IdentityFromContext returns the identity stored by [Authenticate].
func IdentityFromContext(ctx context.Context) (*goCred.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*goCred.Identity)
	return id, ok && id != nil
}

// CredentialFromContext returns the raw bearer credential that produced the
// identity. Handlers need it for logout.
func CredentialFromContext(ctx context.Context) (string, bool) {
	credential, ok := ctx.Value(credentialContextKey{}).(string)
	return credential, ok && credential != ""
}

// WithIdentity returns a copy of ctx carrying id and credential.
func WithIdentity(ctx context.Context, id *goCred.Identity, credential string) context.Context {
	ctx = context.WithValue(ctx, identityContextKey{}, id)
	return context.WithValue(ctx, credentialContextKey{}, credential)
}

// Option configures [Authenticate].
type Option func(*options)

type options struct {
	clientIPHeader string
}

// WithClientIPHeader reads the client address from header (for example
// "X-Forwarded-For") instead of the connection's remote address. Only use it
// behind a proxy that overwrites the header.
func WithClientIPHeader(header string) Option {
	return func(o *options) {
		o.clientIPHeader = header
	}
}

// Authenticate resolves the bearer credential of each request.
//
// A request without an Authorization header passes through anonymously. A
// header that does not use the Bearer scheme is rejected with 400, and a
// credential that fails to resolve with 401.
func Authenticate(resolver Resolver, opts ...Option) func(http.Handler) http.Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withRequestMetadata(r, o)

			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				httpjson.WriteError(w, goCred.ErrMalformedCredential)
				return
			}

			if resolver == nil {
				httpjson.WriteError(w, goCred.ErrEngineNotReady)
				return
			}

			id, err := resolver.Resolve(ctx, token)
			if err != nil {
				if goCred.KindOf(err) == goCred.KindInternal {
					httpjson.WriteError(w, err)
					return
				}
				httpjson.WriteError(w, goCred.ErrUnauthenticated)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id, token)))
		})
	}
}

// RequestMetadata attaches the client IP and User-Agent to the request
// context without looking at credentials. Public routes such as signin use
// it so their audit events carry the caller's address.
func RequestMetadata(opts ...Option) func(http.Handler) http.Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(withRequestMetadata(r, o)))
		})
	}
}

// RequireIdentity rejects requests that reach it without an identity.
// Mount it after [Authenticate].
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			httpjson.WriteError(w, goCred.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

func withRequestMetadata(r *http.Request, o options) context.Context {
	ctx := goCred.WithClientIP(r.Context(), clientIP(r, o.clientIPHeader))
	return goCred.WithUserAgent(ctx, r.UserAgent())
}

func clientIP(r *http.Request, header string) string {
	if header != "" {
		if v := r.Header.Get(header); v != "" {
			first, _, _ := strings.Cut(v, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
