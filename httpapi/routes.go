package httpapi

import (
	"net/http"

	"github.com/MrEthical07/goCred/middleware"
)

func (h *Handler) routes() *http.ServeMux {
	mux := http.NewServeMux()

	public := middleware.RequestMetadata(h.middleware...)
	protected := func(fn http.HandlerFunc) http.Handler {
		return middleware.Authenticate(h.engine, h.middleware...)(middleware.RequireIdentity(fn))
	}

	mux.HandleFunc("GET /{$}", h.health)
	mux.Handle("POST /user/signup", public(http.HandlerFunc(h.signup)))
	mux.Handle("POST /user/signin", public(http.HandlerFunc(h.signin)))
	mux.Handle("GET /user", protected(h.currentUser))
	mux.Handle("PATCH /user", protected(h.updateName))
	mux.Handle("POST /user/logout", protected(h.logout))

	return mux
}
