package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	goCred "github.com/MrEthical07/goCred"
	"github.com/MrEthical07/goCred/internal/httpjson"
	"github.com/MrEthical07/goCred/middleware"
)

// Engine is the subset of *goCred.Engine the handlers call.
type Engine interface {
	middleware.Resolver
	Mode() goCred.CredentialMode
	Signup(ctx context.Context, req goCred.SignupRequest) (string, error)
	Signin(ctx context.Context, email, password string) (*goCred.SigninResult, error)
	Logout(ctx context.Context, credential string) error
	UpdateName(ctx context.Context, userID, name string) error
}

// Handler routes API requests to an Engine.
type Handler struct {
	engine     Engine
	logger     *slog.Logger
	middleware []middleware.Option
	mux        *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the access logger. Requests are not logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMiddlewareOptions forwards options to the authentication middleware.
func WithMiddlewareOptions(opts ...middleware.Option) Option {
	return func(h *Handler) {
		h.middleware = append(h.middleware, opts...)
	}
}

// NewHandler builds the route table over engine.
func NewHandler(engine Engine, opts ...Option) *Handler {
	h := &Handler{
		engine: engine,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.mux = h.routes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)
	h.logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rec.status),
		slog.Duration("duration", time.Since(start)),
	)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Status string     `json:"status"`
	Data   signupData `json:"data"`
}

type signupData struct {
	UserID string `json:"userId"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinResponse struct {
	Status    string     `json:"status"`
	Token     string     `json:"token"`
	Mode      string     `json:"mode"`
	SessionID string     `json:"sessionId,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type userResponse struct {
	User userBody `json:"user"`
}

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type updateNameRequest struct {
	Name string `json:"name"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "Server is okay")
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, err)
		return
	}

	userID, err := h.engine.Signup(r.Context(), goCred.SignupRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	httpjson.Write(w, http.StatusCreated, signupResponse{
		Status: "success",
		Data:   signupData{UserID: userID},
	})
}

func (h *Handler) signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, err)
		return
	}

	res, err := h.engine.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		httpjson.WriteError(w, err)
		return
	}

	body := signinResponse{
		Status: "successfully logged in",
		Token:  res.Credential,
		Mode:   res.Mode.String(),
	}
	if res.Mode == goCred.ModeOpaque {
		body.SessionID = res.Credential
	}
	if !res.ExpiresAt.IsZero() {
		exp := res.ExpiresAt.UTC()
		body.ExpiresAt = &exp
	}
	httpjson.Write(w, http.StatusOK, body)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	httpjson.Write(w, http.StatusOK, userResponse{
		User: userBody{ID: id.UserID, Email: id.Email, Name: id.Name},
	})
}

func (h *Handler) updateName(w http.ResponseWriter, r *http.Request) {
	var req updateNameRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.WriteError(w, err)
		return
	}

	id, _ := middleware.IdentityFromContext(r.Context())
	if err := h.engine.UpdateName(r.Context(), id.UserID, req.Name); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, statusResponse{Status: "success"})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	credential, _ := middleware.CredentialFromContext(r.Context())
	if err := h.engine.Logout(r.Context(), credential); err != nil {
		httpjson.WriteError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, statusResponse{Status: "success"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
