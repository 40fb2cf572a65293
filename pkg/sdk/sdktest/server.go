// Package sdktest provides an in-process fake of the portal REST API for tests
// of code built on the sdk package.
package sdktest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/JaxTheDeveloper/COS40005-CMS/pkg/sdk"
	"github.com/go-chi/chi/v5"
)

// User is an account known to the fake server.
type User struct {
	Password string
	Identity sdk.Identity
}

// Server is a fake portal API backed by httptest. Access tokens stay valid
// until ExpireAccessTokens is called.
type Server struct {
	*httptest.Server
	router chi.Router

	mu            sync.Mutex
	users         map[string]*User  // email -> user
	accessTokens  map[string]string // access token -> email
	refreshTokens map[string]string // refresh token -> email
	hits          map[string]int    // "METHOD /path" -> count
	lastAuth      map[string]string // "METHOD /path" -> Authorization header
	pairQueue     []sdk.Credentials
	accessQueue   []string
	seq           int

	refreshStatus int
	rotateRefresh bool
}

// NewServer starts a fake API and registers its shutdown with t.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		users:         map[string]*User{},
		accessTokens:  map[string]string{},
		refreshTokens: map[string]string{},
		hits:          map[string]int{},
		lastAuth:      map[string]string{},
	}

	r := chi.NewRouter()
	r.Use(s.record)

	r.Post(sdk.LoginPathCompat, s.handleLogin)
	r.Post(sdk.LoginPathLegacy, s.handleLogin)
	r.Post(sdk.DefaultRefreshPath, s.handleRefresh)
	r.Post(sdk.DefaultRegisterPath, s.handleRegister)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get(sdk.DefaultCurrentUserPath, s.handleMe)
		r.Get(sdk.LegacyCurrentUserPath, s.handleMe)
		r.Put(sdk.DefaultProfilePath, s.handleUpdateProfile)
		r.Get("/core/events/", s.handleEvents)
		r.Get("/admin/reports/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		})
		r.Get("/core/broken/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "A server error occurred."})
		})
	})

	s.router = r
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// HandleProtected adds a route that requires a valid bearer token. Register
// routes before issuing requests.
func (s *Server) HandleProtected(method, pattern string, h http.HandlerFunc) {
	s.router.With(s.requireBearer).MethodFunc(method, pattern, h)
}

// Handle adds a route that needs no authentication.
func (s *Server) Handle(method, pattern string, h http.HandlerFunc) {
	s.router.MethodFunc(method, pattern, h)
}

// AddUser registers an account that can log in with password.
func (s *Server) AddUser(password string, identity sdk.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(identity.Email)] = &User{Password: password, Identity: identity}
}

// QueueTokenPair makes the next login return exactly this pair.
func (s *Server) QueueTokenPair(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairQueue = append(s.pairQueue, sdk.Credentials{AccessToken: access, RefreshToken: refresh})
}

// QueueAccessToken makes the next successful refresh return this access token.
func (s *Server) QueueAccessToken(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessQueue = append(s.accessQueue, access)
}

// IssueTokens creates a valid pair for email without going through login.
func (s *Server) IssueTokens(email string) sdk.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds := s.nextPairLocked()
	s.accessTokens[creds.AccessToken] = email
	s.refreshTokens[creds.RefreshToken] = email
	return creds
}

// ExpireAccessTokens invalidates every issued access token. Refresh tokens
// remain usable.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessTokens = map[string]string{}
}

// RevokeRefreshTokens invalidates every issued refresh token.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens = map[string]string{}
}

// FailRefreshWith makes the refresh endpoint answer with status. Zero restores
// normal behaviour.
func (s *Server) FailRefreshWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStatus = status
}

// RotateRefreshTokens makes successful refreshes also return a new refresh token.
func (s *Server) RotateRefreshTokens(rotate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateRefresh = rotate
}

// Hits returns how many requests reached method path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// TotalHits returns the number of requests received.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// LastAuthorization returns the Authorization header of the latest request to
// method path.
func (s *Server) LastAuthorization(method, path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[method+" "+path]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.hits[key]++
		s.lastAuth[key] = r.Header.Get("Authorization")
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		s.mu.Lock()
		email, valid := s.accessTokens[token]
		s.mu.Unlock()
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithEmail(r, email)))
	})
}

func contextWithEmail(r *http.Request, email string) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, email)
}

func emailFromContext(r *http.Request) string {
	email, _ := r.Context().Value(ctxKey{}).(string)
	return email
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(body.Email)
	if email == "" && body.Username != "" {
		for key, u := range s.users {
			if u.Identity.Username == body.Username {
				email = key
			}
		}
	}
	user, ok := s.users[email]
	if !ok || user.Password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}

	creds := s.nextPairLocked()
	s.accessTokens[creds.AccessToken] = email
	s.refreshTokens[creds.RefreshToken] = email
	writeJSON(w, http.StatusOK, map[string]string{"access": creds.AccessToken, "refresh": creds.RefreshToken})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshStatus != 0 {
		writeJSON(w, s.refreshStatus, map[string]string{"detail": "refresh rejected"})
		return
	}
	email, ok := s.refreshTokens[body.Refresh]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}

	access := s.nextAccessLocked()
	s.accessTokens[access] = email
	resp := map[string]string{"access": access}
	if s.rotateRefresh {
		delete(s.refreshTokens, body.Refresh)
		s.seq++
		rotated := fmt.Sprintf("refresh-%d", s.seq)
		s.refreshTokens[rotated] = email
		resp["refresh"] = rotated
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	user, ok := s.users[emailFromContext(r)]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, user.Identity)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch map[string]string
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[emailFromContext(r)]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	for field, value := range patch {
		switch field {
		case "first_name":
			user.Identity.FirstName = value
		case "last_name":
			user.Identity.LastName = value
		case "department":
			user.Identity.Department = value
		case "position":
			user.Identity.Position = value
		case "bio":
			user.Identity.Bio = value
		}
	}
	writeJSON(w, http.StatusOK, user.Identity)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email           string `json:"email"`
		Username        string `json:"username"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	if body.Password != body.ConfirmPassword {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"password": {"Password fields didn't match."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(body.Email)
	if _, exists := s.users[email]; exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"user with this email already exists."}})
		return
	}
	s.seq++
	identity := sdk.Identity{
		ID:        int64(1000 + s.seq),
		Email:     email,
		Username:  body.Username,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		UserType:  sdk.UserTypeStudent,
	}
	s.users[email] = &User{Password: body.Password, Identity: identity}
	writeJSON(w, http.StatusCreated, identity)
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{"id": 1, "title": "Orientation Week"},
		{"id": 2, "title": "Career Fair"},
	})
}

func (s *Server) nextPairLocked() sdk.Credentials {
	if len(s.pairQueue) > 0 {
		creds := s.pairQueue[0]
		s.pairQueue = s.pairQueue[1:]
		return creds
	}
	s.seq++
	return sdk.Credentials{
		AccessToken:  fmt.Sprintf("access-%d", s.seq),
		RefreshToken: fmt.Sprintf("refresh-%d", s.seq),
	}
}

func (s *Server) nextAccessLocked() string {
	if len(s.accessQueue) > 0 {
		access := s.accessQueue[0]
		s.accessQueue = s.accessQueue[1:]
		return access
	}
	s.seq++
	return fmt.Sprintf("access-%d", s.seq)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
