package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/server/auth"
	"github.com/dmitrijs2005/issuedesk/internal/server/config"
	"github.com/dmitrijs2005/issuedesk/internal/server/mailer"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/issues"
	"github.com/dmitrijs2005/issuedesk/internal/server/repositories/users"
	"github.com/dmitrijs2005/issuedesk/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last() mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return mailer.Message{}
	}
	return o.sent[len(o.sent)-1]
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

var otpPattern = regexp.MustCompile(`is: (\d{6})\.`)

func (o *outbox) lastOTP(t *testing.T) string {
	t.Helper()
	m := otpPattern.FindStringSubmatch(o.last().Text)
	require.Len(t, m, 2, "no otp in %q", o.last().Text)
	return m[1]
}

type testEnv struct {
	router   *gin.Engine
	users    *services.UserService
	userRepo *users.MemoryRepository
	mail     *outbox
}

type envOption func(*config.AuthConfig, *services.PhotoPresigner)

func withBypass(c *config.AuthConfig, _ *services.PhotoPresigner) { c.AllowInsecureBypass = true }

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := config.AuthConfig{
		SecretKey:     "test-secret",
		TokenValidity: time.Hour,
		OTPValidity:   10 * time.Minute,
		BypassEmail:   "admin@bypass.local",
	}
	var photos services.PhotoPresigner
	for _, o := range opts {
		o(&cfg, &photos)
	}

	mail := &outbox{}
	factory := func() (mailer.Sender, error) { return mail, nil }
	userRepo := users.NewMemoryRepository()
	tokens := auth.NewTokenService([]byte(cfg.SecretKey), cfg.TokenValidity)

	us := services.NewUserService(userRepo, tokens, auth.NewBcryptHasher(bcrypt.MinCost), factory, cfg, nil, nil)
	is := services.NewIssueService(issues.NewMemoryRepository(), factory, photos, nil, nil)

	srv := NewHTTPServer(us, is, Options{})
	return &testEnv{router: srv.Router(), users: us, userRepo: userRepo, mail: mail}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// registerUser registers through the API and returns the token.
func (e *testEnv) registerUser(t *testing.T, name, email string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decode(t, rec, &out)
	return out.Token
}

// adminToken registers a user, promotes it and logs in again so the token
// carries the admin role.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	e.registerUser(t, "Root", "root@x.com")
	_, err := e.users.PromoteAdmin(context.Background(), "root@x.com")
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, "/api/login", "", map[string]string{"email": "root@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Token string `json:"token"`
	}
	decode(t, rec, &out)
	return out.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	decode(t, rec, &m)
	return m
}
