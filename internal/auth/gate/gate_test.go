package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placelist/internal/auth/redirect"
	"placelist/internal/auth/resolver"
	"placelist/internal/identity/identitytest"
	"placelist/pkg/testutil"
)

func TestClassify(t *testing.T) {
	routes := NewClassification(
		[]string{"/dashboard", "/account"},
		[]string{"/login", "/auth"},
	)

	tests := []struct {
		path string
		want Class
	}{
		{"/dashboard", ClassProtected},
		{"/dashboard/settings", ClassProtected},
		{"/account/email", ClassProtected},
		{"/login", ClassPublic},
		{"/auth/confirm", ClassPublic},
		{"/", ClassNeutral},
		{"/about", ClassNeutral},
		{"/dashboardish", ClassNeutral},
		{"/loginhelp", ClassNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, routes.Classify(tt.path))
		})
	}
}

func TestClassifyPublicWinsOverProtected(t *testing.T) {
	routes := NewClassification([]string{"/app"}, []string{"/app/share"})
	assert.Equal(t, ClassPublic, routes.Classify("/app/share/abc"))
	assert.Equal(t, ClassProtected, routes.Classify("/app/lists"))
}

func newGate(fake *identitytest.Fake) *Gate {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res := resolver.New(fake, logger, nil)
	routes := NewClassification([]string{"/dashboard"}, []string{"/login", "/auth"})
	return New(routes, res, fake, redirect.New("/dashboard"), nil, logger, nil)
}

func TestAuthorizeProtectedWithSession(t *testing.T) {
	fake := identitytest.New()
	subject := fake.AddAccount("ana@example.com", "s3cret-pw")
	access, refresh := fake.OpenSession(subject)

	ctx, _ := testutil.ContextWithSession(context.Background(), access, refresh)
	decision := newGate(fake).Authorize(ctx, "/dashboard/settings")

	assert.True(t, decision.Allowed)
}

func TestAuthorizeProtectedWithoutSession(t *testing.T) {
	fake := identitytest.New()

	decision := newGate(fake).Authorize(context.Background(), "/dashboard/settings")

	require.False(t, decision.Allowed)
	assert.Equal(t, "/login?redirectTo=%2Fdashboard%2Fsettings", decision.RedirectTo)
}

// Infrastructure trouble and an absent session produce the identical denial.
func TestAuthorizeFailsClosed(t *testing.T) {
	withoutSession := newGate(identitytest.New()).Authorize(context.Background(), "/dashboard")

	broken := identitytest.New()
	broken.ForceError("current_session", errors.New("connection refused"))
	ctx, _ := testutil.ContextWithSession(context.Background(), "access-1", "refresh-1")
	withBrokenProvider := newGate(broken).Authorize(ctx, "/dashboard")

	assert.Equal(t, withoutSession, withBrokenProvider)
}

func TestAuthorizePublicRefreshesBestEffort(t *testing.T) {
	fake := identitytest.New()
	subject := fake.AddAccount("ana@example.com", "s3cret-pw")
	access, refresh := fake.OpenSession(subject)

	ctx, rec := testutil.ContextWithSession(context.Background(), access, refresh)
	decision := newGate(fake).Authorize(ctx, "/login")

	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, fake.CallCount("refresh_session"))
	assert.NotZero(t, rec.Established, "refresh rotates the session tokens")
	assert.False(t, fake.SessionValid(access), "rotated access token is retired")
}

func TestAuthorizePublicAllowedWhenRefreshFails(t *testing.T) {
	fake := identitytest.New()
	fake.ForceError("refresh_session", errors.New("connection refused"))

	decision := newGate(fake).Authorize(context.Background(), "/login")

	assert.True(t, decision.Allowed)
}

func TestAuthorizeNeutralSkipsProvider(t *testing.T) {
	fake := identitytest.New()

	decision := newGate(fake).Authorize(context.Background(), "/about")

	assert.True(t, decision.Allowed)
	assert.Empty(t, fake.Calls())
}

func TestMiddlewareRedirectsDeniedRequests(t *testing.T) {
	fake := identitytest.New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := newGate(fake).Middleware(next)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/settings", nil))

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login?redirectTo=%2Fdashboard%2Fsettings", rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/about", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
