package account_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-booklet-session/account"
	"github.com/jrsteele09/go-booklet-session/authclient"
	"github.com/jrsteele09/go-booklet-session/authclient/authtest"
	"github.com/jrsteele09/go-booklet-session/authmodel"
	"github.com/jrsteele09/go-booklet-session/credstore"
	autherrors "github.com/jrsteele09/go-booklet-session/internal/errors"
	"github.com/jrsteele09/go-booklet-session/session"
	"github.com/jrsteele09/go-booklet-session/session/clockfake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	srv     *authtest.Server
	clock   *clockfake.FakeClock
	repo    *credstore.InMemoryRepo
	manager *session.Manager
	service *account.Service
}

func setupTestFixture(t *testing.T, opts ...authtest.Option) *testFixture {
	t.Helper()
	clk := clockfake.NewFakeClock(time.Now().Truncate(time.Second))
	srv := authtest.NewServer(append([]authtest.Option{authtest.WithNowFunc(clk.Now)}, opts...)...)
	t.Cleanup(srv.Close)

	repo := credstore.NewInMemoryRepo(clk.Now)
	client := authclient.New(srv.URL, authclient.WithLogger(zerolog.Nop()))
	manager, err := session.NewManager(client,
		session.WithClock(clk),
		session.WithRepo(repo),
		session.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)

	return &testFixture{
		srv:     srv,
		clock:   clk,
		repo:    repo,
		manager: manager,
		service: account.NewService(client, manager, account.WithLogger(zerolog.Nop())),
	}
}

func TestService_LoginWithPasswordThenProactiveRefresh(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.srv.AddUser("jane@example.com", "", "hunter22", true)

	user, err := f.service.LoginWithPassword(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", user.Email)
	require.True(t, f.manager.IsAuthenticated())

	first, err := f.manager.GetAccessToken(ctx)
	require.NoError(t, err)

	entries, err := f.repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, first, entries.AccessToken)
	require.NotEmpty(t, entries.RefreshToken)

	// expiry comes from the JWT exp claim: one hour, refreshed 60s early
	f.clock.Advance(58 * time.Minute)
	require.Zero(t, f.srv.RefreshCalls())
	f.clock.Advance(time.Minute)
	require.Equal(t, 1, f.srv.RefreshCalls())

	second, err := f.manager.GetAccessToken(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, session.SignedIn, f.manager.State())
}

func TestService_RejectedRefreshSignsOut(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.srv.AddUser("jane@example.com", "", "hunter22", true)

	_, err := f.service.LoginWithPassword(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)

	f.srv.RejectRefresh(true)
	f.clock.Advance(59 * time.Minute)
	require.Equal(t, 1, f.srv.RefreshCalls())
	require.Equal(t, session.SignedOut, f.manager.State())

	_, err = f.manager.GetAccessToken(ctx)
	require.ErrorIs(t, err, autherrors.ErrNotAuthenticated)

	entries, err := f.repo.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, entries.AccessToken)
	require.Empty(t, entries.RefreshToken)
}

func TestService_LoginFailureLeavesSignedOut(t *testing.T) {
	f := setupTestFixture(t)
	f.srv.AddUser("jane@example.com", "", "hunter22", true)

	_, err := f.service.LoginWithPassword(context.Background(), "jane@example.com", "wrong")
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	require.False(t, f.manager.IsAuthenticated())
}

func TestService_MFAFlow(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.srv.AddUser("jane@example.com", "", "hunter22", true)
	f.srv.RequireMFA("jane@example.com")

	_, err := f.service.LoginWithPassword(ctx, "jane@example.com", "hunter22")
	require.ErrorIs(t, err, autherrors.ErrMFARequired)
	require.False(t, f.manager.IsAuthenticated())

	require.NoError(t, f.service.SendOTP(ctx, "jane@example.com", authmodel.PurposeMultiFactorLogin))
	_, err = f.service.LoginWithOTP(ctx, "jane@example.com", f.srv.OTP("jane@example.com", authmodel.PurposeMultiFactorLogin))
	require.NoError(t, err)
	require.True(t, f.manager.IsAuthenticated())
}

func TestService_ActivateSignsIn(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.srv.AddUser("jane@example.com", "", "hunter22", false)

	require.NoError(t, f.service.SendOTP(ctx, "jane@example.com", authmodel.PurposeActivation))
	user, err := f.service.Activate(ctx, "jane@example.com", f.srv.OTP("jane@example.com", authmodel.PurposeActivation))
	require.NoError(t, err)
	require.True(t, user.IsActive)
	require.True(t, f.manager.IsAuthenticated())
}

func TestService_DeactivateAndRecover(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.srv.AddUser("jane@example.com", "", "hunter22", true)

	_, err := f.service.LoginWithPassword(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)

	err = f.service.Deactivate(ctx, "jane@example.com", "bad-otp")
	require.Error(t, err)
	require.True(t, f.manager.IsAuthenticated(), "a refused deactivation keeps the session")

	require.NoError(t, f.service.SendOTP(ctx, "jane@example.com", authmodel.PurposeDeactivateAccount))
	require.NoError(t, f.service.Deactivate(ctx, "jane@example.com", f.srv.OTP("jane@example.com", authmodel.PurposeDeactivateAccount)))
	require.False(t, f.manager.IsAuthenticated())

	require.NoError(t, f.service.SendOTP(ctx, "jane@example.com", authmodel.PurposeRecoverAccount))
	_, err = f.service.Recover(ctx, "jane@example.com", f.srv.OTP("jane@example.com", authmodel.PurposeRecoverAccount))
	require.NoError(t, err)
	require.True(t, f.manager.IsAuthenticated())
}

func TestService_Delete(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.srv.AddUser("jane@example.com", "", "hunter22", true)

	_, err := f.service.LoginWithPassword(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, f.service.SendOTP(ctx, "jane@example.com", authmodel.PurposeDeleteAccount))
	require.NoError(t, f.service.Delete(ctx, "jane@example.com", f.srv.OTP("jane@example.com", authmodel.PurposeDeleteAccount)))
	require.False(t, f.manager.IsAuthenticated())

	_, ok := f.srv.User("jane@example.com")
	require.False(t, ok)
}

func TestService_AuthenticatedClient(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.srv.AddUser("jane@example.com", "", "hunter22", true)

	_, err := f.service.LoginWithPassword(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)

	resp, err := f.manager.HTTPClient(ctx, nil).Get(f.srv.URL + "/api/user/me")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.Contains(t, string(body), "jane@example.com")
}
