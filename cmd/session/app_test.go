package main

import (
	"context"
	"strings"
	"testing"

	"github.com/jrsteele09/go-booklet-session/authclient/authtest"
	"github.com/jrsteele09/go-booklet-session/authmodel"
	"github.com/jrsteele09/go-booklet-session/internal/config"
	autherrors "github.com/jrsteele09/go-booklet-session/internal/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupTestFixture(t *testing.T) (*authtest.Server, *app) {
	t.Helper()
	srv := authtest.NewServer()
	t.Cleanup(srv.Close)
	t.Setenv("AUTH_SERVICE_URL", srv.URL)
	t.Setenv("STORAGE", "memory")

	a, err := newApp(config.New(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(a.close)
	return srv, a
}

func TestApp_LoginWithPassword(t *testing.T) {
	srv, a := setupTestFixture(t)
	srv.AddUser("jane@example.com", "", "hunter22", true)

	require.NoError(t, a.login(context.Background(), flags{identity: "jane@example.com", password: "hunter22"}))
	require.True(t, a.manager.IsAuthenticated())

	expected := `
# HELP session_authenticated 1 while a credential is held, 0 when signed out.
# TYPE session_authenticated gauge
session_authenticated 1
`
	require.NoError(t, testutil.GatherAndCompare(a.registry, strings.NewReader(expected), "session_authenticated"))

	require.NoError(t, a.shutdown(true))
	require.False(t, a.manager.IsAuthenticated())
}

func TestApp_LoginWithoutIdentityDoesNothing(t *testing.T) {
	_, a := setupTestFixture(t)
	require.NoError(t, a.login(context.Background(), flags{}))
	require.False(t, a.manager.IsAuthenticated())

	require.Error(t, a.login(context.Background(), flags{identity: "jane@example.com"}))
}

func TestApp_MFASendsCode(t *testing.T) {
	srv, a := setupTestFixture(t)
	srv.AddUser("jane@example.com", "", "hunter22", true)
	srv.RequireMFA("jane@example.com")

	err := a.login(context.Background(), flags{identity: "jane@example.com", password: "hunter22"})
	require.ErrorIs(t, err, autherrors.ErrMFARequired)

	otp := srv.OTP("jane@example.com", authmodel.PurposeMultiFactorLogin)
	require.NotEmpty(t, otp)
	require.NoError(t, a.login(context.Background(), flags{identity: "jane@example.com", otp: otp}))
	require.True(t, a.manager.IsAuthenticated())
}

func TestApp_SendLoginOTP(t *testing.T) {
	srv, a := setupTestFixture(t)
	srv.AddUser("jane@example.com", "", "hunter22", true)

	require.Error(t, a.sendLoginOTP(context.Background(), ""))
	require.NoError(t, a.sendLoginOTP(context.Background(), "jane@example.com"))
	require.NotEmpty(t, srv.OTP("jane@example.com", authmodel.PurposeLogin))
}
