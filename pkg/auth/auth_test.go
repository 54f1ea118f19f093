package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

const testService = "churnctl-test"

func TestNewDeviceFlow_EmptyClientID(t *testing.T) {
	_, err := NewDeviceFlow("")
	assert.Error(t, err)
}

func TestWait_NilCode(t *testing.T) {
	f, err := NewDeviceFlow("test-client")
	require.NoError(t, err)
	_, err = f.Wait(t.Context(), nil)
	assert.Error(t, err)
}

func TestDeviceFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login/device/code", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "test-client", r.Form.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "dc_test",
			"user_code":        "ABCD-1234",
			"verification_uri": "https://github.com/login/device",
			"expires_in":       900,
			"interval":         1,
		})
	})
	mux.HandleFunc("POST /login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "dc_test", r.Form.Get("device_code"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "gho_test123",
			"token_type":   "bearer",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f, err := NewDeviceFlowWithEndpoint("test-client", oauth2.Endpoint{
		DeviceAuthURL: srv.URL + "/login/device/code",
		TokenURL:      srv.URL + "/login/oauth/access_token",
	})
	require.NoError(t, err)

	code, err := f.Start(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ABCD-1234", code.UserCode)
	assert.Equal(t, "https://github.com/login/device", code.VerificationURI)

	tok, err := f.Wait(t.Context(), code)
	require.NoError(t, err)
	assert.Equal(t, "gho_test123", tok.AccessToken)
}

func TestDeviceFlow_StartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	f, err := NewDeviceFlowWithEndpoint("test-client", oauth2.Endpoint{
		DeviceAuthURL: srv.URL,
		TokenURL:      srv.URL,
	})
	require.NoError(t, err)

	_, err = f.Start(t.Context())
	assert.Error(t, err)
}

func TestStore_Keychain(t *testing.T) {
	keyring.MockInit()
	s := &Store{Service: testService, Dir: t.TempDir()}

	_, err := s.Get()
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, s.Save(" ghp_abc \n"))
	tok, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc", tok)

	_, err = os.Stat(filepath.Join(s.Dir, tokenFileName))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, s.Delete())
	_, err = s.Get()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestStore_FileFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("no keychain"))
	s := &Store{Service: testService, Dir: t.TempDir()}

	require.NoError(t, s.Save("ghp_file"))

	info, err := os.Stat(filepath.Join(s.Dir, tokenFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	tok, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "ghp_file", tok)

	require.NoError(t, s.Delete())
	_, err = s.Get()
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestStore_MigratesFileToKeychain(t *testing.T) {
	keyring.MockInit()
	s := &Store{Service: testService, Dir: t.TempDir()}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, tokenFileName), []byte("ghp_old"), fileMode))

	tok, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "ghp_old", tok)

	_, err = os.Stat(filepath.Join(s.Dir, tokenFileName))
	assert.ErrorIs(t, err, os.ErrNotExist)

	fromKeychain, err := keyring.Get(testService, keyringUser)
	require.NoError(t, err)
	assert.Equal(t, "ghp_old", fromKeychain)
}

func TestStore_SaveEmpty(t *testing.T) {
	keyring.MockInit()
	s := &Store{Service: testService, Dir: t.TempDir()}
	assert.Error(t, s.Save("  "))
}
