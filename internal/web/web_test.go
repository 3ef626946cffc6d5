package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/usershub-go/usershub/internal/auth"
	"github.com/usershub-go/usershub/internal/config"
	"github.com/usershub-go/usershub/internal/db/models"
	"github.com/usershub-go/usershub/internal/permissions"
	"github.com/usershub-go/usershub/internal/token"
	"github.com/usershub-go/usershub/internal/usermanager"
)

// newTestService wires a full service over an in-memory database with the
// local provider registered.
func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(models.All()...)
	require.NoError(t, err, "failed to migrate test database")

	cfg := &config.Config{
		Title: "UsersHub",
		Webserver: config.Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
		Security: config.Security{
			TokenSecret:     "test-secret",
			TokenTTLMinutes: 60,
			Password:        config.PasswordPolicy{MinLength: 6},
		},
	}

	reconciler := auth.NewReconciler(db, 0)
	manager := auth.NewManager(db)

	err = manager.InitProviders(
		[]map[string]any{{"module": auth.KindLocal, "id_provider": "local", "label": "Local account"}},
		auth.Deps{DB: db, Reconciler: reconciler},
	)
	require.NoError(t, err)

	resolver := permissions.NewResolver(db, permissions.NewCache())
	userManager := usermanager.NewManager(db, cfg.Security.Password, 0)

	return New(cfg, db, manager, resolver, userManager), db
}

func createUser(t *testing.T, db *gorm.DB, login, password string) *models.User {
	t.Helper()

	user := models.User{
		UUID:         uuid.New(),
		Login:        login,
		Email:        login + "@example.org",
		PasswordHash: models.HashPassword(password),
		Active:       true,
	}
	require.NoError(t, db.Create(&user).Error)

	return &user
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(fiberHeaderContentType, "application/json")

	return req
}

const fiberHeaderContentType = "Content-Type"

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, out))
}

func TestCheckAlive(t *testing.T) {
	service, _ := newTestService(t)

	resp, err := service.App.Test(httptest.NewRequest(http.MethodGet, "/checkalive", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListProviders(t *testing.T) {
	service, _ := newTestService(t)

	resp, err := service.App.Test(httptest.NewRequest(http.MethodGet, "/auth/providers", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Providers []map[string]any `json:"providers"`
	}
	decodeBody(t, resp, &body)

	require.Len(t, body.Providers, 1)
	assert.Equal(t, "local", body.Providers[0]["id_provider"])
	assert.Equal(t, auth.KindLocal, body.Providers[0]["module"])
}

func TestLogin(t *testing.T) {
	service, db := newTestService(t)
	createUser(t, db, "alice", "secret1")

	t.Run("valid credentials", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/auth/login/local",
			map[string]any{"login": "alice", "password": "secret1"})

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Token string         `json:"token"`
			User  map[string]any `json:"user"`
		}
		decodeBody(t, resp, &body)

		assert.NotEmpty(t, body.Token)
		assert.Equal(t, "alice", body.User["login"])
		assert.NotContains(t, body.User, "password_hash")
	})

	t.Run("wrong password", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/auth/login/local",
			map[string]any{"login": "alice", "password": "wrong"})

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown provider", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/auth/login/nope",
			map[string]any{"login": "alice", "password": "secret1"})

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRequireUser(t *testing.T) {
	service, db := newTestService(t)
	alice := createUser(t, db, "alice", "secret1")

	signed, err := token.Encode(alice.ID, 0, "test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		resp, err := service.App.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signed)

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		decodeBody(t, resp, &body)
		assert.Equal(t, "alice", body["login"])
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := token.Encode(alice.ID, 0, "test-secret", -time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+expired)

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("inactive account", func(t *testing.T) {
		bob := createUser(t, db, "bob", "secret1")
		require.NoError(t, db.Model(bob).Update("active", false).Error)

		signed, err := token.Encode(bob.ID, 0, "test-secret", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signed)

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCruvedEndpoint(t *testing.T) {
	service, db := newTestService(t)
	alice := createUser(t, db, "alice", "secret1")

	app := models.Application{Code: "GN", Name: "GeoNature"}
	require.NoError(t, db.Create(&app).Error)

	editor := models.Profile{Code: 3, Name: "Rédacteur"}
	require.NoError(t, db.Create(&editor).Error)

	grant := models.UserApplicationRight{RoleID: alice.ID, ProfileID: editor.ID, ApplicationID: app.ID}
	require.NoError(t, db.Create(&grant).Error)

	signed, err := token.Encode(alice.ID, app.ID, "test-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/permissions/cruved/GN", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := service.App.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		IDRole        int            `json:"id_role"`
		IDApplication int            `json:"id_application"`
		Cruved        map[string]int `json:"cruved"`
		MaxLevel      int            `json:"max_level"`
	}
	decodeBody(t, resp, &body)

	assert.Equal(t, alice.ID, body.IDRole)
	assert.Equal(t, app.ID, body.IDApplication)
	assert.Equal(t, 3, body.Cruved["R"])
	assert.Equal(t, 3, body.Cruved["D"])
	assert.Equal(t, 3, body.MaxLevel)

	t.Run("unknown application", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/permissions/cruved/NOPE", nil)
		req.Header.Set("Authorization", "Bearer "+signed)

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRegistrationFlow(t *testing.T) {
	service, db := newTestService(t)

	req := jsonRequest(t, http.MethodPost, "/register", map[string]any{
		"login":                 "alice",
		"first_name":            "Alice",
		"last_name":             "Liddell",
		"email":                 "alice@example.org",
		"password":              "secret1",
		"password_confirmation": "secret1",
	})

	resp, err := service.App.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The confirmation token travels out of band, never in the response.
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "confirmation_token")

	var temp models.TempUser
	require.NoError(t, db.First(&temp).Error)
	assert.NotContains(t, string(payload), temp.ConfirmationToken)

	resp, err = service.App.Test(httptest.NewRequest(http.MethodGet, "/register/confirm/"+temp.ConfirmationToken, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The promoted account can log in.
	login := jsonRequest(t, http.MethodPost, "/auth/login/local",
		map[string]any{"login": "alice", "password": "secret1"})

	resp, err = service.App.Test(login)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("weak password rejected", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/register", map[string]any{
			"login":                 "bob",
			"email":                 "bob@example.org",
			"password":              "short",
			"password_confirmation": "short",
		})

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("unknown confirmation token", func(t *testing.T) {
		resp, err := service.App.Test(httptest.NewRequest(http.MethodGet, "/register/confirm/never-issued", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	service, db := newTestService(t)
	createUser(t, db, "alice", "oldpass")

	// The response is identical whether the login exists or not.
	for _, login := range []string{"alice", "nobody"} {
		req := jsonRequest(t, http.MethodPost, "/password/forgot", map[string]any{"login": login})

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	var reset models.UserToken
	require.NoError(t, db.First(&reset).Error)

	req := jsonRequest(t, http.MethodPost, "/password/change", map[string]any{
		"token":                 reset.Token,
		"password":              "newpass",
		"password_confirmation": "newpass",
	})

	resp, err := service.App.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Old password out, new password in.
	login := jsonRequest(t, http.MethodPost, "/auth/login/local",
		map[string]any{"login": "alice", "password": "oldpass"})

	resp, err = service.App.Test(login)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	login = jsonRequest(t, http.MethodPost, "/auth/login/local",
		map[string]any{"login": "alice", "password": "newpass"})

	resp, err = service.App.Test(login)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("token consumed", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/password/change", map[string]any{
			"token":                 reset.Token,
			"password":              "another",
			"password_confirmation": "another",
		})

		resp, err := service.App.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
