package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usershub-go/usershub/internal/db/models"
)

func TestManagerRegister(t *testing.T) {
	db := setupTestDB(t)
	m := NewManager(db)

	p := newFakeProvider("idp", nil)
	require.NoError(t, m.Register(p))

	// The provider kind is recorded in the providers table.
	var row models.Provider
	require.NoError(t, db.Where("name = ?", "fake").First(&row).Error)
	assert.Equal(t, "https://idp.example.org", row.URL)

	// Same id again is rejected.
	require.ErrorIs(t, m.Register(newFakeProvider("idp", nil)), ErrDuplicateProvider)

	// Re-registering after a restart reuses the existing row.
	m2 := NewManager(db)
	require.NoError(t, m2.Register(newFakeProvider("idp", nil)))

	var count int64
	db.Model(&models.Provider{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestManagerGet(t *testing.T) {
	db := setupTestDB(t)
	m := NewManager(db)
	require.NoError(t, m.Register(newFakeProvider("idp", nil)))

	p, err := m.Get("idp")
	require.NoError(t, err)
	assert.Equal(t, "idp", p.ID())

	_, err = m.Get("nope")
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestManagerDispatch(t *testing.T) {
	db := setupTestDB(t)
	m := NewManager(db)

	_, err := m.Authenticate(context.Background(), "nope", Credentials{})
	require.ErrorIs(t, err, ErrUnknownProvider)

	_, err = m.Authorize(context.Background(), "nope", CallbackData{})
	require.ErrorIs(t, err, ErrUnknownProvider)

	_, err = m.Revoke(context.Background(), "nope", "")
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestManagerInitProviders(t *testing.T) {
	testCases := []struct {
		name          string
		declarations  []map[string]any
		expectedError error
		expectedIDs   []string
	}{
		{
			name: "two local instances",
			declarations: []map[string]any{
				{"module": KindLocal, "id_provider": "local"},
				{"module": KindLocal, "id_provider": "legacy", "label": "Legacy accounts"},
			},
			expectedIDs: []string{"legacy", "local"},
		},
		{
			name: "unknown kind",
			declarations: []map[string]any{
				{"module": "telepathy", "id_provider": "mind"},
			},
			expectedError: ErrUnknownProviderKind,
		},
		{
			name: "duplicate instance id",
			declarations: []map[string]any{
				{"module": KindLocal, "id_provider": "local"},
				{"module": KindLocal, "id_provider": "local"},
			},
			expectedError: ErrDuplicateProvider,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db := setupTestDB(t)
			m := NewManager(db)
			deps := Deps{DB: db, Reconciler: NewReconciler(db, 0)}

			err := m.InitProviders(tc.declarations, deps)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)

				return
			}

			require.NoError(t, err)

			providers := m.Providers()
			ids := make([]string, len(providers))
			for i, p := range providers {
				ids[i] = p.ID()
			}

			assert.Equal(t, tc.expectedIDs, ids)
		})
	}
}

// A declaration missing a required schema key must fail startup, naming
// the key.
func TestManagerInitProvidersSchemaValidation(t *testing.T) {
	db := setupTestDB(t)
	m := NewManager(db)
	deps := Deps{DB: db, Reconciler: NewReconciler(db, 0)}

	err := m.InitProviders([]map[string]any{
		{"module": KindCAS, "id_provider": "inpn", "login_url": "https://cas.example.org/login"},
	}, deps)

	var configurationErr *ConfigurationError
	require.ErrorAs(t, err, &configurationErr)
	assert.Equal(t, KindCAS, configurationErr.Provider)
	assert.Equal(t, "validate_url", configurationErr.Key)
}
