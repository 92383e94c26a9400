package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Md-Afzal3135/optihub.project/internal/api"
	"github.com/Md-Afzal3135/optihub.project/internal/domain"
	"github.com/Md-Afzal3135/optihub.project/internal/storage"
	"github.com/Md-Afzal3135/optihub.project/internal/stubapi"
)

func setupTestSession(t *testing.T) (*Store, *storage.MemoryStore) {
	stub := stubapi.New()
	stub.SeedUser("Asha", "a@b.com", "asha", "pw")

	server := httptest.NewServer(stub.Handler())
	t.Cleanup(server.Close)

	slots := storage.NewMemoryStore()
	client := api.New(server.URL, nil)
	return New(client, slots), slots
}

func TestLogin_PublishesIdentityAndPersistsBothSlots(t *testing.T) {
	store, slots := setupTestSession(t)

	user, err := store.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, user, store.Current())

	_, err = slots.Get(storage.SlotCredentials)
	assert.NoError(t, err)
	_, err = slots.Get(storage.SlotIdentity)
	assert.NoError(t, err)
}

func TestLogin_BadCredentials(t *testing.T) {
	store, slots := setupTestSession(t)

	_, err := store.Login(context.Background(), "a@b.com", "wrong")

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Nil(t, store.Current())

	_, err = slots.Get(storage.SlotCredentials)
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)
	_, err = slots.Get(storage.SlotIdentity)
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)
}

func TestLogin_ProfileFailureRollsBackCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/login/":
			w.Write([]byte(`{"access":"acc","refresh":"ref"}`))
		case "/users/profile/":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	slots := storage.NewMemoryStore()
	store := New(api.New(server.URL, nil), slots)

	_, err := store.Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)

	// No partial state: nothing published, nothing persisted.
	assert.Nil(t, store.Current())
	_, err = slots.Get(storage.SlotCredentials)
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)
	_, err = slots.Get(storage.SlotIdentity)
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)
}

func TestRegister_PublishesIdentity(t *testing.T) {
	store, slots := setupTestSession(t)

	user, err := store.Register(context.Background(), "Ravi", "r@b.com", "ravi", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ravi", user.Username)
	assert.Equal(t, user, store.Current())

	_, err = slots.Get(storage.SlotCredentials)
	assert.NoError(t, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store, _ := setupTestSession(t)

	_, err := store.Register(context.Background(), "Asha Two", "a@b.com", "asha2", "pw")

	var valErr *api.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.NotEmpty(t, valErr.Fields["email"])
	assert.Nil(t, store.Current())
}

func TestLogout_ClearsEverything(t *testing.T) {
	store, slots := setupTestSession(t)

	_, err := store.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	var published []*domain.User
	store.Subscribe(func(u *domain.User) { published = append(published, u) })

	store.Logout()

	assert.Nil(t, store.Current())
	require.Len(t, published, 1)
	assert.Nil(t, published[0])

	_, err = slots.Get(storage.SlotCredentials)
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)
	_, err = slots.Get(storage.SlotIdentity)
	assert.ErrorIs(t, err, storage.ErrSlotNotFound)
}

func TestHydration_ReadsSlotsWithoutNetwork(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	slots := storage.NewMemoryStore()
	require.NoError(t, slots.Set(storage.SlotCredentials, []byte(`{"access":"acc","refresh":"ref"}`)))
	require.NoError(t, slots.Set(storage.SlotIdentity, []byte(`{"id":3,"name":"Asha","email":"a@b.com","username":"asha"}`)))

	store := New(api.New(server.URL, nil), slots)

	require.NotNil(t, store.Current())
	assert.Equal(t, int64(3), store.Current().ID)
	assert.Zero(t, requests, "hydration must not touch the network")
}

func TestHydration_IgnoresUnreadableSlots(t *testing.T) {
	slots := storage.NewMemoryStore()
	require.NoError(t, slots.Set(storage.SlotIdentity, []byte(`not json`)))

	store := New(api.New("http://localhost:0", nil), slots)
	assert.Nil(t, store.Current())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	store, _ := setupTestSession(t)

	var calls int
	unsubscribe := store.Subscribe(func(*domain.User) { calls++ })

	_, err := store.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	unsubscribe()
	store.Logout()
	assert.Equal(t, 1, calls, "listener must not fire after unsubscribe")
}
