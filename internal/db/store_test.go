package db

import "testing"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return store
}

func TestGet_MissingKeyReturnsEmpty(t *testing.T) {
	store := newTestStore(t)
	v, err := store.Get("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "" {
		t.Fatalf("expected empty value for missing key, got %q", v)
	}
}

func TestSet_OverwritesPreviousValue(t *testing.T) {
	store := newTestStore(t)
	if err := store.SetAPIKey("sk-first"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetAPIKey("sk-second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err := store.APIKey()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "sk-second" {
		t.Fatalf("expected overwritten value, got %q", v)
	}
}

func TestAccessToken_DeleteRoundTrip(t *testing.T) {
	store := newTestStore(t)
	if err := store.SetAccessToken("figd_token"); err != nil {
		t.Fatalf("set token: %v", err)
	}
	v, err := store.AccessToken()
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if v != "figd_token" {
		t.Fatalf("expected cached token, got %q", v)
	}

	if err := store.DeleteAccessToken(); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	v, err = store.AccessToken()
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if v != "" {
		t.Fatalf("expected token gone after delete, got %q", v)
	}

	// Deleting again is not an error.
	if err := store.DeleteAccessToken(); err != nil {
		t.Fatalf("double delete: %v", err)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	store := newTestStore(t)
	if err := store.SetAPIKey("sk-test"); err != nil {
		t.Fatalf("set api key: %v", err)
	}
	if err := store.DeleteAccessToken(); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	v, err := store.APIKey()
	if err != nil {
		t.Fatalf("get api key: %v", err)
	}
	if v != "sk-test" {
		t.Fatalf("api key lost after token delete, got %q", v)
	}
}
