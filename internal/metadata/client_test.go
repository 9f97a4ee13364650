package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCredentialsResolveFallsBackToTwitch(t *testing.T) {
	creds := Credentials{TwitchClientID: "tid", TwitchClientSecret: "tsecret"}
	id, secret, ok := creds.Resolve()
	require.True(t, ok)
	require.Equal(t, "tid", id)
	require.Equal(t, "tsecret", secret)
}

func TestCredentialsResolvePrefersIGDB(t *testing.T) {
	creds := Credentials{
		IGDBClientID: "igdb-id", IGDBClientSecret: "igdb-secret",
		TwitchClientID: "tid", TwitchClientSecret: "tsecret",
	}
	id, secret, ok := creds.Resolve()
	require.True(t, ok)
	require.Equal(t, "igdb-id", id)
	require.Equal(t, "igdb-secret", secret)
}

func TestCredentialsResolveFailsWithoutEither(t *testing.T) {
	_, _, ok := Credentials{}.Resolve()
	require.False(t, ok)
}

func TestLookupQueriesAndCaches(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok123","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	calls := 0
	gamesServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1942,"name":"Zombie Army 4","alternative_names":[{"name":"ZA4"}]}]`))
	}))
	defer gamesServer.Close()

	client, err := New(Credentials{TwitchClientID: "id", TwitchClientSecret: "secret"})
	require.NoError(t, err)
	client.oauth.TokenURL = tokenServer.URL
	client.baseURL = gamesServer.URL

	result, err := client.Lookup(context.Background(), "Zombie Army 4")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, "Zombie Army 4", result.CanonicalName)
	require.Equal(t, []string{"ZA4"}, result.AlternativeNames)

	_, err = client.Lookup(context.Background(), "Zombie Army 4")
	require.NoError(t, err)
	require.Equal(t, 1, calls, "second lookup should be served from cache")
}

func TestValidateExactMatchIsFullConfidence(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok123","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()
	gamesServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"Hollow Knight","alternative_names":[]}]`))
	}))
	defer gamesServer.Close()

	client, err := New(Credentials{TwitchClientID: "id", TwitchClientSecret: "secret"})
	require.NoError(t, err)
	client.oauth.TokenURL = tokenServer.URL
	client.baseURL = gamesServer.URL

	name, confidence, ok := client.Validate("hollow knight")
	require.True(t, ok)
	require.Equal(t, "Hollow Knight", name)
	require.Equal(t, 1.0, confidence)
}
