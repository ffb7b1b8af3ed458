package fint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_StudentMobilePhonePrefersSchoolContact(t *testing.T) {
	var request graphqlRequest
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graphql/graphql", r.URL.Path)
		var body, _ = io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &request)
		_, _ = fmt.Fprint(w, `{"data":{"elev":{"person":{"kontaktinformasjon":{"mobiltelefonnummer":"11111111"}},"kontaktinformasjon":{"mobiltelefonnummer":"22222222"}}}}`)
	}))
	defer server.Close()
	var client = NewClient(context.Background(), Parameters{
		BaseUrl:         server.URL,
		FeideNameDomain: "@vestfoldfylke.no",
	}, WithHTTPClient(server.Client()))

	var phone, err = client.StudentMobilePhone(context.Background(), "foo.bar@skole.vestfoldfylke.no")

	require.NoError(t, err)
	assert.Equal(t, "22222222", phone)
	assert.Contains(t, request.Query, "elev(feidenavn: $feidenavn)")
	assert.Equal(t, map[string]any{"feidenavn": "foo.bar@vestfoldfylke.no"}, request.Variables)
}

func TestClient_StudentMobilePhoneSendsFeideNameVerbatim(t *testing.T) {
	var request graphqlRequest
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body, _ = io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &request)
		_, _ = fmt.Fprint(w, `{"data":{"elev":null}}`)
	}))
	defer server.Close()
	var client = NewClient(context.Background(), Parameters{
		BaseUrl:         server.URL,
		FeideNameDomain: "@vestfoldfylke.no",
	}, WithHTTPClient(server.Client()))

	var phone, err = client.StudentMobilePhone(context.Background(), "o\"brien\u0007@skole.vestfoldfylke.no")

	require.NoError(t, err)
	assert.Empty(t, phone)
	assert.Equal(t, studentQuery, request.Query)
	assert.Equal(t, "o\"brien\u0007@vestfoldfylke.no", request.Variables["feidenavn"])
}

func TestClient_StudentMobilePhoneFallsBackToPerson(t *testing.T) {
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"data":{"elev":{"person":{"kontaktinformasjon":{"mobiltelefonnummer":"11111111"}},"kontaktinformasjon":null}}}`)
	}))
	defer server.Close()
	var client = NewClient(context.Background(), Parameters{BaseUrl: server.URL}, WithHTTPClient(server.Client()))

	var phone, err = client.StudentMobilePhone(context.Background(), "foo@skole.no")

	require.NoError(t, err)
	assert.Equal(t, "11111111", phone)
}

func TestClient_StudentMobilePhoneGraphQLError(t *testing.T) {
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"errors":[{"message":"elev not found"}],"data":{"elev":null}}`)
	}))
	defer server.Close()
	var client = NewClient(context.Background(), Parameters{BaseUrl: server.URL}, WithHTTPClient(server.Client()))

	var phone, err = client.StudentMobilePhone(context.Background(), "foo@skole.no")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "elev not found")
	assert.Empty(t, phone)
}

func TestFolkClient_StudentMobilePhone(t *testing.T) {
	var server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/student/upn/foo@skole.no", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("skipCache"))
		_, _ = fmt.Fprint(w, `{"feidenavn":"foo@vfk.no","upn":"foo@skole.no","kontaktMobiltelefonnummer":"","privatMobiltelefonnummer":"33333333"}`)
	}))
	defer server.Close()
	var client = NewFolkClient(context.Background(), FolkParameters{BaseUrl: server.URL}, WithHTTPClient(server.Client()))

	var phone, err = client.StudentMobilePhone(context.Background(), "foo@skole.no")

	require.NoError(t, err)
	assert.Equal(t, "33333333", phone)
}

func TestFolkClient_NotFound(t *testing.T) {
	var server = httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	var client = NewFolkClient(context.Background(), FolkParameters{BaseUrl: server.URL}, WithHTTPClient(server.Client()))

	var _, err = client.StudentMobilePhone(context.Background(), "foo@skole.no")

	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	var doc = map[string]any{"a": map[string]any{"b": "  c "}}

	var v, ok = firstString(doc, []string{"a", "x"}, []string{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, "c", v)

	_, ok = lookup(doc, "a", "b", "c")
	assert.False(t, ok)
}
