package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/consentd/internal/cache"
	"github.com/dropDatabas3/consentd/internal/http/controllers"
	"github.com/dropDatabas3/consentd/internal/http/router"
	"github.com/dropDatabas3/consentd/internal/profile"
	"github.com/dropDatabas3/consentd/internal/security/opaque"
	"github.com/dropDatabas3/consentd/internal/security/token"
	authsvc "github.com/dropDatabas3/consentd/internal/service/authorisation"
	consentsvc "github.com/dropDatabas3/consentd/internal/service/consent"
	"github.com/dropDatabas3/consentd/internal/service/expiration"
	"github.com/dropDatabas3/consentd/internal/service/lifecycle"
	usagesvc "github.com/dropDatabas3/consentd/internal/service/usage"
	"github.com/dropDatabas3/consentd/internal/store/adapters/memory"
)

func newTestServer(t *testing.T, authDisabled bool) *httptest.Server {
	t.Helper()
	st := memory.New()
	codec, err := opaque.New(bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	prov := profile.Static{S: profile.Settings{MaxConsentValidityDays: 90}}
	cc := cache.NewMemory(cache.Config{})
	watchdog := expiration.New(prov)
	consents := consentsvc.New(st, prov, watchdog)
	authorisations := authsvc.New(st, prov, watchdog)
	usages := usagesvc.New(st, prov)
	lc := lifecycle.New(st, codec, cc, prov, consents, authorisations, usages, watchdog)

	h := router.New(router.Deps{
		Consents:        controllers.NewConsentController(lc),
		Authorisations:  controllers.NewAuthorisationController(lc),
		Payments:        controllers.NewPaymentController(lc),
		Health:          controllers.NewHealthController(cc),
		TokenVerifier:   token.NewVerifier("test-secret"),
		AuthDisabled:    authDisabled,
		DefaultInstance: "default",
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("{}")
	} else {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestConsentFlow_EndToEnd(t *testing.T) {
	srv := newTestServer(t, true)
	base := srv.URL + "/api/v1"

	// Crear el consent.
	resp, body := doJSON(t, http.MethodPost, base+"/consents", `{
		"access": {"accounts": [{"resourceId": "r1", "iban": "ES9121000418450200051332"}]},
		"recurringIndicator": true,
		"frequencyPerDay": 4,
		"validUntil": "2030-01-01",
		"psu": {"psuId": "P1"},
		"tppAuthorisationNumber": "PSDES-BDE-3DFD21"
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "received", body["consentStatus"])

	consentID, _ := body["consentId"].(string)
	require.NotEmpty(t, consentID)

	// Estado inicial.
	resp, body = doJSON(t, http.MethodGet, base+"/consents/"+consentID+"/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "received", body["consentStatus"])

	// Abrir la sesión SCA.
	resp, body = doJSON(t, http.MethodPost, base+"/consents/"+consentID+"/authorisations", `{
		"psu": {"psuId": "P1"},
		"scaApproach": "redirect"
	}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "psuIdentified", body["scaStatus"])

	authID, _ := body["authorisationId"].(string)
	require.NotEmpty(t, authID)

	// Finalizarla: el consent pasa a valid.
	resp, body = doJSON(t, http.MethodPut, base+"/consents/"+consentID+"/authorisations/"+authID, `{
		"scaStatus": "finalised"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "finalised", body["scaStatus"])

	resp, body = doJSON(t, http.MethodGet, base+"/consents/"+consentID+"/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "valid", body["consentStatus"])

	// Contabilizar un uso.
	resp, body = doJSON(t, http.MethodPost, base+"/consents/"+consentID+"/usages", `{
		"requestUri": "/accounts/r1",
		"resourceId": "r1"
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "valid", body["consentStatus"])

	// Revocación del TPP.
	resp, body = doJSON(t, http.MethodDelete, base+"/consents/"+consentID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "terminatedByTpp", body["consentStatus"])

	// Terminal: un segundo DELETE es conflicto.
	resp, body = doJSON(t, http.MethodDelete, base+"/consents/"+consentID, "")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "STATUS_INVALID", body["code"])
}

func TestCreateConsent_MissingTppNumber(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/consents", `{
		"recurringIndicator": true,
		"frequencyPerDay": 4
	}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_FIELDS", body["code"])
}

func TestGetConsent_GarbageIDIsTechnicalError(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/consents/not-a-token", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "TOKEN_NOT_DECRYPTABLE", body["code"])
}

func TestAuthEnabled_RejectsMissingToken(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/consents/whatever/status", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body["code"])
}

func TestAuthEnabled_AcceptsServiceToken(t *testing.T) {
	srv := newTestServer(t, false)

	tok, err := token.NewVerifier("test-secret").Issue("api-gateway", time.Hour)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Con bearer válido el request pasa auth y llega al handler (404 del
	// token opaco inválido se convierte en fallo técnico, no en 401).
	req, err = http.NewRequest(http.MethodGet, srv.URL+"/api/v1/consents/garbage/status", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
