package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/safetyserv/safetyserv/guard"
	"github.com/safetyserv/safetyserv/test"
	"github.com/stretchr/testify/assert"
)

func TestGuardValidate(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/guard/validate", test.MakeJsonBody(t, map[string]any{
		"text": "AI에 대해 궁금한 것이 있어요.",
	}))
	httpGuardValidateApi(api, w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	test.AssertJsonBody(t, w, &guardValidateResponse{Valid: true, Message: guard.SafeInputMessage})

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/v1/guard/validate", test.MakeJsonBody(t, map[string]any{
		"text": "How does Anthropic train models?",
	}))
	httpGuardValidateApi(api, w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	res := test.DecodeJsonBody[guardValidateResponse](t, w)
	assert.False(t, res.Valid)
	assert.True(t, strings.HasPrefix(res.Message, guard.UnsafeInputMessage))
	assert.Contains(t, res.Message, "Anthropic")
}

func TestGuardValidateConfigOverride(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/guard/validate", test.MakeJsonBody(t, map[string]any{
		"text":   "How does Anthropic train models?",
		"config": map[string]any{"competitor_check_enabled": false},
	}))
	httpGuardValidateApi(api, w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	test.AssertJsonBody(t, w, &guardValidateResponse{Valid: true, Message: guard.SafeInputMessage})

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/v1/guard/validate", test.MakeJsonBody(t, map[string]any{
		"text":   "hello",
		"config": map[string]any{"toxic_language_method": "paragraph"},
	}))
	httpGuardValidateApi(api, w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	test.AssertApiError(t, w, "SS_INVALID_PARAM", "unsupported toxic language validation method 'paragraph'")

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/v1/guard/validate", test.MakeJsonBody(t, map[string]any{
		"text":   "hello",
		"config": map[string]any{"competitors": "not a list"},
	}))
	httpGuardValidateApi(api, w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	test.AssertApiError(t, w, "SS_BAD_JSON", "Invalid guard config")
}

func TestGuardValidateWrongMethod(t *testing.T) {
	t.Parallel()

	api := makeApi(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/guard/validate", nil)
	httpGuardValidateApi(api, w, r)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	test.AssertApiError(t, w, "SS_UNRECOGNIZED", "Method not allowed")
}
