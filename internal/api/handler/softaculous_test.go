package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/softsso/internal/softaculous"
)

var testDesc = softaculous.Descriptor{
	Kind:     softaculous.BackendCPanel,
	Host:     "cp.example.com",
	Port:     2083,
	Username: "alice",
	Password: "pw",
	UseTLS:   true,
}

func newSoftaculousHandler(backend *mockBackend) (*Softaculous, *stubResolver) {
	res := &stubResolver{desc: testDesc}
	h := NewSoftaculous(res, func(desc softaculous.Descriptor) Backend {
		return backend
	})
	h.settle = 0
	return h, res
}

func actionBody(action string, extra map[string]any) map[string]any {
	body := map[string]any{"action": action, "service_id": validServiceID}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

// --- Action: request validation ---

func TestSoftaculousAction_InvalidJSON(t *testing.T) {
	h, res := newSoftaculousHandler(&mockBackend{})
	rec := httptest.NewRecorder()

	h.Action(rec, newRequestRaw(http.MethodPost, "/api/v1/softaculous", "{bad json"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "invalid JSON")
	assert.Empty(t, res.seen)
}

func TestSoftaculousAction_UnknownAction(t *testing.T) {
	h, _ := newSoftaculousHandler(&mockBackend{})
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("reboot", nil)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "validation error")
}

func TestSoftaculousAction_MissingServiceID(t *testing.T) {
	h, _ := newSoftaculousHandler(&mockBackend{})
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", map[string]any{"action": "list_installations"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSoftaculousAction_BadInstallationID(t *testing.T) {
	h, _ := newSoftaculousHandler(&mockBackend{})
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous",
		actionBody("remove", map[string]any{"installation_id": "../etc"})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Action: resolver failures ---

func TestSoftaculousAction_ServiceNotFound(t *testing.T) {
	h, res := newSoftaculousHandler(&mockBackend{})
	res.err = &softaculous.Error{Kind: softaculous.KindNotFound, Message: "hosting service 42 not found"}
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("list_installations", nil)))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "hosting service 42 not found", decodeErrorResponse(rec)["error"])
	assert.Equal(t, []string{validServiceID}, res.seen)
}

func TestSoftaculousAction_ResolverInternalError(t *testing.T) {
	h, res := newSoftaculousHandler(&mockBackend{})
	res.err = errors.New("connection refused")
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("list_installations", nil)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeErrorResponse(rec)["error"])
}

// --- Action: dispatch ---

func TestSoftaculousAction_ListInstallations(t *testing.T) {
	backend := &mockBackend{}
	backend.On("ListInstallations", mock.Anything).Return([]softaculous.Installation{
		{InstallationID: "26_7", SiteURL: "https://example.com", SoftwareVersion: "6.4.2"},
	}, nil)
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("list_installations", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(rec)
	installs := body["installations"].([]any)
	require.Len(t, installs, 1)
	assert.Equal(t, "26_7", installs[0].(map[string]any)["installation_id"])
	backend.AssertExpectations(t)
}

func TestSoftaculousAction_Install(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Install", mock.Anything, softaculous.InstallParams{
		Domain:    "example.com",
		Directory: "blog",
		SiteName:  "Blog",
	}).Return(softaculous.InstallResult{
		SiteURL:       "https://example.com/blog",
		AdminUsername: "wp_abc123",
		AdminPassword: "secret",
	}, nil)
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("install", map[string]any{
		"domain":    "example.com",
		"path":      "blog",
		"site_name": "Blog",
	})))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(rec)
	assert.Equal(t, true, body["success"])
	inst := body["installation"].(map[string]any)
	assert.Equal(t, "wp_abc123", inst["admin_username"])
	backend.AssertExpectations(t)
}

func TestSoftaculousAction_RemoveRejected(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Remove", mock.Anything, validInsID).
		Return(&softaculous.Error{Kind: softaculous.KindBackendRejected, Message: "Installation not found"})
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous",
		actionBody("remove", map[string]any{"installation_id": validInsID})))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Installation not found", decodeErrorResponse(rec)["error"])
}

func TestSoftaculousAction_BackendUnreachable(t *testing.T) {
	backend := &mockBackend{}
	backend.On("LatestVersion", mock.Anything).Return("", &softaculous.Error{Kind: softaculous.KindUnreachable})
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("latest_version", nil)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "unreachable", decodeErrorResponse(rec)["error"])
}

func TestSoftaculousAction_Clone(t *testing.T) {
	backend := &mockBackend{}
	backend.On("Clone", mock.Anything, softaculous.CloneParams{
		InstallationID: validInsID,
		Domain:         "staging.example.com",
		Directory:      "copy",
		Staging:        true,
	}).Return(softaculous.CloneResult{URL: "https://staging.example.com/copy"}, nil)
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("clone", map[string]any{
		"installation_id": validInsID,
		"domain":          "staging.example.com",
		"directory":       "copy",
		"staging":         true,
	})))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://staging.example.com/copy", decodeResponse(rec)["url"])
}

func TestSoftaculousAction_AutoUpgrade(t *testing.T) {
	backend := &mockBackend{}
	backend.On("GetAutoUpgrade", mock.Anything, validInsID).
		Return(softaculous.AutoUpgrade{Core: true}, nil)
	backend.On("SetAutoUpgrade", mock.Anything, validInsID, softaculous.AutoUpgrade{Plugins: true, Themes: true}).
		Return(nil)
	h, _ := newSoftaculousHandler(backend)

	rec := httptest.NewRecorder()
	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous",
		actionBody("get_auto_upgrade", map[string]any{"installation_id": validInsID})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeResponse(rec)["auto_upgrade_core"])

	rec = httptest.NewRecorder()
	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("set_auto_upgrade", map[string]any{
		"installation_id": validInsID,
		"auto_plugins":    true,
		"auto_themes":     true,
	})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeResponse(rec)["success"])
	backend.AssertExpectations(t)
}

func TestSoftaculousAction_ListPluginsAndThemes(t *testing.T) {
	backend := &mockBackend{}
	backend.On("ListPlugins", mock.Anything, validInsID).Return([]softaculous.Extension{
		{Key: "akismet/akismet.php", Name: "Akismet", Active: true},
	}, nil)
	backend.On("ListThemes", mock.Anything, validInsID).Return([]softaculous.Extension{}, nil)
	h, _ := newSoftaculousHandler(backend)

	rec := httptest.NewRecorder()
	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous",
		actionBody("list_plugins", map[string]any{"installation_id": validInsID})))
	require.Equal(t, http.StatusOK, rec.Code)
	plugins := decodeResponse(rec)["plugins"].([]any)
	require.Len(t, plugins, 1)
	assert.Equal(t, "akismet/akismet.php", plugins[0].(map[string]any)["_key"])

	rec = httptest.NewRecorder()
	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous",
		actionBody("list_themes", map[string]any{"installation_id": validInsID})))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeResponse(rec), "themes")
}

func TestSoftaculousAction_TogglePlugin(t *testing.T) {
	backend := &mockBackend{}
	backend.On("TogglePlugin", mock.Anything, validInsID, "akismet/akismet.php", softaculous.PluginActivate).Return(nil)
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("toggle_plugin", map[string]any{
		"installation_id": validInsID,
		"slug":            "akismet/akismet.php",
		"plugin_action":   "activate",
	})))

	require.Equal(t, http.StatusOK, rec.Code)
	backend.AssertExpectations(t)
}

func TestSoftaculousAction_DeleteActivePluginDeactivatesFirst(t *testing.T) {
	backend := &mockBackend{}
	var order []string
	backend.On("TogglePlugin", mock.Anything, validInsID, "hello.php", softaculous.PluginDeactivate).
		Run(func(mock.Arguments) { order = append(order, "deactivate") }).
		Return(errors.New("already inactive"))
	backend.On("DeletePlugin", mock.Anything, validInsID, "hello.php").
		Run(func(mock.Arguments) { order = append(order, "delete") }).
		Return(nil)
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("delete_plugin", map[string]any{
		"installation_id": validInsID,
		"slug":            "hello.php",
		"is_active":       true,
	})))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"deactivate", "delete"}, order)
}

func TestSoftaculousAction_DeleteInactivePlugin(t *testing.T) {
	backend := &mockBackend{}
	backend.On("DeletePlugin", mock.Anything, validInsID, "hello.php").Return(nil)
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous", actionBody("delete_plugin", map[string]any{
		"installation_id": validInsID,
		"slug":            "hello.php",
	})))

	require.Equal(t, http.StatusOK, rec.Code)
	backend.AssertNotCalled(t, "TogglePlugin", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSoftaculousAction_SignOn(t *testing.T) {
	backend := &mockBackend{}
	backend.On("SignOnURL", mock.Anything, validInsID).Return("https://example.com/wp-login.php?token=x", nil)
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.Action(rec, newRequest(http.MethodPost, "/api/v1/softaculous",
		actionBody("sign_on", map[string]any{"installation_id": validInsID})))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com/wp-login.php?token=x", decodeResponse(rec)["url"])
}

// --- SSO ---

func TestSoftaculousSSO_Redirects(t *testing.T) {
	backend := &mockBackend{}
	backend.On("SignOnURL", mock.Anything, validInsID).Return("https://example.com/wp-admin/?sso=1", nil)
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.SSO(rec, newRequest(http.MethodGet, "/api/v1/softaculous/sso?service_id=42&installation_id=26_7", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/wp-admin/?sso=1", rec.Header().Get("Location"))
}

func TestSoftaculousSSO_MissingParams(t *testing.T) {
	h, res := newSoftaculousHandler(&mockBackend{})
	rec := httptest.NewRecorder()

	h.SSO(rec, newRequest(http.MethodGet, "/api/v1/softaculous/sso?service_id=42", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, res.seen)
}

func TestSoftaculousSSO_AuthFailed(t *testing.T) {
	backend := &mockBackend{}
	backend.On("SignOnURL", mock.Anything, validInsID).
		Return("", &softaculous.Error{Kind: softaculous.KindAuthFailed, Message: "login rejected"})
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	h.SSO(rec, newRequest(http.MethodGet, "/api/v1/softaculous/sso?service_id=42&installation_id=26_7", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// --- Upload ---

func TestSoftaculousUpload_Success(t *testing.T) {
	backend := &mockBackend{}
	backend.On("UploadPlugin", mock.Anything, validInsID, "my-plugin.zip", []byte("PK\x03\x04zip")).Return(nil)
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	r := newMultipartRequest("/api/v1/softaculous/upload", map[string]string{
		"service_id":      validServiceID,
		"installation_id": validInsID,
	}, "my-plugin.zip", []byte("PK\x03\x04zip"))
	h.Upload(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Plugin uploaded successfully!")
	assert.Contains(t, rec.Body.String(), "window.close()")
	backend.AssertExpectations(t)
}

func TestSoftaculousUpload_RejectsNonZip(t *testing.T) {
	h, res := newSoftaculousHandler(&mockBackend{})
	rec := httptest.NewRecorder()

	r := newMultipartRequest("/api/v1/softaculous/upload", map[string]string{
		"service_id":      validServiceID,
		"installation_id": validInsID,
	}, "evil.php", []byte("<?php"))
	h.Upload(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "only ZIP files")
	assert.Empty(t, res.seen)
}

func TestSoftaculousUpload_MissingFile(t *testing.T) {
	h, _ := newSoftaculousHandler(&mockBackend{})
	rec := httptest.NewRecorder()

	r := newMultipartRequest("/api/v1/softaculous/upload", map[string]string{
		"service_id":      validServiceID,
		"installation_id": validInsID,
	}, "", nil)
	h.Upload(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no file selected")
}

func TestSoftaculousUpload_EscapesBackendMessage(t *testing.T) {
	backend := &mockBackend{}
	backend.On("UploadPlugin", mock.Anything, validInsID, "p.zip", mock.Anything).
		Return(&softaculous.Error{Kind: softaculous.KindBackendRejected, Message: "<b>bad archive</b>"})
	h, _ := newSoftaculousHandler(backend)
	rec := httptest.NewRecorder()

	r := newMultipartRequest("/api/v1/softaculous/upload", map[string]string{
		"service_id":      validServiceID,
		"installation_id": validInsID,
	}, "p.zip", []byte("PK"))
	h.Upload(rec, r)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;bad archive&lt;/b&gt;")
	assert.False(t, strings.Contains(rec.Body.String(), "<b>bad"))
}

func TestSoftaculousUpload_TooLarge(t *testing.T) {
	h, _ := newSoftaculousHandler(&mockBackend{})
	h.maxUpload = 64
	rec := httptest.NewRecorder()

	r := newMultipartRequest("/api/v1/softaculous/upload", map[string]string{
		"service_id":      validServiceID,
		"installation_id": validInsID,
	}, "big.zip", []byte(strings.Repeat("x", 1024)))
	h.Upload(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid upload")
}
