package handler

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/softsso/internal/api/request"
	"github.com/edvin/softsso/internal/api/response"
	"github.com/edvin/softsso/internal/softaculous"
)

// DefaultMaxUploadBytes caps plugin archive uploads.
const DefaultMaxUploadBytes = 64 << 20

// Resolver turns a hosting service id into backend connection parameters.
type Resolver interface {
	Resolve(ctx context.Context, serviceID string) (softaculous.Descriptor, error)
}

// Backend is the subset of *softaculous.Client used by the handlers.
type Backend interface {
	ListInstallations(ctx context.Context) ([]softaculous.Installation, error)
	ScanInstallations(ctx context.Context) error
	Install(ctx context.Context, params softaculous.InstallParams) (softaculous.InstallResult, error)
	Remove(ctx context.Context, insID string) error
	Clone(ctx context.Context, params softaculous.CloneParams) (softaculous.CloneResult, error)
	GetAutoUpgrade(ctx context.Context, insID string) (softaculous.AutoUpgrade, error)
	SetAutoUpgrade(ctx context.Context, insID string, settings softaculous.AutoUpgrade) error
	Upgrade(ctx context.Context, insID string) (softaculous.UpgradeResult, error)
	CheckForUpdates(ctx context.Context, insID string) (softaculous.UpdateStatus, error)
	LatestVersion(ctx context.Context) (string, error)
	SignOnURL(ctx context.Context, insID string) (string, error)
	ListPlugins(ctx context.Context, insID string) ([]softaculous.Extension, error)
	ListThemes(ctx context.Context, insID string) ([]softaculous.Extension, error)
	TogglePlugin(ctx context.Context, insID, slug string, op softaculous.PluginOp) error
	DeletePlugin(ctx context.Context, insID, slug string) error
	ActivateTheme(ctx context.Context, insID, slug string) error
	DeleteTheme(ctx context.Context, insID, slug string) error
	UploadPlugin(ctx context.Context, insID, filename string, content []byte) error
}

// ClientFactory builds a Backend for one call.
type ClientFactory func(desc softaculous.Descriptor) Backend

// Softaculous serves the WordPress management endpoints used by the billing panel.
type Softaculous struct {
	resolver  Resolver
	newClient ClientFactory

	maxUpload int64
	// settle is the pause between deactivating and deleting an active plugin.
	settle time.Duration
}

// NewSoftaculous creates a new Softaculous handler.
func NewSoftaculous(resolver Resolver, newClient ClientFactory) *Softaculous {
	return &Softaculous{
		resolver:  resolver,
		newClient: newClient,
		maxUpload: DefaultMaxUploadBytes,
		settle:    500 * time.Millisecond,
	}
}

func (h *Softaculous) client(ctx context.Context, serviceID string) (Backend, error) {
	desc, err := h.resolver.Resolve(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("resolve service %s: %w", serviceID, err)
	}
	return h.newClient(desc), nil
}

// Action runs one Softaculous action for a hosting service.
func (h *Softaculous) Action(w http.ResponseWriter, r *http.Request) {
	var req request.SoftaculousAction
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger := zerolog.Ctx(r.Context()).With().
		Str("action", req.Action).
		Str("service_id", req.ServiceID).
		Logger()

	client, err := h.client(r.Context(), req.ServiceID)
	if err != nil {
		logger.Warn().Err(err).Msg("resolve failed")
		response.WriteServiceError(w, err)
		return
	}

	payload, err := h.dispatch(logger.WithContext(r.Context()), client, &req)
	if err != nil {
		logger.Warn().Err(err).Str("kind", string(softaculous.KindOf(err))).Msg("action failed")
		response.WriteServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, payload)
}

func success() map[string]any { return map[string]any{"success": true} }

func (h *Softaculous) dispatch(ctx context.Context, c Backend, req *request.SoftaculousAction) (any, error) {
	insID := req.InstallationID

	switch req.Action {
	case request.ActionListInstallations:
		installs, err := c.ListInstallations(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"installations": installs}, nil

	case request.ActionScanInstallations:
		if err := c.ScanInstallations(ctx); err != nil {
			return nil, err
		}
		return success(), nil

	case request.ActionInstall:
		res, err := c.Install(ctx, softaculous.InstallParams{
			Domain:          req.Domain,
			Directory:       req.InstallDirectory(),
			SiteName:        req.SiteName,
			SiteDescription: req.SiteDescription,
			Language:        req.Language,
			AdminEmail:      req.AdminEmail,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "installation": res}, nil

	case request.ActionRemove:
		if err := c.Remove(ctx, insID); err != nil {
			return nil, err
		}
		return success(), nil

	case request.ActionClone:
		res, err := c.Clone(ctx, softaculous.CloneParams{
			InstallationID: insID,
			Domain:         req.Domain,
			Directory:      req.InstallDirectory(),
			DBName:         req.DBName,
			Staging:        req.Staging,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "url": res.URL}, nil

	case request.ActionGetAutoUpgrade:
		return c.GetAutoUpgrade(ctx, insID)

	case request.ActionSetAutoUpgrade:
		err := c.SetAutoUpgrade(ctx, insID, softaculous.AutoUpgrade{
			Core:    req.AutoCore,
			Plugins: req.AutoPlugins,
			Themes:  req.AutoThemes,
		})
		if err != nil {
			return nil, err
		}
		return success(), nil

	case request.ActionUpgrade:
		res, err := c.Upgrade(ctx, insID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"success": true, "url": res.URL, "continue_url": res.ContinueURL}, nil

	case request.ActionCheckUpdates:
		return c.CheckForUpdates(ctx, insID)

	case request.ActionLatestVersion:
		v, err := c.LatestVersion(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"version": v}, nil

	case request.ActionListPlugins:
		plugins, err := c.ListPlugins(ctx, insID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"plugins": plugins}, nil

	case request.ActionListThemes:
		themes, err := c.ListThemes(ctx, insID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"themes": themes}, nil

	case request.ActionTogglePlugin:
		if err := c.TogglePlugin(ctx, insID, req.Slug, softaculous.PluginOp(req.PluginAction)); err != nil {
			return nil, err
		}
		return success(), nil

	case request.ActionDeletePlugin:
		if req.IsActive {
			h.deactivateBeforeDelete(ctx, c, insID, req.Slug)
		}
		if err := c.DeletePlugin(ctx, insID, req.Slug); err != nil {
			return nil, err
		}
		return success(), nil

	case request.ActionActivateTheme:
		if err := c.ActivateTheme(ctx, insID, req.Slug); err != nil {
			return nil, err
		}
		return success(), nil

	case request.ActionDeleteTheme:
		if err := c.DeleteTheme(ctx, insID, req.Slug); err != nil {
			return nil, err
		}
		return success(), nil

	case request.ActionSignOn:
		url, err := c.SignOnURL(ctx, insID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"url": url}, nil
	}

	return nil, &softaculous.Error{Kind: softaculous.KindValidation, Message: "unknown action " + req.Action}
}

// deactivateBeforeDelete deactivates an active plugin and gives WordPress a
// moment to settle. A failed deactivation does not stop the delete.
func (h *Softaculous) deactivateBeforeDelete(ctx context.Context, c Backend, insID, slug string) {
	if err := c.TogglePlugin(ctx, insID, slug, softaculous.PluginDeactivate); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("slug", slug).Msg("deactivate before delete failed")
	}
	if h.settle <= 0 {
		return
	}
	t := time.NewTimer(h.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// SSO redirects the browser to a one-time WordPress admin login URL.
func (h *Softaculous) SSO(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := request.SignOn{
		ServiceID:      q.Get("service_id"),
		InstallationID: q.Get("installation_id"),
	}
	if err := request.Validate(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.client(r.Context(), req.ServiceID)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}
	url, err := client.SignOnURL(r.Context(), req.InstallationID)
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("service_id", req.ServiceID).Msg("sign on failed")
		response.WriteServiceError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

var uploadPage = template.Must(template.New("upload").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Plugin upload</title></head>
<body style="font-family:Arial,sans-serif;text-align:center;padding:50px;">
<h2 style="color:{{if .OK}}#28a745{{else}}#dc3545{{end}};">{{.Message}}</h2>
<p>This window will close automatically...</p>
<script>setTimeout(function(){ window.close(); }, 1500);</script>
</body></html>
`))

type uploadResult struct {
	OK      bool
	Message string
}

func writeUploadPage(w http.ResponseWriter, status int, res uploadResult) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = uploadPage.Execute(w, res)
}

func writeUploadError(w http.ResponseWriter, err error) {
	status := response.StatusFor(err)
	msg := "upload failed"
	var cerr *softaculous.Error
	if errors.As(err, &cerr) && cerr.Message != "" {
		msg = cerr.Message
	}
	writeUploadPage(w, status, uploadResult{Message: msg})
}

// Upload installs and activates a plugin from an uploaded ZIP archive. The
// response is a small HTML page meant for a popup window.
func (h *Softaculous) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeUploadPage(w, http.StatusBadRequest, uploadResult{Message: "invalid upload: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("plugin_zip")
	if err != nil {
		writeUploadPage(w, http.StatusBadRequest, uploadResult{Message: "no file selected"})
		return
	}
	defer file.Close()

	req := request.PluginUpload{
		ServiceID:      r.FormValue("service_id"),
		InstallationID: r.FormValue("installation_id"),
		Filename:       filepath.Base(header.Filename),
	}
	if err := request.Validate(&req); err != nil {
		writeUploadPage(w, http.StatusBadRequest, uploadResult{Message: err.Error()})
		return
	}
	if !strings.EqualFold(filepath.Ext(req.Filename), ".zip") {
		writeUploadPage(w, http.StatusBadRequest, uploadResult{Message: "only ZIP files can be uploaded"})
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeUploadPage(w, http.StatusBadRequest, uploadResult{Message: "read upload: " + err.Error()})
		return
	}

	client, err := h.client(r.Context(), req.ServiceID)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	if err := client.UploadPlugin(r.Context(), req.InstallationID, req.Filename, content); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).
			Str("service_id", req.ServiceID).
			Str("filename", req.Filename).
			Msg("plugin upload failed")
		writeUploadError(w, err)
		return
	}
	writeUploadPage(w, http.StatusOK, uploadResult{OK: true, Message: "Plugin uploaded successfully!"})
}
