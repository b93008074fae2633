package softaculous

import (
	"context"
	"fmt"
	"strings"
)

const (
	pluginUploadField = "custom_file"
	zipMimeType       = "application/zip"
)

// ListInstallations returns the account's WordPress installations.
func (c *Client) ListInstallations(ctx context.Context) ([]Installation, error) {
	reply, err := c.Do(ctx, &ActionRequest{Action: "installations"})
	if err != nil {
		return nil, err
	}
	return interpretInstallations(reply), nil
}

// ScanInstallations asks Softaculous to import manually installed sites.
func (c *Client) ScanInstallations(ctx context.Context) error {
	reply, err := c.Do(ctx, &ActionRequest{Action: "import"})
	if err != nil {
		return err
	}
	return interpretScan(reply)
}

// Install creates a new WordPress site with freshly generated admin and
// database credentials.
func (c *Client) Install(ctx context.Context, params InstallParams) (InstallResult, error) {
	if params.Domain == "" {
		return InstallResult{}, validationError("domain")
	}
	creds, err := generateInstallCredentials()
	if err != nil {
		return InstallResult{}, fmt.Errorf("generate install credentials: %w", err)
	}

	siteName := params.SiteName
	if siteName == "" {
		siteName = "My WordPress Site"
	}
	siteDesc := params.SiteDescription
	if siteDesc == "" {
		siteDesc = "Just another WordPress site"
	}
	language := params.Language
	if language == "" {
		language = "en"
	}
	adminEmail := params.AdminEmail
	if adminEmail == "" {
		adminEmail = creds.AdminUsername + "@" + params.Domain
	}

	req := &ActionRequest{
		Action: "software",
		Query:  Params{{Key: "soft", Value: WordPressSoftID}},
		Heavy:  true,
	}
	req.Form.Add("softsubmit", "1")
	req.Form.Add("soft", WordPressSoftID)
	req.Form.Add("softdomain", params.Domain)
	req.Form.Add("softdirectory", params.Directory)
	req.Form.Add("softdb", creds.DBName)
	req.Form.Add("dbusername", creds.DBUser)
	req.Form.Add("dbuserpass", creds.DBPassword)
	req.Form.Add("hostname", "localhost")
	req.Form.Add("admin_username", creds.AdminUsername)
	req.Form.Add("admin_pass", creds.AdminPassword)
	req.Form.Add("admin_email", adminEmail)
	req.Form.Add("site_name", siteName)
	req.Form.Add("site_desc", siteDesc)
	req.Form.Add("language", language)
	req.Form.Add("softproto", "https://")
	req.Form.Add("eu_auto_upgrade", "1")

	reply, err := c.Do(ctx, req)
	if err != nil {
		return InstallResult{}, err
	}
	inferred, err := interpretInstall(reply)
	if err != nil {
		return InstallResult{}, err
	}

	siteURL := "https://" + params.Domain
	if dir := strings.Trim(params.Directory, "/"); dir != "" {
		siteURL += "/" + dir
	}
	res := InstallResult{
		SiteURL:       siteURL,
		AdminURL:      siteURL + "/wp-admin",
		AdminUsername: creds.AdminUsername,
		AdminPassword: creds.AdminPassword,
	}
	if inferred {
		res.Note = "installation submitted, backend sent no completion marker"
	}
	return res, nil
}

// Remove deletes an installation together with its files, database and
// database user. Only an explicit "done" counts as success.
func (c *Client) Remove(ctx context.Context, insID string) error {
	if insID == "" {
		return validationError("insid")
	}
	req := &ActionRequest{
		Action: "remove",
		Query:  Params{{Key: "insid", Value: insID}},
		Form: Params{
			{Key: "removeins", Value: "1"},
			{Key: "remove_dir", Value: "1"},
			{Key: "remove_datadir", Value: "1"},
			{Key: "remove_db", Value: "1"},
			{Key: "remove_dbuser", Value: "1"},
		},
		Heavy: true,
	}
	reply, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return requireDone(reply, "removal failed")
}

// Clone copies an installation to another domain/directory, or creates a
// staging copy when params.Staging is set.
func (c *Client) Clone(ctx context.Context, params CloneParams) (CloneResult, error) {
	if params.InstallationID == "" {
		return CloneResult{}, validationError("insid")
	}
	if params.Domain == "" {
		return CloneResult{}, validationError("domain")
	}
	action := "sclone"
	if params.Staging {
		action = "staging"
	}
	req := &ActionRequest{Action: action, Heavy: true}
	req.Query.Add("insid", params.InstallationID)
	req.Query.Add("softsubmit", "1")
	req.Query.Add("softdomain", params.Domain)
	req.Query.Add("softdirectory", params.Directory)
	if params.DBName != "" {
		req.Query.Add("softdb", params.DBName)
	}
	reply, err := c.Do(ctx, req)
	if err != nil {
		return CloneResult{}, err
	}
	return interpretClone(reply)
}

// GetAutoUpgrade reads the installation's auto-upgrade flags. Missing flags
// read as false.
func (c *Client) GetAutoUpgrade(ctx context.Context, insID string) (AutoUpgrade, error) {
	if insID == "" {
		return AutoUpgrade{}, validationError("insid")
	}
	reply, err := c.Do(ctx, &ActionRequest{Action: "wordpress"})
	if err != nil {
		return AutoUpgrade{}, err
	}
	return interpretAutoUpgrade(reply, insID)
}

func (c *Client) SetAutoUpgrade(ctx context.Context, insID string, settings AutoUpgrade) error {
	if insID == "" {
		return validationError("insid")
	}
	req := &ActionRequest{Action: "wordpress"}
	req.Query.Add("insid", insID)
	req.Query.Add("save", "1")
	req.Query.Add("auto_upgrade_core", flag(settings.Core))
	req.Query.Add("auto_upgrade_plugins", flag(settings.Plugins))
	req.Query.Add("auto_upgrade_themes", flag(settings.Themes))
	reply, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return requireDone(reply, "failed to save auto-upgrade settings")
}

// Upgrade moves an installation to the latest WordPress release.
func (c *Client) Upgrade(ctx context.Context, insID string) (UpgradeResult, error) {
	if insID == "" {
		return UpgradeResult{}, validationError("insid")
	}
	req := &ActionRequest{Action: "upgrade", Heavy: true}
	req.Query.Add("insid", insID)
	req.Query.Add("softsubmit", "1")
	reply, err := c.Do(ctx, req)
	if err != nil {
		return UpgradeResult{}, err
	}
	return interpretUpgrade(reply)
}

// CheckForUpdates reports whether the installation is in Softaculous'
// outdated list.
func (c *Client) CheckForUpdates(ctx context.Context, insID string) (UpdateStatus, error) {
	if insID == "" {
		return UpdateStatus{}, validationError("insid")
	}
	req := &ActionRequest{Action: "installations", Query: Params{{Key: "showupdates", Value: "true"}}}
	reply, err := c.Do(ctx, req)
	if err != nil {
		return UpdateStatus{}, err
	}
	return interpretUpdateStatus(reply, insID)
}

// LatestVersion returns the newest WordPress version Softaculous offers.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	req := &ActionRequest{Action: "software", Query: Params{{Key: "soft", Value: WordPressSoftID}}}
	reply, err := c.Do(ctx, req)
	if err != nil {
		return "", err
	}
	return interpretLatestVersion(reply)
}

// SignOnURL returns a one-time wp-admin login URL.
func (c *Client) SignOnURL(ctx context.Context, insID string) (string, error) {
	if insID == "" {
		return "", validationError("insid")
	}
	reply, err := c.Do(ctx, &ActionRequest{Action: "sign_on", Query: Params{{Key: "insid", Value: insID}}})
	if err != nil {
		return "", err
	}
	return interpretSignOn(reply)
}

func (c *Client) ListPlugins(ctx context.Context, insID string) ([]Extension, error) {
	return c.listExtensions(ctx, insID, Plugins)
}

func (c *Client) ListThemes(ctx context.Context, insID string) ([]Extension, error) {
	return c.listExtensions(ctx, insID, Themes)
}

func (c *Client) listExtensions(ctx context.Context, insID string, typ ExtensionType) ([]Extension, error) {
	if insID == "" {
		return nil, validationError("insid")
	}
	req := &ActionRequest{Action: "wordpress"}
	req.Form.Add("insid", insID)
	req.Form.Add("type", string(typ))
	req.Form.Add("list", "1")
	reply, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return interpretExtensions(reply, typ)
}

// TogglePlugin activates or deactivates a plugin by its list key.
func (c *Client) TogglePlugin(ctx context.Context, insID, slug string, op PluginOp) error {
	switch op {
	case PluginActivate, PluginDeactivate:
	default:
		return newError(KindValidation, "unknown plugin operation %q", op)
	}
	return c.extensionOp(ctx, insID, slug, Plugins, string(op), "failed to "+string(op)+" plugin")
}

func (c *Client) DeletePlugin(ctx context.Context, insID, slug string) error {
	return c.extensionOp(ctx, insID, slug, Plugins, "delete", "failed to delete plugin")
}

func (c *Client) ActivateTheme(ctx context.Context, insID, slug string) error {
	return c.extensionOp(ctx, insID, slug, Themes, "activate", "failed to activate theme")
}

func (c *Client) DeleteTheme(ctx context.Context, insID, slug string) error {
	return c.extensionOp(ctx, insID, slug, Themes, "delete", "failed to delete theme")
}

func (c *Client) extensionOp(ctx context.Context, insID, slug string, typ ExtensionType, op, fallback string) error {
	if insID == "" {
		return validationError("insid")
	}
	if slug == "" {
		return validationError("slug")
	}
	req := &ActionRequest{Action: "wordpress"}
	req.Form.Add("insid", insID)
	req.Form.Add("type", string(typ))
	req.Form.Add("slug", slug)
	req.Form.Add(op, "1")
	reply, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return requireDone(reply, fallback)
}

// UploadPlugin installs and activates a plugin from a ZIP archive.
func (c *Client) UploadPlugin(ctx context.Context, insID, filename string, content []byte) error {
	if insID == "" {
		return validationError("insid")
	}
	if len(content) == 0 {
		return validationError(pluginUploadField)
	}
	if filename == "" {
		filename = "plugin.zip"
	}
	req := &ActionRequest{
		Action: "wordpress",
		Query:  Params{{Key: "upload", Value: "1"}},
		Form: Params{
			{Key: "insid", Value: insID},
			{Key: "type", Value: string(Plugins)},
			{Key: "activate", Value: "1"},
		},
		Parts: []BodyPart{{
			FieldName: pluginUploadField,
			Filename:  filename,
			MimeType:  zipMimeType,
			Content:   content,
		}},
		Heavy: true,
	}
	reply, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return requireDone(reply, "failed to upload plugin")
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
