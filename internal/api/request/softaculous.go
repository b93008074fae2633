package request

// Actions accepted by the action endpoint.
const (
	ActionListInstallations = "list_installations"
	ActionScanInstallations = "scan_installations"
	ActionInstall           = "install"
	ActionRemove            = "remove"
	ActionClone             = "clone"
	ActionGetAutoUpgrade    = "get_auto_upgrade"
	ActionSetAutoUpgrade    = "set_auto_upgrade"
	ActionUpgrade           = "upgrade"
	ActionCheckUpdates      = "check_updates"
	ActionLatestVersion     = "latest_version"
	ActionListPlugins       = "list_plugins"
	ActionTogglePlugin      = "toggle_plugin"
	ActionDeletePlugin      = "delete_plugin"
	ActionListThemes        = "list_themes"
	ActionActivateTheme     = "activate_theme"
	ActionDeleteTheme       = "delete_theme"
	ActionSignOn            = "sign_on"
)

// SoftaculousAction is the body of POST /api/v1/softaculous. Which optional
// fields are needed depends on Action; the client rejects missing ones.
type SoftaculousAction struct {
	Action         string `json:"action" validate:"required,oneof=list_installations scan_installations install remove clone get_auto_upgrade set_auto_upgrade upgrade check_updates latest_version list_plugins toggle_plugin delete_plugin list_themes activate_theme delete_theme sign_on"`
	ServiceID      string `json:"service_id" validate:"required,max=64"`
	InstallationID string `json:"installation_id" validate:"omitempty,insid"`

	Slug         string `json:"slug" validate:"omitempty,max=255"`
	PluginAction string `json:"plugin_action" validate:"omitempty,oneof=activate deactivate"`
	IsActive     bool   `json:"is_active"`

	Domain    string `json:"domain" validate:"omitempty,fqdn"`
	Directory string `json:"directory" validate:"omitempty,max=255,subdir"`
	// Path is accepted as an alias for Directory.
	Path            string `json:"path" validate:"omitempty,max=255,subdir"`
	DBName          string `json:"db_name" validate:"omitempty,alphanum,max=16"`
	Staging         bool   `json:"staging"`
	SiteName        string `json:"site_name" validate:"omitempty,max=255"`
	SiteDescription string `json:"site_description" validate:"omitempty,max=255"`
	Language        string `json:"language" validate:"omitempty,max=10"`
	AdminEmail      string `json:"admin_email" validate:"omitempty,email"`

	AutoCore    bool `json:"auto_core"`
	AutoPlugins bool `json:"auto_plugins"`
	AutoThemes  bool `json:"auto_themes"`
}

// InstallDirectory returns Directory, falling back to Path.
func (a *SoftaculousAction) InstallDirectory() string {
	if a.Directory != "" {
		return a.Directory
	}
	return a.Path
}

// PluginUpload holds the non-file fields of the upload form.
type PluginUpload struct {
	ServiceID      string `validate:"required,max=64"`
	InstallationID string `validate:"required,insid"`
	Filename       string `validate:"required,max=255"`
}

// SignOn holds the query parameters of the SSO redirect.
type SignOn struct {
	ServiceID      string `validate:"required,max=64"`
	InstallationID string `validate:"required,insid"`
}
