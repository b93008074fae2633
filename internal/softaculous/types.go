package softaculous

// WordPressSoftID is Softaculous' script id for WordPress. Installation ids
// are "<soft id>_<n>".
const WordPressSoftID = "26"

// Installation is one WordPress site known to Softaculous.
type Installation struct {
	InstallationID  string `json:"installation_id"`
	SiteURL         string `json:"site_url"`
	SitePath        string `json:"site_path"`
	SoftwareVersion string `json:"software_version"`
	AdminUsername   string `json:"admin_username"`
	SiteName        string `json:"site_name"`
}

type InstallParams struct {
	Domain          string
	Directory       string
	SiteName        string
	SiteDescription string
	Language        string
	// AdminEmail defaults to <generated username>@<domain>.
	AdminEmail string
}

// InstallResult carries the generated admin credentials; they are only
// available from this value.
type InstallResult struct {
	SiteURL       string `json:"site_url"`
	AdminURL      string `json:"admin_url"`
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
	// Note is set when success was inferred from the absence of errors.
	Note string `json:"note,omitempty"`
}

type CloneParams struct {
	InstallationID string
	Domain         string
	Directory      string
	DBName         string
	// Staging creates a staging copy instead of a plain clone.
	Staging bool
}

type CloneResult struct {
	URL string `json:"url"`
}

type AutoUpgrade struct {
	Core    bool `json:"auto_upgrade_core"`
	Plugins bool `json:"auto_upgrade_plugins"`
	Themes  bool `json:"auto_upgrade_themes"`
}

type UpgradeResult struct {
	URL string `json:"url,omitempty"`
	// ContinueURL is set when the upgrade needs to be finished in the browser.
	ContinueURL string `json:"continue_url,omitempty"`
}

type UpdateStatus struct {
	NeedsUpdate    bool   `json:"needs_update"`
	CurrentVersion string `json:"current_version,omitempty"`
	LatestVersion  string `json:"latest_version,omitempty"`
}

// Extension is a plugin or theme. Key is the backend's map key (the plugin
// file path or theme directory) and is the slug for activate/delete calls.
type Extension struct {
	Key     string         `json:"_key"`
	Name    string         `json:"name"`
	Version string         `json:"version"`
	Active  bool           `json:"active"`
	Fields  map[string]any `json:"fields"`
}

// ExtensionType selects plugins or themes in wordpress actions.
type ExtensionType string

const (
	Plugins ExtensionType = "plugins"
	Themes  ExtensionType = "themes"
)

// PluginOp is the state change requested for a plugin.
type PluginOp string

const (
	PluginActivate   PluginOp = "activate"
	PluginDeactivate PluginOp = "deactivate"
)
