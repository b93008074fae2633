package softaculous

import (
	"strings"
)

// Interpreters turn a decoded reply into a typed result. They are pure so the
// shape handling can be tested without a backend.

// explicitError rejects replies with a top-level "error" key, which every
// action treats as terminal before looking for success sentinels.
func explicitError(reply any) error {
	c, ok := child(reply, "error")
	if !ok || c == nil {
		return nil
	}
	msg := flatten(c)
	if msg == "" {
		msg = "backend returned an error"
	}
	return rejected(reply, msg)
}

// requireDone accepts only replies carrying the "done" sentinel.
func requireDone(reply any, fallback string) error {
	if err := explicitError(reply); err != nil {
		return err
	}
	if hasSet(reply, "done") {
		return nil
	}
	msg := errorMessage(reply)
	if msg == "" {
		msg = fallback
	}
	return rejected(reply, msg)
}

// installationsRoot returns the installations collection, which some builds
// wrap in an "installations" key and others return at the top level.
func installationsRoot(reply any) map[string]any {
	if inst, ok := child(reply, "installations"); ok && inst != nil {
		m, _ := asMap(inst)
		return m
	}
	m, _ := asMap(reply)
	return m
}

// installationRecord finds one installation in either the nested
// ([soft id][ins id]) or the flat ([ins id]) layout.
func installationRecord(reply any, insID string) (map[string]any, bool) {
	root := installationsRoot(reply)
	if nested, ok := childMap(root, WordPressSoftID); ok {
		if rec, ok := childMap(nested, insID); ok {
			return rec, true
		}
	}
	return childMap(root, insID)
}

func interpretInstallations(reply any) []Installation {
	out := []Installation{}
	root := installationsRoot(reply)
	if root == nil {
		return out
	}

	entries := root
	prefix := ""
	if nested, ok := childMap(root, WordPressSoftID); ok {
		entries = nested
	} else {
		prefix = WordPressSoftID + "_"
	}

	for _, id := range sortedKeys(entries) {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		rec, ok := asMap(entries[id])
		if !ok {
			continue
		}
		out = append(out, Installation{
			InstallationID:  id,
			SiteURL:         stringField(rec, "softurl"),
			SitePath:        stringField(rec, "softpath"),
			SoftwareVersion: stringField(rec, "ver"),
			AdminUsername:   stringField(rec, "admin"),
			SiteName:        stringField(rec, "site_name"),
		})
	}
	return out
}

var installSentinels = []string{"done", "__settings", "setup_complete", "setupcontinue"}

// interpretInstall decides whether an install went through. Besides the
// explicit sentinels, a reply with no "error" key and no software list
// ("iscripts") counts as success: some Softaculous builds never send a
// sentinel for installs. Other error carriers ("e", "error_msg") only supply
// the message once the reply has been rejected.
func interpretInstall(reply any) (inferred bool, err error) {
	if err := explicitError(reply); err != nil {
		return false, err
	}
	for _, k := range installSentinels {
		if hasSet(reply, k) {
			return false, nil
		}
	}
	if !hasSet(reply, "iscripts") {
		return true, nil
	}
	msg := errorMessage(reply)
	if msg == "" {
		msg = "installation failed: backend returned the software list instead of an install result"
	}
	return false, rejected(reply, msg)
}

func interpretClone(reply any) (CloneResult, error) {
	if err := explicitError(reply); err != nil {
		return CloneResult{}, err
	}
	settings, _ := childMap(reply, "__settings")
	url := stringField(settings, "softurl")
	if hasSet(reply, "done") || url != "" {
		return CloneResult{URL: url}, nil
	}
	msg := errorMessage(reply)
	if msg == "" {
		msg = "clone failed"
	}
	return CloneResult{}, rejected(reply, msg)
}

func interpretAutoUpgrade(reply any, insID string) (AutoUpgrade, error) {
	if err := explicitError(reply); err != nil {
		return AutoUpgrade{}, err
	}
	rec, ok := installationRecord(reply, insID)
	if !ok {
		return AutoUpgrade{}, nil
	}
	return AutoUpgrade{
		Core:    truthy(rec["auto_upgrade_core"]),
		Plugins: truthy(rec["auto_upgrade_plugins"]),
		Themes:  truthy(rec["auto_upgrade_themes"]),
	}, nil
}

func interpretUpgrade(reply any) (UpgradeResult, error) {
	if err := explicitError(reply); err != nil {
		return UpgradeResult{}, err
	}
	if hasSet(reply, "done") || hasSet(reply, "__settings") {
		settings, _ := childMap(reply, "__settings")
		return UpgradeResult{URL: stringField(settings, "softurl")}, nil
	}
	if c, ok := child(reply, "setupcontinue"); ok && c != nil {
		return UpgradeResult{ContinueURL: scalarString(c)}, nil
	}
	msg := errorMessage(reply)
	if msg == "" {
		msg = "upgrade failed"
	}
	return UpgradeResult{}, rejected(reply, msg)
}

func interpretUpdateStatus(reply any, insID string) (UpdateStatus, error) {
	if err := explicitError(reply); err != nil {
		return UpdateStatus{}, err
	}
	rec, ok := installationRecord(reply, insID)
	if !ok {
		return UpdateStatus{NeedsUpdate: false}, nil
	}
	return UpdateStatus{
		NeedsUpdate:    true,
		CurrentVersion: stringField(rec, "ver"),
		LatestVersion:  stringField(rec, "latest_ver", "uver"),
	}, nil
}

func interpretLatestVersion(reply any) (string, error) {
	if err := explicitError(reply); err != nil {
		return "", err
	}
	m, _ := asMap(reply)
	if v := stringField(m, "ver", "version"); v != "" {
		return v, nil
	}
	return "", rejected(reply, "backend did not report a WordPress version")
}

func interpretSignOn(reply any) (string, error) {
	if err := explicitError(reply); err != nil {
		return "", err
	}
	m, _ := asMap(reply)
	if u := stringField(m, "sign_on_url"); u != "" {
		return u, nil
	}
	msg := errorMessage(reply)
	if msg == "" {
		msg = "could not get sign on URL"
	}
	return "", rejected(reply, msg)
}

// extensionList finds the plugin/theme collection. Depending on the build it
// is wrapped in "plugins"/"themes", in a "<type>_list" key (possibly inside
// that wrapper), under data.<type>, under installed_<type>, or is the reply.
func extensionList(reply any, typ ExtensionType) any {
	kind := string(typ)
	listKey := kind + "_list"
	if wrapper, ok := child(reply, kind); ok && wrapper != nil {
		if inner, ok := child(wrapper, listKey); ok && inner != nil {
			return inner
		}
		return wrapper
	}
	if inner, ok := child(reply, listKey); ok && inner != nil {
		return inner
	}
	if data, ok := childMap(reply, "data"); ok {
		if inner, ok := data[kind]; ok && inner != nil {
			return inner
		}
	}
	if inner, ok := child(reply, "installed_"+kind); ok && inner != nil {
		return inner
	}
	return reply
}

func interpretExtensions(reply any, typ ExtensionType) ([]Extension, error) {
	if err := explicitError(reply); err != nil {
		return nil, err
	}
	out := []Extension{}
	switch list := extensionList(reply, typ).(type) {
	case map[string]any:
		for _, key := range sortedKeys(list) {
			rec, ok := asMap(list[key])
			if !ok {
				continue
			}
			out = append(out, newExtension(key, rec))
		}
	case []any:
		for _, item := range list {
			rec, ok := asMap(item)
			if !ok {
				continue
			}
			key := stringField(rec, "_key", "_file", "slug", "Slug", "Name", "name")
			if key == "" {
				continue
			}
			out = append(out, newExtension(key, rec))
		}
	}
	return out, nil
}

func newExtension(key string, rec map[string]any) Extension {
	fields := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		fields[k] = v
	}
	fields["_key"] = key
	return Extension{
		Key:     key,
		Name:    stringField(rec, "Name", "Plugin Name", "Theme Name", "name", "title"),
		Version: stringField(rec, "Version", "version"),
		Active:  truthy(rec["activated"]) || truthy(rec["active"]),
		Fields:  fields,
	}
}

func interpretScan(reply any) error {
	return explicitError(reply)
}
