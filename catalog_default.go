package opts

import "fmt"

const (
	// SchemaExtension is the schema id of the extension's own store.
	SchemaExtension = "org.gnome.shell.extensions.workspace-switcher-manager"
	// SchemaWMPreferences backs workspace names and the static workspace count.
	SchemaWMPreferences = "org.gnome.desktop.wm.preferences"
	// SchemaMutter backs the dynamic and primary-only workspace flags.
	SchemaMutter = "org.gnome.mutter"
)

// Option names the navigation policy and the alternate stores rely on.
const (
	OptionWrap               = "wsSwitchWrap"
	OptionIgnoreLast         = "wsSwitchIgnoreLast"
	OptionReverseOrientation = "reversedWsOrientation"
	OptionWorkspaceNames     = "wsNames"
	OptionNumWorkspaces      = "numWorkspaces"
	OptionDynamicWorkspaces  = "dynamicWorkspaces"
	OptionPrimaryOnly        = "workspacesOnlyOnPrimary"
)

// MaxProfiles is the number of profile slots.
const MaxProfiles = 5

// ProfileNameOption returns the logical name of the title option for slot index.
func ProfileNameOption(index int) string {
	return fmt.Sprintf("profileName%d", index)
}

// DefaultCatalog returns the workspace switcher option set.
func DefaultCatalog() *Catalog {
	descriptors := []Descriptor{
		// popup
		boolOpt("wsSwitchPopup", "ws-switch-popup", true, "", "Show popup"),
		intOpt("popupMode", "popup-mode", 0, "wsSwitchPopup", "Popup mode"),
		intOpt("popupTimeout", "popup-timeout", 600, "wsSwitchPopup", "On-screen time (ms)"),
		intOpt("fadeOutTime", "fade-out-time", 500, "wsSwitchPopup", "Fade out time (ms)"),
		intOpt("popupScale", "popup-scale", 100, "wsSwitchPopup", "Global scale (%)"),
		intOpt("popupWidthScale", "popup-width-scale", 100, "wsSwitchPopup && popupMode == 0", "Width scale (%)"),
		intOpt("popupPaddingScale", "popup-padding-scale", 100, "wsSwitchPopup", "Padding scale (%)"),
		intOpt("popupSpacingScale", "popup-spacing-scale", 100, "wsSwitchPopup && popupMode == 0", "Spacing scale (%)"),
		intOpt("popupRadius", "popup-radius", 100, "wsSwitchPopup", "Corner radius (%)"),
		intOpt("popupOpacity", "popup-opacity", 98, "wsSwitchPopup", "Opacity (%)"),
		intOpt("popupHorizontal", "popup-horizontal", 50, "wsSwitchPopup", "Horizontal position (%)"),
		intOpt("popupVertical", "popup-vertical", 50, "wsSwitchPopup", "Vertical position (%)"),
		intOpt("monitorIndex", "monitor-index", 0, "wsSwitchPopup", "Monitor"),
		boolOpt("modifiersHidePopup", "modifiers-hide-popup", true, "wsSwitchPopup", "Release modifiers to hide"),
		boolOpt("wsSwitchIndicator", "ws-switch-indicator", false, "", "Index indicator mode"),

		// colors and text
		boolOpt("allowCustomColors", "allow-custom-colors", false, "wsSwitchPopup", "Custom colors"),
		stringOpt("popupBgColor", "popup-bg-color", "rgba(32,32,32,0.95)", "wsSwitchPopup && allowCustomColors", "Background color"),
		stringOpt("popupFontColor", "popup-font-color", "rgba(255,255,255,0.6)", "wsSwitchPopup && allowCustomColors", "Font color"),
		stringOpt("popupBorderColor", "popup-border-color", "rgba(80,80,80,1)", "wsSwitchPopup && allowCustomColors", "Border color"),
		stringOpt("popupActiveBgColor", "popup-active-bg-color", "rgba(53,132,228,1)", "wsSwitchPopup && allowCustomColors", "Active background color"),
		stringOpt("popupActiveFgColor", "popup-active-fg-color", "rgba(255,255,255,1)", "wsSwitchPopup && allowCustomColors", "Active font color"),
		intOpt("fontSize", "font-size", 100, "wsSwitchPopup", "Font size (%)"),
		intOpt("indexSize", "index-size", 100, "wsSwitchPopup", "Index size (%)"),
		intOpt("fontWeight", "font-weight", 0, "wsSwitchPopup", "Font weight"),
		boolOpt("textShadow", "text-shadow", true, "wsSwitchPopup", "Text shadow"),

		// content
		boolOpt("activeShowWsIndex", "active-show-ws-index", true, "wsSwitchPopup", "Active: show index"),
		boolOpt("activeShowWsName", "active-show-ws-name", false, "wsSwitchPopup", "Active: show name"),
		boolOpt("activeShowAppName", "active-show-app-name", false, "wsSwitchPopup", "Active: show app name"),
		boolOpt("activeShowWinTitle", "active-show-win-title", false, "wsSwitchPopup", "Active: show window title"),
		boolOpt("inactiveShowWsIndex", "inactive-show-ws-index", true, "wsSwitchPopup && popupMode == 0", "Inactive: show index"),
		boolOpt("inactiveShowWsName", "inactive-show-ws-name", false, "wsSwitchPopup && popupMode == 0", "Inactive: show name"),
		boolOpt("inactiveShowAppName", "inactive-show-app-name", false, "wsSwitchPopup && popupMode == 0", "Inactive: show app name"),
		boolOpt("inactiveShowWinTitle", "inactive-show-win-title", false, "wsSwitchPopup && popupMode == 0", "Inactive: show window title"),

		// navigation and window manager tweaks
		boolOpt(OptionWrap, "ws-switch-wrap", true, "", "Wraparound"),
		boolOpt(OptionIgnoreLast, "ws-switch-ignore-last", false, "wsSwitchWrap || dynamicWorkspaces", "Ignore last (empty) workspace"),
		boolOpt(OptionReverseOrientation, "reversed-ws-orientation", false, "", "Reverse orientation"),
		intOpt("overviewSpacing", "overview-spacing", 100, "", "Overview window spacing (%)"),

		// alternate stores
		{Name: OptionWorkspaceNames, Kind: KindStringList, Key: "workspace-names", Store: SchemaWMPreferences, Default: []string{}, Label: "Workspace names"},
		{Name: OptionNumWorkspaces, Kind: KindInt, Key: "num-workspaces", Store: SchemaWMPreferences, Default: 4, EnabledWhen: "!dynamicWorkspaces", Label: "Number of workspaces"},
		{Name: OptionDynamicWorkspaces, Kind: KindBool, Key: "dynamic-workspaces", Store: SchemaMutter, Default: true, Label: "Dynamic workspaces"},
		{Name: OptionPrimaryOnly, Kind: KindBool, Key: "workspaces-only-on-primary", Store: SchemaMutter, Default: true, Label: "Workspaces on primary display only"},
	}
	for i := 1; i <= MaxProfiles; i++ {
		descriptors = append(descriptors, Descriptor{
			Name:        ProfileNameOption(i),
			Kind:        KindString,
			Key:         fmt.Sprintf("profile-name-%d", i),
			Default:     fmt.Sprintf("Profile %d", i),
			ProfileName: true,
			Label:       fmt.Sprintf("Profile %d name", i),
		})
	}

	catalog, err := NewCatalog(descriptors...)
	if err != nil {
		panic(err)
	}
	return catalog
}

func boolOpt(name, key string, def bool, enabledWhen, label string) Descriptor {
	return Descriptor{Name: name, Kind: KindBool, Key: key, Default: def, EnabledWhen: enabledWhen, Label: label}
}

func intOpt(name, key string, def int, enabledWhen, label string) Descriptor {
	return Descriptor{Name: name, Kind: KindInt, Key: key, Default: def, EnabledWhen: enabledWhen, Label: label}
}

func stringOpt(name, key, def, enabledWhen, label string) Descriptor {
	return Descriptor{Name: name, Kind: KindString, Key: key, Default: def, EnabledWhen: enabledWhen, Label: label}
}
