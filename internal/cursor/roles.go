// Package cursor maps theme files onto the operating system's pointer
// settings.
package cursor

// Role binds a logical cursor role (the file name of a cursor in a theme)
// to the OS setting it replaces. Several roles may target one setting;
// the later role wins when a theme provides both.
type Role struct {
	Name    string
	Setting string
}

// Roles lists every recognized role in precedence order
var Roles = []Role{
	{"pointer", "Arrow"},
	{"help", "Help"},
	{"busy", "Busy"},
	{"link", "AppStarting"},
	{"cross", "Crosshair"},
	{"text", "IBeam"},
	{"move", "SizeAll"},
	{"dgn1", "SizeNESW"},
	{"dgn2", "SizeNWSE"},
	{"horz", "SizeWE"},
	{"vert", "SizeNS"},
	{"alternate", "AlternateSelect"},
	{"unavailable", "No"},
	{"work", "WorkingInBackground"},
	{"hand", "Hand"},
	{"normal", "Arrow"},
	{"alternate2", "AlternateSelect"},
	{"diagonal1", "SizeNESW"},
	{"diagonal2", "SizeNWSE"},
	{"handwriting", "Handwriting"},
	{"horizontal", "SizeWE"},
	{"vertical", "SizeNS"},
	{"person", "Person"},
	{"pin", "Pin"},
	{"precision", "PrecisionSelect"},
	{"working", "WorkingInBackground"},
}

// Scheme maps role names to absolute cursor file paths
type Scheme map[string]string

// Settings resolves a scheme to OS setting -> file path. Roles the scheme
// does not provide are left out, as are unknown roles.
func Settings(scheme Scheme) map[string]string {
	settings := make(map[string]string)
	for _, role := range Roles {
		if path, ok := scheme[role.Name]; ok {
			settings[role.Setting] = path
		}
	}
	return settings
}

// SettingNames returns every distinct OS setting in first-seen order
func SettingNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, role := range Roles {
		if !seen[role.Setting] {
			seen[role.Setting] = true
			names = append(names, role.Setting)
		}
	}
	return names
}
