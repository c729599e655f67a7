// Package config holds the small amount of project-level configuration
// this compiler still needs even though loading a full configuration file
// is out of scope (spec.md §1 treats the front end, which would normally
// own config parsing, as an external collaborator). What remains is the
// Turbowarp-specific knobs the Stage's "twconfig" comment carries.
package config

import "fmt"

// TurbowarpConfig mirrors the handful of fields Turbowarp's runtime reads
// out of a project's twconfig stage comment.
type TurbowarpConfig struct {
	FrameRate       int
	InterpolationOn bool
	HighQualityPen  bool
	RuntimeOptions  RuntimeOptions
}

type RuntimeOptions struct {
	MaxClones       int
	MiscLimits      bool
	FencePlayerOnly bool
}

// Comment renders the config as the literal text Turbowarp's importer
// expects inside the Stage's "twconfig" comment block: a fixed header line
// followed by a JSON object.
func (c *TurbowarpConfig) Comment() string {
	return fmt.Sprintf(
		"// _twconfig_\n"+
			`{"framerate":%d,"interpolation":%t,"hq":%t,"runtimeOptions":{"maxClones":%d,"miscLimits":%t,"fencing":%t}}`,
		c.FrameRate, c.InterpolationOn, c.HighQualityPen,
		c.RuntimeOptions.MaxClones, c.RuntimeOptions.MiscLimits, c.RuntimeOptions.FencePlayerOnly,
	)
}
