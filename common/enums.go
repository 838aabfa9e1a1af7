// Shared enumerations. Both configuration and the session packages need
// these types, so they live in a separate package to keep config free of
// engine imports.
package common

// Specification of requested display mode.
// ENUM(auto-spread, always-spread, single-page, continuous-scroll)
type DisplayMode int

// Continuous reports whether the mode renders content as one continuous
// scroll instead of discrete pages.
func (d DisplayMode) Continuous() bool {
	return d == DisplayModeContinuousScroll
}

// Specification of appearance theme. Auto is resolved against the host
// environment before use.
// ENUM(auto, light, dark, sepia)
type Theme int

// Resolved reports whether the theme needs no environment resolution.
func (t Theme) Resolved() bool {
	return t != ThemeAuto
}
