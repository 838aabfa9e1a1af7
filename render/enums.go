package render

// Specification of content flow. The flow value is also the flow family:
// switching between two configurations of the same flow is a cheap patch,
// switching flow requires rebuilding the surface.
// ENUM(paginated, scrolled)
type Flow int

// Specification of page spread behavior in paginated flow.
// ENUM(none, auto, always)
type Spread int

// Specification of content lifecycle hook kinds. The set is fixed so hook
// registration and removal stay symmetric and enumerable.
// ENUM(media-fit, theme, keyboard, tap, footnote, scroll-fix)
type HookKind int
