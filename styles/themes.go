package styles

import "epr/common"

// Class tokens the reader puts on content roots. ReaderClass scopes user
// rules, the theme class selects a palette, PopoverClass marks footnote
// popovers, FitClass marks images wider than the viewport.
const (
	ReaderClass  = "epr-reader"
	PopoverClass = "epr-popover"
	FitClass     = "epr-fit"

	themeClassPrefix = "epr-theme-"
	styleElementID   = "epr-style"
)

// ThemeClass returns the class token for a resolved theme. Auto has no
// palette of its own and maps to light.
func ThemeClass(theme common.Theme) string {
	if !theme.Resolved() {
		theme = common.ThemeLight
	}
	return themeClassPrefix + theme.String()
}

const baseRules = `.epr-popover {
	position: absolute;
	max-width: 22em;
	padding: 0.6em 0.8em;
	border-radius: 6px;
	box-shadow: 0 2px 10px rgba(0, 0, 0, 0.35);
	font-size: 0.9em;
	line-height: 1.4;
	z-index: 1000;
}
.epr-fit {
	max-width: 100%;
	height: auto;
}
`

var themeRules = map[common.Theme]string{
	common.ThemeLight: `.epr-theme-light, .epr-theme-light body {
	background-color: #ffffff;
	color: #1c1c1e;
}
.epr-theme-light a { color: #0a58ca; }
.epr-theme-light .epr-popover {
	background-color: #f8f8f8;
	color: #1c1c1e;
	border: 1px solid #d0d0d0;
}
`,
	common.ThemeDark: `.epr-theme-dark, .epr-theme-dark body {
	background-color: #1c1c1e;
	color: #e6e6e6;
}
.epr-theme-dark a { color: #6ea8fe; }
.epr-theme-dark .epr-popover {
	background-color: #2c2c2e;
	color: #e6e6e6;
	border: 1px solid #3a3a3c;
}
`,
	common.ThemeSepia: `.epr-theme-sepia, .epr-theme-sepia body {
	background-color: #f4ecd8;
	color: #5b4636;
}
.epr-theme-sepia a { color: #8a5a2b; }
.epr-theme-sepia .epr-popover {
	background-color: #efe4cc;
	color: #5b4636;
	border: 1px solid #d8c9a8;
}
`,
}
