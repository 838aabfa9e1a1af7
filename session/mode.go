package session

import (
	"epr/common"
	"epr/render"
)

// widePaginationThreshold is the viewport width from which a spread may
// engage in the spread-capable paginated modes.
const widePaginationThreshold = 800

// ResolveDisplayMode maps a requested display mode to a surface
// configuration. Pure and total: an unrecognized value behaves like
// auto-spread, a corrupt stored setting must never break rendering.
func ResolveDisplayMode(mode common.DisplayMode) render.Config {
	switch mode {
	case common.DisplayModeAlwaysSpread:
		return render.Config{Flow: render.FlowPaginated, Spread: render.SpreadAlways}
	case common.DisplayModeSinglePage:
		return render.Config{
			Flow:                render.FlowPaginated,
			Spread:              render.SpreadNone,
			PaginationThreshold: widePaginationThreshold,
		}
	case common.DisplayModeContinuousScroll:
		return render.Config{Flow: render.FlowScrolled, Spread: render.SpreadNone}
	default:
		return render.Config{
			Flow:                render.FlowPaginated,
			Spread:              render.SpreadAuto,
			PaginationThreshold: widePaginationThreshold,
		}
	}
}
