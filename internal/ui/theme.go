package ui

import (
	"image/color"

	"github.com/glimhq/glim/core/show"
)

var (
	colBGTop     = color.RGBA{20, 20, 30, 255}
	colRowEven   = color.RGBA{28, 28, 38, 255}
	colRowOdd    = color.RGBA{24, 24, 33, 255}
	colRowBorder = color.RGBA{50, 50, 62, 255}
	colRuler     = color.RGBA{38, 38, 48, 255}
	colRulerTick = color.RGBA{90, 90, 105, 255}

	colBlockBorder = color.RGBA{240, 240, 240, 255}
	colSelected    = color.RGBA{255, 210, 40, 255}
	colPreview     = color.RGBA{200, 200, 220, 120}
	colMarqueeFill = color.RGBA{60, 120, 220, 50}
	colMarqueeLine = color.RGBA{80, 150, 255, 200}
)

// effectColors gives each effect kind a stable block color.
var effectColors = map[show.EffectKind]color.RGBA{
	show.EffectSolid:    {0, 160, 220, 255},
	show.EffectChase:    {220, 120, 0, 255},
	show.EffectRainbow:  {170, 60, 220, 255},
	show.EffectStrobe:   {230, 230, 70, 255},
	show.EffectGradient: {60, 200, 120, 255},
	show.EffectTwinkle:  {120, 160, 255, 255},
	show.EffectFade:     {200, 80, 140, 255},
	show.EffectWipe:     {80, 200, 200, 255},
}

func effectColor(kind show.EffectKind) color.RGBA {
	if c, ok := effectColors[kind]; ok {
		return c
	}
	return color.RGBA{140, 140, 140, 255}
}
