package terminal

import (
	"os"
	"strings"
)

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorMode256       ColorMode = iota // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

func (m ColorMode) String() string {
	if m == ColorModeTrueColor {
		return "truecolor"
	}
	return "256"
}

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

// Common colors
var (
	RGBBlack = RGB{0, 0, 0}
	RGBWhite = RGB{255, 255, 255}
	RGBRed   = RGB{205, 49, 49}
	RGBGreen = RGB{13, 188, 121}
	RGBGray  = RGB{128, 128, 128}
)

// Color cube values for 6x6x6 palette (indices 16-231)
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// nearestCube maps a 0-255 channel to the nearest cube level index
func nearestCube(v uint8) uint8 {
	best := uint8(0)
	bestDist := abs(int(v) - int(cubeValues[0]))
	for j := 1; j < len(cubeValues); j++ {
		d := abs(int(v) - int(cubeValues[j]))
		if d < bestDist {
			bestDist = d
			best = uint8(j)
		}
	}
	return best
}

// RGBTo256 converts RGB to the nearest 256-color palette index
// Near-gray colors prefer the 24-step grayscale ramp (232-255) when it is closer than the cube
func RGBTo256(c RGB) uint8 {
	cr, cg, cb := nearestCube(c.R), nearestCube(c.G), nearestCube(c.B)
	cubeIdx := 16 + 36*cr + 6*cg + cb

	gray := (int(c.R) + int(c.G) + int(c.B)) / 3
	if max(abs(int(c.R)-gray), abs(int(c.G)-gray), abs(int(c.B)-gray)) >= 10 {
		return cubeIdx
	}
	if gray < 4 {
		return 16
	}
	if gray > 243 {
		return 231
	}

	grayIdx := 232 + (gray-8)/10
	if grayIdx > 255 {
		grayIdx = 255
	}
	if grayIdx < 232 {
		grayIdx = 232
	}
	grayLevel := 8 + (grayIdx-232)*10
	grayDist := abs(int(c.R)-grayLevel) + abs(int(c.G)-grayLevel) + abs(int(c.B)-grayLevel)
	cubeDist := abs(int(c.R)-int(cubeValues[cr])) +
		abs(int(c.G)-int(cubeValues[cg])) +
		abs(int(c.B)-int(cubeValues[cb]))

	if grayDist < cubeDist {
		return uint8(grayIdx)
	}
	return cubeIdx
}

// DetectColorMode determines terminal color capability from environment
func DetectColorMode() ColorMode {
	// 1. COLORTERM, set by modern terminals
	colorterm := os.Getenv("COLORTERM")
	if colorterm == "truecolor" || colorterm == "24bit" {
		return ColorModeTrueColor
	}

	// 2. Terminal-specific env vars
	for _, env := range []string{"KITTY_WINDOW_ID", "KONSOLE_VERSION", "ITERM_SESSION_ID", "ALACRITTY_WINDOW_ID", "WEZTERM_PANE"} {
		if os.Getenv(env) != "" {
			return ColorModeTrueColor
		}
	}

	// 3. TERM naming
	termLower := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(termLower, "truecolor") ||
		strings.Contains(termLower, "24bit") ||
		strings.Contains(termLower, "direct") {
		return ColorModeTrueColor
	}

	return ColorMode256
}
