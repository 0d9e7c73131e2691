package terminal

// MouseButton identifies the button or wheel direction of a mouse report
type MouseButton uint8

const (
	MouseBtnNone MouseButton = iota
	MouseBtnLeft
	MouseBtnMiddle
	MouseBtnRight
	MouseBtnWheelUp
	MouseBtnWheelDown
	MouseBtnBack    // Button 4 (if supported)
	MouseBtnForward // Button 5 (if supported)
)

var mouseButtonNames = [...]string{
	MouseBtnNone:      "none",
	MouseBtnLeft:      "left",
	MouseBtnMiddle:    "middle",
	MouseBtnRight:     "right",
	MouseBtnWheelUp:   "wheel_up",
	MouseBtnWheelDown: "wheel_down",
	MouseBtnBack:      "back",
	MouseBtnForward:   "forward",
}

func (b MouseButton) String() string {
	if int(b) < len(mouseButtonNames) {
		return mouseButtonNames[b]
	}
	return "unknown"
}

// IsWheel reports a scroll step; wheel reports carry no release
func (b MouseButton) IsWheel() bool {
	return b == MouseBtnWheelUp || b == MouseBtnWheelDown
}

// MouseAction is what happened to the button
type MouseAction uint8

const (
	MouseActionNone MouseAction = iota
	MouseActionPress
	MouseActionRelease
	MouseActionMove
	MouseActionDrag
)

var mouseActionNames = [...]string{
	MouseActionNone:    "none",
	MouseActionPress:   "press",
	MouseActionRelease: "release",
	MouseActionMove:    "move",
	MouseActionDrag:    "drag",
}

func (a MouseAction) String() string {
	if int(a) < len(mouseActionNames) {
		return mouseActionNames[a]
	}
	return "unknown"
}

// SGR (1006) button code bits
const (
	sgrButtonMask = 0x03
	sgrShift      = 4
	sgrAlt        = 8
	sgrCtrl       = 16
	sgrMotion     = 32
	sgrWheel      = 64
	sgrExtra      = 128
)

// sgrButton maps the low bits of an SGR button code, with the wheel and extra-button flags
func sgrButton(code int) MouseButton {
	id := code & sgrButtonMask
	switch {
	case code&sgrWheel != 0:
		if id == 0 {
			return MouseBtnWheelUp
		}
		return MouseBtnWheelDown
	case code&sgrExtra != 0:
		switch id {
		case 0:
			return MouseBtnBack
		case 1:
			return MouseBtnForward
		}
		return MouseBtnNone
	}
	switch id {
	case 0:
		return MouseBtnLeft
	case 1:
		return MouseBtnMiddle
	case 2:
		return MouseBtnRight
	}
	return MouseBtnNone
}

// sgrModifiers extracts the modifier bits of an SGR button code
func sgrModifiers(code int) Modifier {
	var m Modifier
	if code&sgrShift != 0 {
		m |= ModShift
	}
	if code&sgrAlt != 0 {
		m |= ModAlt
	}
	if code&sgrCtrl != 0 {
		m |= ModCtrl
	}
	return m
}
