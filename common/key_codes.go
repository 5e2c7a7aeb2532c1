package common

// Key codes delivered by the window's key callbacks. They match GLFW key codes, which use
// ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW = 87
	KeyA = 65
	KeyS = 83
	KeyD = 68
	KeyQ = 81
	KeyE = 69
	KeyR = 82
	KeyT = 84

	KeySpace = 32
	KeyEsc   = 256

	KeyLeft  = 263
	KeyRight = 262
	KeyDown  = 264
	KeyUp    = 265

	KeyLeftShift  = 340
	KeyRightShift = 344
)
