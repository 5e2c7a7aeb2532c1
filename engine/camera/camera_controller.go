package camera

// CameraController turns input events into camera motion. Key events may arrive at any
// point between frames; motion is applied in Update.
type CameraController interface {
	// KeyDown records a key press.
	//
	// Parameters:
	//   - keyCode: the key code, see common.Key*
	KeyDown(keyCode uint32)

	// KeyUp records a key release.
	//
	// Parameters:
	//   - keyCode: the key code, see common.Key*
	KeyUp(keyCode uint32)

	// Update moves the attached camera for every held key, scaled by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// MoveSpeed returns the translation speed in world units per second.
	MoveSpeed() float32

	// TexturesEnabled reports the state of the texture toggle.
	TexturesEnabled() bool

	// attach binds the controller to the camera it drives.
	attach(c Camera)
}
