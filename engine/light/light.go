package light

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	direction [3]float32
	color     [4]float32
	intensity float32
	enabled   bool
}

// Light defines the interface for the scene's directional light.
//
// The light has no position, only a direction, and affects every lit fragment uniformly.
// It is written into its constant buffer once per frame.
type Light interface {
	// Direction returns the normalized direction the light travels in.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// SetDirection replaces the direction. The vector is normalized before storing.
	//
	// Parameters:
	//   - x, y, z: the direction components
	SetDirection(x, y, z float32)

	// Color returns the RGBA color of the light.
	//
	// Returns:
	//   - [4]float32: color as (r, g, b, a)
	Color() [4]float32

	// SetColor replaces the color.
	SetColor(color [4]float32)

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// SetIntensity replaces the intensity multiplier.
	SetIntensity(intensity float32)

	// Enabled returns whether this light is active. A disabled light is written with zero intensity.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetEnabled toggles the light.
	SetEnabled(enabled bool)

	// GPU builds the constant block for this light.
	//
	// Returns:
	//   - GPUDirectionalLight: the constants
	GPU() GPUDirectionalLight
}

var _ Light = &lightImpl{}

// NewLight creates a directional light. Defaults: white, pointing down (0, -1, 0), intensity 1.
//
// Parameters:
//   - options: variadic LightBuilderOption functions
//
// Returns:
//   - Light: the light
func NewLight(options ...LightBuilderOption) Light {
	l := &lightImpl{
		direction: [3]float32{0, -1, 0},
		color:     [4]float32{1, 1, 1, 1},
		intensity: 1,
		enabled:   true,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = normalize3(x, y, z)
}

func (l *lightImpl) Color() [4]float32 {
	return l.color
}

func (l *lightImpl) SetColor(color [4]float32) {
	l.color = color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) GPU() GPUDirectionalLight {
	g := GPUDirectionalLight{
		Color:     l.color,
		Direction: l.direction,
	}
	if l.enabled {
		g.Intensity = l.intensity
	}
	return g
}
