package gpu

// DeviceOption configures NewDevice.
type DeviceOption func(*deviceOptions)

type deviceOptions struct {
	formats    ShaderFormat
	debug      bool
	driverName string
}

func defaultDeviceOptions() deviceOptions {
	return deviceOptions{formats: ShaderFormatSPIRV}
}

// WithShaderFormats declares the shader byte formats the application will
// provide. Defaults to SPIR-V, which is also what CreateShaderFromWGSL
// emits.
func WithShaderFormats(formats ...ShaderFormat) DeviceOption {
	return func(o *deviceOptions) {
		var all ShaderFormat
		for _, f := range formats {
			all |= f
		}
		o.formats = all
	}
}

// WithDebugMode enables the native validation/debug layer.
func WithDebugMode() DeviceOption {
	return func(o *deviceOptions) {
		o.debug = true
	}
}

// WithDriverName requests a specific native GPU backend ("vulkan",
// "metal", ...) instead of the platform default.
func WithDriverName(name string) DeviceOption {
	return func(o *deviceOptions) {
		o.driverName = name
	}
}
