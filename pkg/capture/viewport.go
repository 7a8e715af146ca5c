package capture

// Viewport is a named device profile used for a capture pass.
type Viewport struct {
	Name              string
	Width             int
	Height            int
	DeviceScaleFactor int
	Mobile            bool
}

// Viewports are captured in this order for every run.
var Viewports = []Viewport{
	{Name: "desktop", Width: 1920, Height: 1080, DeviceScaleFactor: 1},
	{Name: "mobile", Width: 390, Height: 844, DeviceScaleFactor: 2, Mobile: true},
}
