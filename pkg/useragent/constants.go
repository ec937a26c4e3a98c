package useragent

// Device types.
const (
	DeviceTypeMobile  = "mobile"
	DeviceTypeTablet  = "tablet"
	DeviceTypeDesktop = "desktop"
	DeviceTypeBot     = "bot"
	DeviceTypeUnknown = "unknown"
)

// Browser identifiers.
const (
	BrowserChrome  = "chrome"
	BrowserFirefox = "firefox"
	BrowserSafari  = "safari"
	BrowserEdge    = "edge"
	BrowserOpera   = "opera"
	BrowserSamsung = "samsung internet"
	BrowserBrave   = "brave"
	BrowserVivaldi = "vivaldi"
	BrowserYandex  = "yandex"
	BrowserUnknown = "unknown"
)

// Operating system identifiers.
const (
	OSWindows  = "windows"
	OSMacOS    = "macos"
	OSiOS      = "ios"
	OSiPadOS   = "ipados"
	OSAndroid  = "android"
	OSChromeOS = "chromeos"
	OSLinux    = "linux"
	OSUnknown  = "unknown"
)
