package useragent

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UserAgent holds the parsed parts of a User-Agent string.
type UserAgent struct {
	raw         string
	deviceType  string
	os          string
	browserName string
	browserVer  string
}

func (ua UserAgent) String() string      { return ua.raw }
func (ua UserAgent) DeviceType() string  { return ua.deviceType }
func (ua UserAgent) OS() string          { return ua.os }
func (ua UserAgent) BrowserName() string { return ua.browserName }
func (ua UserAgent) BrowserVer() string  { return ua.browserVer }

// keywordSet matches when any keyword is contained in the input.
type keywordSet []string

func (k keywordSet) contains(s string) bool {
	for _, keyword := range k {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}

var (
	botKeywords    = keywordSet{"bot", "spider", "crawler", "slurp", "lighthouse"}
	tabletKeywords = keywordSet{"ipad", "tablet", "kindle", "silk"}
	mobileKeywords = keywordSet{"mobile", "iphone", "ipod", "windows phone"}

	chromeOSKeywords = keywordSet{"cros", "chromeos"}
	linuxKeywords    = keywordSet{"linux", "ubuntu", "debian", "fedora", "x11"}
)

type browserPattern struct {
	name     string
	keywords keywordSet // any must match
	excludes keywordSet // none may match
	version  *regexp.Regexp
}

// Order matters: Chromium derivatives announce "chrome" too, Chrome announces "safari".
var browserPatterns = []browserPattern{
	{name: BrowserEdge, keywords: keywordSet{"edg/", "edge/", "edga/", "edgios/"}, version: regexp.MustCompile(`edg(?:e|a|ios)?/([\d.]+)`)},
	{name: BrowserSamsung, keywords: keywordSet{"samsungbrowser"}, version: regexp.MustCompile(`samsungbrowser/([\d.]+)`)},
	{name: BrowserYandex, keywords: keywordSet{"yabrowser"}, version: regexp.MustCompile(`yabrowser/([\d.]+)`)},
	{name: BrowserVivaldi, keywords: keywordSet{"vivaldi"}, version: regexp.MustCompile(`vivaldi/([\d.]+)`)},
	{name: BrowserBrave, keywords: keywordSet{"brave"}, version: regexp.MustCompile(`brave/([\d.]+)`)},
	{name: BrowserOpera, keywords: keywordSet{"opr/", "opera"}, version: regexp.MustCompile(`(?:opr|opera)[/ ]([\d.]+)`)},
	{name: BrowserFirefox, keywords: keywordSet{"firefox/", "fxios/"}, version: regexp.MustCompile(`(?:firefox|fxios)/([\d.]+)`)},
	{name: BrowserChrome, keywords: keywordSet{"chrome/", "crios/"}, version: regexp.MustCompile(`(?:chrome|crios)/([\d.]+)`)},
	{name: BrowserSafari, keywords: keywordSet{"safari/"}, excludes: keywordSet{"chrome", "android"}, version: regexp.MustCompile(`version/([\d.]+)`)},
}

// Parse extracts device type, OS and browser from a User-Agent string.
// Unrecognised parts are reported as unknown; Parse never fails.
func Parse(raw string) UserAgent {
	lower := strings.ToLower(strings.TrimSpace(raw))
	ua := UserAgent{raw: raw}
	ua.os = parseOS(lower)
	ua.deviceType = parseDeviceType(lower)
	ua.browserName, ua.browserVer = parseBrowser(lower)
	return ua
}

func parseOS(lower string) string {
	switch {
	case lower == "":
		return OSUnknown
	case strings.Contains(lower, "windows"):
		return OSWindows
	case strings.Contains(lower, "ipad"):
		return OSiPadOS
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ipod"):
		return OSiOS
	case strings.Contains(lower, "macintosh"), strings.Contains(lower, "mac os x"):
		return OSMacOS
	case strings.Contains(lower, "android"):
		return OSAndroid
	case chromeOSKeywords.contains(lower):
		return OSChromeOS
	case linuxKeywords.contains(lower):
		return OSLinux
	}
	return OSUnknown
}

func parseDeviceType(lower string) string {
	switch {
	case lower == "":
		return DeviceTypeUnknown
	case botKeywords.contains(lower):
		return DeviceTypeBot
	case tabletKeywords.contains(lower):
		return DeviceTypeTablet
	case strings.Contains(lower, "android"):
		// Android tablets omit the "mobile" token.
		if strings.Contains(lower, "mobile") {
			return DeviceTypeMobile
		}
		return DeviceTypeTablet
	case mobileKeywords.contains(lower):
		return DeviceTypeMobile
	case parseOS(lower) != OSUnknown:
		return DeviceTypeDesktop
	}
	return DeviceTypeUnknown
}

func parseBrowser(lower string) (name, version string) {
	for _, p := range browserPatterns {
		if !p.keywords.contains(lower) || p.excludes.contains(lower) {
			continue
		}
		if m := p.version.FindStringSubmatch(lower); len(m) > 1 {
			version = m[1]
		}
		return p.name, version
	}
	return BrowserUnknown, ""
}

var osDisplayNames = map[string]string{
	OSWindows:  "Windows",
	OSMacOS:    "macOS",
	OSiOS:      "iPhone",
	OSiPadOS:   "iPad",
	OSAndroid:  "Android",
	OSChromeOS: "ChromeOS",
	OSLinux:    "Linux",
}

// DisplayName returns a label like "Chrome on macOS" suitable for a device list.
func (ua UserAgent) DisplayName() string {
	osName, knownOS := osDisplayNames[ua.os]
	if ua.os == OSAndroid && ua.deviceType == DeviceTypeTablet {
		osName = "Android tablet"
	}

	browser := ""
	if ua.browserName != BrowserUnknown && ua.browserName != "" {
		browser = cases.Title(language.English).String(ua.browserName)
	}

	switch {
	case browser != "" && knownOS:
		return browser + " on " + osName
	case browser != "":
		return browser
	case knownOS:
		return osName + " device"
	}
	return "Unknown device"
}
