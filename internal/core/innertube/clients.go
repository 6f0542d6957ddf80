package innertube

// ClientProfile describes one simulated client identity used for innertube
// requests. Profiles are immutable; the ordered priority list below is
// iterated per extraction attempt.
type ClientProfile struct {
	// Tag identifies the profile in config and logs (e.g., "android_vr")
	Tag string

	ClientName    string // innertube clientName, e.g. "ANDROID_VR"
	ClientVersion string
	ContextNameID int // numeric value for the X-YouTube-Client-Name header

	UserAgent   string
	DeviceMake  string
	DeviceModel string
	OSName      string
	OSVersion   string
	AndroidSDK  int

	Host string

	// RequiresJSPlayer marks profiles whose media URLs are cipher-protected
	// and need the player script transforms before they are usable
	RequiresJSPlayer bool
}

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

var clients = map[string]ClientProfile{
	"android_vr": {
		Tag:           "android_vr",
		ClientName:    "ANDROID_VR",
		ClientVersion: "1.71.26",
		ContextNameID: 28,
		UserAgent:     "com.google.android.apps.youtube.vr.oculus/1.71.26 (Linux; U; Android 12L; eureka-user Build/SQ3A.220605.009.A1) gzip",
		DeviceMake:    "Oculus",
		DeviceModel:   "Quest 3",
		OSName:        "Android",
		OSVersion:     "12L",
		AndroidSDK:    32,
		Host:          "www.youtube.com",
	},
	"ios": {
		Tag:           "ios",
		ClientName:    "IOS",
		ClientVersion: "21.02.3",
		ContextNameID: 5,
		UserAgent:     "com.google.ios.youtube/21.02.3 (iPhone16,2; U; CPU iOS 18_3_2 like Mac OS X;)",
		DeviceMake:    "Apple",
		DeviceModel:   "iPhone16,2",
		OSName:        "iPhone",
		OSVersion:     "18.3.2.22D82",
		Host:          "www.youtube.com",
	},
	"android": {
		Tag:           "android",
		ClientName:    "ANDROID",
		ClientVersion: "21.02.35",
		ContextNameID: 3,
		UserAgent:     "com.google.android.youtube/21.02.35 (Linux; U; Android 11) gzip",
		OSName:        "Android",
		OSVersion:     "11",
		AndroidSDK:    30,
		Host:          "www.youtube.com",
	},
	"tv": {
		Tag:              "tv",
		ClientName:       "TVHTML5",
		ClientVersion:    "7.20260114.12.00",
		ContextNameID:    7,
		UserAgent:        "Mozilla/5.0 (ChromiumStylePlatform) Cobalt/25.lts.30.1034943-gold (unlike Gecko)",
		Host:             "www.youtube.com",
		RequiresJSPlayer: true,
	},
	"web": {
		Tag:              "web",
		ClientName:       "WEB",
		ClientVersion:    "2.20260114.08.00",
		ContextNameID:    1,
		UserAgent:        desktopUserAgent,
		Host:             "www.youtube.com",
		RequiresJSPlayer: true,
	},
}

// defaultPriority orders profiles by empirical reliability: clients whose
// responses carry ready-to-use URLs come first, the web client (which always
// needs the player script) last.
var defaultPriority = []string{"android_vr", "ios", "android", "tv", "web"}

// Profile looks up a client profile by tag.
func Profile(tag string) (ClientProfile, bool) {
	p, ok := clients[tag]
	return p, ok
}

// Profiles returns the fallback list in priority order. An empty or nil
// override selects the built-in default order; unknown tags are skipped.
func Profiles(override []string) []ClientProfile {
	tags := override
	if len(tags) == 0 {
		tags = defaultPriority
	}
	out := make([]ClientProfile, 0, len(tags))
	for _, tag := range tags {
		if p, ok := clients[tag]; ok {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return Profiles(nil)
	}
	return out
}

// context returns the innertube context client block for the request body.
func (p ClientProfile) context() map[string]any {
	client := map[string]any{
		"clientName":    p.ClientName,
		"clientVersion": p.ClientVersion,
		"hl":            "en",
	}
	if p.UserAgent != desktopUserAgent && p.UserAgent != "" {
		client["userAgent"] = p.UserAgent
	}
	if p.DeviceMake != "" {
		client["deviceMake"] = p.DeviceMake
	}
	if p.DeviceModel != "" {
		client["deviceModel"] = p.DeviceModel
	}
	if p.OSName != "" {
		client["osName"] = p.OSName
		client["osVersion"] = p.OSVersion
	}
	if p.AndroidSDK > 0 {
		client["androidSdkVersion"] = p.AndroidSDK
	}
	return map[string]any{"client": client}
}
