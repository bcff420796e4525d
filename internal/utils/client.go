package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	ua "github.com/mssola/user_agent"
	"github.com/travelbooking/catalog-api/internal/models"
)

// DeviceInfo is what a User-Agent header says about the client
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, tablet, desktop, unknown
	Platform   string `json:"platform"`    // android, ios, windows, mac, linux, unknown
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
}

var tabletMarkers = []string{"ipad", "tablet", "kindle", "sm-t", "nexus 7", "nexus 9", "nexus 10"}

var platformMarkers = []struct{ marker, platform string }{
	{"android", "android"},
	{"iphone os", "ios"},
	{"ios", "ios"},
	{"windows", "windows"},
	{"mac os", "mac"},
	{"macos", "mac"},
	{"chrome os", "chromeos"},
	{"linux", "linux"},
}

// ParseUserAgent extracts the device description from a User-Agent string
func ParseUserAgent(raw string) DeviceInfo {
	if strings.TrimSpace(raw) == "" {
		return DeviceInfo{DeviceType: "unknown", Platform: "unknown", OS: "Unknown", Browser: "Unknown"}
	}

	parser := ua.New(raw)
	info := DeviceInfo{DeviceType: "desktop", Platform: "unknown", OS: "Unknown", Browser: "Unknown", IsBot: parser.Bot()}

	if parser.Mobile() {
		info.DeviceType = "mobile"
		lower := strings.ToLower(raw)
		for _, m := range tabletMarkers {
			if strings.Contains(lower, m) {
				info.DeviceType = "tablet"
				break
			}
		}
	}

	os := parser.OSInfo()
	if os.Name != "" {
		info.OS = strings.TrimSpace(os.Name + " " + os.Version)
	}
	osName := strings.ToLower(os.Name)
	for _, p := range platformMarkers {
		if strings.Contains(osName, p.marker) {
			info.Platform = p.platform
			break
		}
	}

	if name, version := parser.Browser(); name != "" {
		info.Browser = strings.TrimSpace(name + " " + version)
	}
	return info
}

// ClientIP returns the caller's address. X-Real-IP wins, then the first public
// address of X-Forwarded-For, then gin's view of the connection.
func ClientIP(c *gin.Context) string {
	if ip := net.ParseIP(strings.TrimSpace(c.GetHeader("X-Real-IP"))); ip != nil && !ip.IsPrivate() {
		return ip.String()
	}

	var first string
	for _, part := range strings.Split(c.GetHeader("X-Forwarded-For"), ",") {
		ip := net.ParseIP(strings.TrimSpace(part))
		if ip == nil {
			continue
		}
		if first == "" {
			first = ip.String()
		}
		if !ip.IsPrivate() && !ip.IsLoopback() {
			return ip.String()
		}
	}
	if first != "" {
		return first
	}
	return c.ClientIP()
}

// Session describes the client making the request for refresh token bookkeeping
func Session(c *gin.Context) models.SessionInfo {
	raw := c.Request.UserAgent()
	device := ParseUserAgent(raw)
	return models.SessionInfo{
		IP:         ClientIP(c),
		UserAgent:  raw,
		DeviceType: device.DeviceType,
		Platform:   device.Platform,
	}
}
