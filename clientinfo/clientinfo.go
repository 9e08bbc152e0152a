// Package clientinfo derives the analytics context of a request: the client
// IP, a coarse device category and the operating system name. Resolution
// never fails; anything that cannot be determined comes back as "Unknown".
package clientinfo

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mileusna/useragent"
)

const Unknown = "Unknown"

// Context is the resolved {ip, device, os} triple attached to a click.
type Context struct {
	IPAddress string `json:"ip_address"`
	Device    string `json:"device"`
	OS        string `json:"os"`
}

// Resolve extracts the client context from the request. The first entry of
// X-Forwarded-For wins over the socket address, matching proxy setups where
// the service sits behind a load balancer.
func Resolve(c *gin.Context) Context {
	return Context{
		IPAddress: resolveIP(c),
		Device:    resolveDevice(c.Request.UserAgent()),
		OS:        resolveOS(c.Request.UserAgent()),
	}
}

func resolveIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return Unknown
}

func resolveDevice(rawUA string) string {
	if rawUA == "" {
		return Unknown
	}
	ua := useragent.Parse(rawUA)
	switch {
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Bot:
		return "bot"
	case ua.Desktop:
		return "desktop"
	default:
		return Unknown
	}
}

func resolveOS(rawUA string) string {
	if rawUA == "" {
		return Unknown
	}
	if ua := useragent.Parse(rawUA); ua.OS != "" {
		return ua.OS
	}
	return Unknown
}
