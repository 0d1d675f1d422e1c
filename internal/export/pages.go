package export

import (
	"bytes"
	"encoding/json"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/langexport/internal/routes"
)

// PayloadDir is the directory below the assets directory holding route payloads.
const PayloadDir = "payloads"

// routeDir returns the slash separated directory a route maps to, without
// leading or trailing slashes. The root route maps to "".
func routeDir(route string) string {
	p, err := url.PathUnescape(route)
	if err != nil {
		p = route
	}
	return strings.Trim(path.Clean("/"+p), "/")
}

// PagePath returns the file, relative to the output directory, a route is written to.
// With subfolders every route becomes <route>/index.html, otherwise <route>.html.
func PagePath(route string, subfolders bool) string {
	dir := routeDir(route)
	switch {
	case dir == "":
		return "index.html"
	case subfolders:
		return filepath.FromSlash(dir + "/index.html")
	default:
		return filepath.FromSlash(dir + ".html")
	}
}

// PayloadPath returns the payload file of a route relative to the assets directory.
func PayloadPath(route string) string {
	return filepath.Join(PayloadDir, filepath.FromSlash(routeDir(route)), "payload.json")
}

func writeFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(p, bytes.NewReader(data))
}

func writePayload(p string, payload routes.Payload) error {
	if payload == nil {
		payload = routes.Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writeFile(p, data)
}
