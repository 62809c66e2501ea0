package upstream

import "strings"

// Backend is an internal OCR inference server the gateway can sit in front
// of. BaseURL points at the server's default local port; these servers are
// never exposed to the internet directly.
type Backend struct {
	Name    string
	BaseURL string
}

var registry = map[string]Backend{
	"paddleocr": {
		Name:    "paddleocr",
		BaseURL: "http://localhost:5000",
	},
	"easyocr": {
		Name:    "easyocr",
		BaseURL: "http://localhost:5001",
	},
	"olmocr": {
		Name:    "olmocr",
		BaseURL: "http://localhost:5002",
	},
	"deepseek": {
		Name:    "deepseek",
		BaseURL: "http://localhost:5003",
	},
}

// customURLs stores operator-configured base URLs for backends running on
// non-default hosts or ports.
var customURLs = map[string]string{}

// SetCustomURL overrides the base URL for a backend.
func SetCustomURL(name, url string) {
	customURLs[strings.ToLower(name)] = url
}

func Get(name string) (Backend, bool) {
	b, ok := registry[strings.ToLower(name)]
	if ok {
		if custom, found := customURLs[b.Name]; found && custom != "" {
			b.BaseURL = custom
		}
	}
	return b, ok
}

func All() map[string]Backend {
	return registry
}
