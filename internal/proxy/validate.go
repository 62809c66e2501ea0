package proxy

import (
	"encoding/json"
	"strings"
)

const (
	maxImageURLLen = 2048
	maxImageBytes  = 15 * 1024 * 1024
	maxBatchImages = 10
)

// validateOCRRequest checks the shape of a single-image request. It returns
// an empty string when the request is valid, otherwise the reason to send
// back to the client.
func validateOCRRequest(body []byte) string {
	var req struct {
		Image *json.RawMessage `json:"image"`
	}
	if len(body) == 0 || json.Unmarshal(body, &req) != nil {
		return "No JSON data provided"
	}
	if req.Image == nil {
		return "Missing 'image' field"
	}

	var image string
	if err := json.Unmarshal(*req.Image, &image); err != nil {
		return "Invalid image format"
	}

	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		if len(image) > maxImageURLLen {
			return "Image URL too long"
		}
	} else if len(image) > maxImageBytes {
		return "Image data too large"
	}

	return ""
}

// validateBatchRequest checks a batch request and returns the image count,
// which the caller needs before reserving quota for the whole batch.
func validateBatchRequest(body []byte) (int, string) {
	var req struct {
		Images *json.RawMessage `json:"images"`
	}
	if len(body) == 0 || json.Unmarshal(body, &req) != nil {
		return 0, "No JSON data provided"
	}
	if req.Images == nil {
		return 0, "Missing 'images' field"
	}

	var images []json.RawMessage
	if err := json.Unmarshal(*req.Images, &images); err != nil {
		return 0, "'images' must be an array"
	}
	if len(images) == 0 {
		return 0, "Empty images array"
	}
	if len(images) > maxBatchImages {
		return 0, "Maximum 10 images per batch"
	}

	return len(images), ""
}
