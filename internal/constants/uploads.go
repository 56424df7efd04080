package constants

import "strings"

// UploadURLPrefix is where stored block images are served from.
const UploadURLPrefix = "/uploads/"

// imageTypes maps every extension an upload may be stored under to the
// media type it must sniff as.
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".ico":  "image/x-icon",
}

// ImageMediaType returns the media type served for ext.
func ImageMediaType(ext string) (string, bool) {
	mediaType, ok := imageTypes[strings.ToLower(ext)]
	return mediaType, ok
}

// ImageMediaTypes lists every accepted image media type.
func ImageMediaTypes() []string {
	seen := make(map[string]struct{}, len(imageTypes))
	types := make([]string, 0, len(imageTypes)+1)
	for _, mediaType := range imageTypes {
		if _, ok := seen[mediaType]; ok {
			continue
		}
		seen[mediaType] = struct{}{}
		types = append(types, mediaType)
	}
	// Sniffers report icons under either name.
	return append(types, "image/vnd.microsoft.icon")
}
