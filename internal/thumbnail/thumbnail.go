// Package thumbnail decides how a stored file is previewed: the file itself
// when it is a raster image, otherwise a generic icon for its type.
package thumbnail

import (
	"strings"
)

const (
	size             = 100
	baseImageClass   = "size-8 object-contain"
	previewClass     = "thumbnail-image"
	baseFigureClass  = "thumbnail"
	thumbnailAltText = "thumbnail"
)

// Input describes the file to preview. URL may be empty.
type Input struct {
	FileType   string `json:"type" query:"type"`
	Extension  string `json:"extension" query:"extension"`
	URL        string `json:"url" query:"url"`
	ImageClass string `json:"imageClassName" query:"imageClassName"`
	Class      string `json:"className" query:"className"`
}

// View is the rendered decision.
type View struct {
	Src         string `json:"src"`
	Alt         string `json:"alt"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	IsImage     bool   `json:"isImage"`
	FigureClass string `json:"className"`
	ImageClass  string `json:"imageClassName"`
}

// IsImage reports whether the file is previewed from its own URL. SVG is
// excluded even when typed as an image, and the extension match ignores case,
// so "SVG" gets the icon too.
func IsImage(fileType, extension string) bool {
	return fileType == TypeImage && !strings.EqualFold(extension, "svg")
}

// Render picks the preview source. The URL is used as-is; a missing or
// broken URL is left to the browser.
func Render(in Input) View {
	image := IsImage(in.FileType, in.Extension)
	src := in.URL
	if !image {
		src = FileIcon(in.Extension, in.FileType)
	}
	imageClass := []string{baseImageClass, in.ImageClass}
	if image {
		imageClass = append(imageClass, previewClass)
	}
	return View{
		Src:         src,
		Alt:         thumbnailAltText,
		Width:       size,
		Height:      size,
		IsImage:     image,
		FigureClass: classNames(baseFigureClass, in.Class),
		ImageClass:  classNames(imageClass...),
	}
}

func classNames(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
