package thumbnail

import (
	"path"
	"strings"
)

// File type categories.
const (
	TypeDocument = "document"
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeOther    = "other"
)

const iconDir = "/assets/icons/"

var (
	documentExtensions = set("pdf", "doc", "docx", "txt", "xls", "xlsx", "csv", "rtf", "ods", "ppt", "odp", "md", "html", "htm", "epub", "pages", "fig", "psd", "ai", "indd", "xd", "sketch", "afdesign", "afphoto")
	imageExtensions    = set("jpg", "jpeg", "png", "gif", "bmp", "svg", "webp")
	videoExtensions    = set("mp4", "avi", "mov", "mkv", "webm")
	audioExtensions    = set("mp3", "wav", "ogg", "flac")

	extensionIcons = map[string]string{
		"pdf":  "file-pdf.svg",
		"doc":  "file-doc.svg",
		"docx": "file-docx.svg",
		"csv":  "file-csv.svg",
		"txt":  "file-txt.svg",
		"xls":  "file-document.svg",
		"xlsx": "file-document.svg",
		"svg":  "file-image.svg",
	}

	mediaIcons = []struct {
		exts map[string]struct{}
		icon string
	}{
		{exts: set("mkv", "mov", "avi", "wmv", "mp4", "flv", "webm", "m4v", "3gp"), icon: "file-video.svg"},
		{exts: set("mp3", "mpeg", "wav", "aac", "flac", "ogg", "wma", "m4a", "aiff", "alac"), icon: "file-audio.svg"},
	}

	typeIcons = map[string]string{
		TypeImage:    "file-image.svg",
		TypeDocument: "file-document.svg",
		TypeVideo:    "file-video.svg",
		TypeAudio:    "file-audio.svg",
	}
)

const fallbackIcon = "file-other.svg"

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// FileIcon returns the icon path for a file. The extension decides first,
// then the type; anything unknown gets the generic icon.
func FileIcon(extension, fileType string) string {
	ext := strings.ToLower(extension)
	if icon, ok := extensionIcons[ext]; ok {
		return iconDir + icon
	}
	for _, m := range mediaIcons {
		if _, ok := m.exts[ext]; ok {
			return iconDir + m.icon
		}
	}
	if icon, ok := typeIcons[fileType]; ok {
		return iconDir + icon
	}
	return iconDir + fallbackIcon
}

// Kind is the detected category and lower-cased extension of a file name.
type Kind struct {
	Type      string `json:"type"`
	Extension string `json:"extension"`
}

// FileType classifies a file name by its extension. Names without an
// extension are TypeOther with an empty extension.
func FileType(name string) Kind {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return Kind{Type: TypeOther}
	}
	switch {
	case contains(documentExtensions, ext):
		return Kind{Type: TypeDocument, Extension: ext}
	case contains(imageExtensions, ext):
		return Kind{Type: TypeImage, Extension: ext}
	case contains(videoExtensions, ext):
		return Kind{Type: TypeVideo, Extension: ext}
	case contains(audioExtensions, ext):
		return Kind{Type: TypeAudio, Extension: ext}
	default:
		return Kind{Type: TypeOther, Extension: ext}
	}
}

func contains(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
