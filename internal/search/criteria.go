package search

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"

	"refsearch/internal/reference"
)

// Class categorizes a matched entry.
type Class string

const (
	// ClassFolder represents a matched directory.
	ClassFolder Class = "folder"
	// ClassImage represents a raster image file.
	ClassImage Class = "image"
	// ClassVideo represents a video file.
	ClassVideo Class = "video"
	// ClassTechnicalSheet represents a PDF technical sheet.
	ClassTechnicalSheet Class = "sheet"
	// ClassOther represents a file matched through user-supplied extensions.
	ClassOther Class = "other"
)

// ParseClass returns the Class for its string form, or false if unknown.
func ParseClass(s string) (Class, bool) {
	switch Class(strings.ToLower(strings.TrimSpace(s))) {
	case ClassFolder:
		return ClassFolder, true
	case ClassImage:
		return ClassImage, true
	case ClassVideo:
		return ClassVideo, true
	case ClassTechnicalSheet:
		return ClassTechnicalSheet, true
	case ClassOther:
		return ClassOther, true
	}
	return "", false
}

// imageExtensions maps file extensions to whether they are common raster formats.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// videoExtensions maps file extensions to whether they are common video formats.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ts":   true,
}

// sheetExtensions maps file extensions recognized as technical sheets.
var sheetExtensions = map[string]bool{
	".pdf": true,
}

// Criteria is the immutable input of one search session: the normalized
// reference set, the selected file-type classes plus custom extensions,
// and the optimized root set. Build it with NewCriteria; a zero Criteria
// is not valid.
type Criteria struct {
	references []reference.Token
	classes    map[Class]bool
	customExts map[string]bool
	roots      []string

	// matchAll puts the traversal in image-discovery mode: every image
	// file is reported regardless of name. Used by the similarity matcher.
	matchAll bool
}

// NewCriteria validates and freezes search criteria. References are deduped
// by key preserving order, custom extensions are lowercased and
// dot-prefixed, and roots go through OptimizeRoots.
func NewCriteria(refs []reference.Token, classes []Class, customExts []string, roots []string, resolveSymlinks bool) (Criteria, error) {
	optimized := OptimizeRoots(roots, resolveSymlinks)
	if len(optimized) == 0 {
		return Criteria{}, ErrNoRoots
	}
	if len(classes) == 0 {
		return Criteria{}, ErrNoFileTypes
	}
	if len(refs) == 0 {
		return Criteria{}, ErrNoReferences
	}

	c := Criteria{
		classes:    make(map[Class]bool, len(classes)),
		customExts: make(map[string]bool, len(customExts)),
		roots:      optimized,
	}
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref.Key == "" {
			continue
		}
		if _, dup := seen[ref.Key]; dup {
			continue
		}
		seen[ref.Key] = struct{}{}
		c.references = append(c.references, ref)
	}
	if len(c.references) == 0 {
		return Criteria{}, ErrNoReferences
	}
	for _, class := range classes {
		c.classes[class] = true
	}
	for _, ext := range customExts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.customExts[ext] = true
	}
	return c, nil
}

// NewImageScanCriteria builds criteria for image-discovery mode: every
// image file under the roots is a candidate, no reference matching.
func NewImageScanCriteria(roots []string, resolveSymlinks bool) (Criteria, error) {
	optimized := OptimizeRoots(roots, resolveSymlinks)
	if len(optimized) == 0 {
		return Criteria{}, ErrNoRoots
	}
	return Criteria{
		classes:  map[Class]bool{ClassImage: true},
		roots:    optimized,
		matchAll: true,
	}, nil
}

// References returns the normalized reference tokens in insertion order.
func (c Criteria) References() []reference.Token {
	out := make([]reference.Token, len(c.references))
	copy(out, c.references)
	return out
}

// Roots returns the optimized search roots in order.
func (c Criteria) Roots() []string {
	out := make([]string, len(c.roots))
	copy(out, c.roots)
	return out
}

// HasClass reports whether the given class was selected.
func (c Criteria) HasClass(class Class) bool {
	return c.classes[class]
}

// classifyFile returns the class of a file name by extension. Custom
// extensions win over the built-in tables so users can reclassify
// overlapping formats.
func (c Criteria) classifyFile(name string) (Class, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "", false
	}
	switch {
	case c.customExts[ext]:
		return ClassOther, true
	case imageExtensions[ext]:
		return ClassImage, true
	case videoExtensions[ext]:
		return ClassVideo, true
	case sheetExtensions[ext]:
		return ClassTechnicalSheet, true
	}
	return "", false
}

// Key returns a stable hex-encoded hash of the criteria, used as the
// result cache key. Reference order and class order do not affect it;
// root order does (it is part of the optimized set's identity).
func (c Criteria) Key() string {
	keys := make([]string, 0, len(c.references))
	for _, ref := range c.references {
		keys = append(keys, ref.Key)
	}
	sort.Strings(keys)

	classes := make([]string, 0, len(c.classes))
	for class := range c.classes {
		classes = append(classes, string(class))
	}
	sort.Strings(classes)

	exts := make([]string, 0, len(c.customExts))
	for ext := range c.customExts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	h := sha256.New()
	writeSection := func(section string, values []string) {
		h.Write([]byte(section))
		for _, v := range values {
			h.Write([]byte{0})
			h.Write([]byte(v))
		}
		h.Write([]byte{0xff})
	}
	writeSection("refs", keys)
	writeSection("classes", classes)
	writeSection("exts", exts)
	writeSection("roots", c.roots)
	if c.matchAll {
		writeSection("mode", []string{"image-scan"})
	}
	return hex.EncodeToString(h.Sum(nil))
}
