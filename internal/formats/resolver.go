// Package formats maps file names to format descriptors. It is a leaf
// component: pure functions over the closed table of nine supported
// extensions, no side effects.
package formats

import (
	"strings"

	"github.com/ternarybob/prism/internal/models"
)

// descriptors is the canonical extension table. 3ds and 3mf are routed
// through the obj and stl parsers respectively; genuine 3DS/3MF binary
// content will be rejected by those parsers. That routing is a known gap
// inherited from the original pipeline, kept for contract compatibility.
var descriptors = map[string]models.FormatDescriptor{
	"obj":  {Extension: "obj", MIMEType: "model/obj", Kind: models.LoaderKindOBJ, Encoding: models.EncodingText},
	"fbx":  {Extension: "fbx", MIMEType: "application/octet-stream", Kind: models.LoaderKindFBX, Encoding: models.EncodingBinary},
	"stl":  {Extension: "stl", MIMEType: "model/stl", Kind: models.LoaderKindSTL, Encoding: models.EncodingBinary},
	"ply":  {Extension: "ply", MIMEType: "application/octet-stream", Kind: models.LoaderKindPLY, Encoding: models.EncodingBinary},
	"dae":  {Extension: "dae", MIMEType: "model/vnd.collada+xml", Kind: models.LoaderKindCollada, Encoding: models.EncodingText},
	"3ds":  {Extension: "3ds", MIMEType: "application/x-3ds", Kind: models.LoaderKindOBJ, Encoding: models.EncodingBinary},
	"gltf": {Extension: "gltf", MIMEType: "model/gltf+json", Kind: models.LoaderKindGLTF, Encoding: models.EncodingBinary},
	"glb":  {Extension: "glb", MIMEType: "model/gltf-binary", Kind: models.LoaderKindGLTF, Encoding: models.EncodingBinary},
	"3mf":  {Extension: "3mf", MIMEType: "model/3mf", Kind: models.LoaderKindSTL, Encoding: models.EncodingBinary},
}

// Resolve maps a file name to its format descriptor using the final suffix
// only, case-insensitively. Unknown extensions yield an
// UnsupportedFormatError.
func Resolve(fileName string) (models.FormatDescriptor, error) {
	ext := Extension(fileName)
	desc, ok := descriptors[ext]
	if !ok {
		return models.FormatDescriptor{}, &models.UnsupportedFormatError{Extension: ext}
	}
	return desc, nil
}

// Extension returns the lowercased final suffix of fileName without the dot,
// or "" when the name has no dot.
func Extension(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 || idx == len(fileName)-1 {
		return ""
	}
	return strings.ToLower(fileName[idx+1:])
}

// Supported returns the supported extensions in no particular order.
func Supported() []string {
	exts := make([]string, 0, len(descriptors))
	for ext := range descriptors {
		exts = append(exts, ext)
	}
	return exts
}
