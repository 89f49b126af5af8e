package models

// LoaderKind identifies the parsing strategy required for a file format.
// The set is closed: every supported extension maps to exactly one kind.
type LoaderKind string

const (
	LoaderKindOBJ     LoaderKind = "obj"
	LoaderKindFBX     LoaderKind = "fbx"
	LoaderKindSTL     LoaderKind = "stl"
	LoaderKindPLY     LoaderKind = "ply"
	LoaderKindCollada LoaderKind = "collada"
	LoaderKindGLTF    LoaderKind = "gltf"
)

// Encoding describes how a format's bytes are acquired before parsing.
type Encoding string

const (
	EncodingBinary Encoding = "binary"
	EncodingText   Encoding = "text"
)

// FormatDescriptor is the immutable description of one supported file format.
// Exactly one descriptor exists per supported extension; formats may share a
// LoaderKind (3ds reuses the obj parser, 3mf reuses the stl parser).
type FormatDescriptor struct {
	Extension string     `json:"extension"` // lowercase, without leading dot
	MIMEType  string     `json:"mime_type"`
	Kind      LoaderKind `json:"loader_kind"`
	Encoding  Encoding   `json:"encoding"`
}
