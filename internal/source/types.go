package source

type (
	// FileID uniquely identifies an input file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about an input file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	FileNormalizedCRLF
)

// File captures metadata and content for a single input file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in an input file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
