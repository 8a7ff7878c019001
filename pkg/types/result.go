package types

// ElementKind is the kind of a stored structural element
type ElementKind string

const (
	ElementImport    ElementKind = "import"
	ElementPackage   ElementKind = "package"
	ElementClass     ElementKind = "class"
	ElementDataType  ElementKind = "datatype"
	ElementEnum      ElementKind = "enum"
	ElementGenset    ElementKind = "genset"
	ElementRelation  ElementKind = "relation"
	ElementAttribute ElementKind = "attribute"
)

// ElementKinds lists every element kind in declaration order
var ElementKinds = []ElementKind{
	ElementImport, ElementPackage, ElementClass, ElementDataType,
	ElementEnum, ElementGenset, ElementRelation, ElementAttribute,
}

// Valid reports whether k is a known element kind
func (k ElementKind) Valid() bool {
	for _, known := range ElementKinds {
		if k == known {
			return true
		}
	}
	return false
}

// SearchResult is a single element matched by a search
type SearchResult struct {
	ElementID int64
	Rank      int     // Position in result set (1-based)
	Score     float64 // bm25 relevance, lower is more relevant

	Kind       ElementKind
	Name       string
	Stereotype string
	Detail     string // Kind-specific rendering, e.g. "Person -- [1..*] Car"
	File       *FileInfo
}

// FileInfo locates a search result in the project
type FileInfo struct {
	Path string // Relative to project root
	Line int
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if !sr.Kind.Valid() {
		return ErrInvalidElementKind
	}

	if sr.Name == "" && sr.Kind != ElementRelation {
		return ErrEmptyElementName
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.File == nil {
		return ErrMissingFileInfo
	}

	if sr.File.Line < 1 {
		return ErrInvalidLine
	}

	return nil
}
