package types

import "strconv"

// Unbounded is the Max of a cardinality written with "*"
const Unbounded = -1

// Cardinality is a min/max occurrence constraint on an attribute or relation end
type Cardinality struct {
	Min  int    `json:"min"`
	Max  int    `json:"max"` // Unbounded for "*"
	Text string `json:"text"`
}

// IsUnbounded returns true if the upper bound is "*"
func (c Cardinality) IsUnbounded() bool {
	return c.Max == Unbounded
}

// String returns the bracketed display text, e.g. "[1..*]"
func (c Cardinality) String() string {
	if c.Text != "" {
		return c.Text
	}
	max := "*"
	if !c.IsUnbounded() {
		max = strconv.Itoa(c.Max)
	}
	if c.Min == c.Max {
		return "[" + max + "]"
	}
	return "[" + strconv.Itoa(c.Min) + ".." + max + "]"
}

// DeclarationKind identifies the kind of a package-level declaration
type DeclarationKind string

const (
	DeclClass    DeclarationKind = "class"
	DeclDataType DeclarationKind = "datatype"
	DeclEnum     DeclarationKind = "enum"
	DeclGenset   DeclarationKind = "genset"
	DeclRelation DeclarationKind = "relation"
)

// Declaration is implemented by every entity that can appear directly in a package
type Declaration interface {
	DeclarationKind() DeclarationKind
	DeclarationName() string
	DeclarationLine() int
}

// Import is an `import Name` statement preceding the packages
type Import struct {
	Module string `json:"module"`
	Line   int    `json:"line"`
}

// Package is a top-level container of declarations
type Package struct {
	Name         string        `json:"name"`
	Braced       bool          `json:"braced"`
	Declarations []Declaration `json:"declarations"`
	Line         int           `json:"line"`
}

// Class is a stereotyped class declaration
type Class struct {
	Stereotype string   `json:"stereotype"`
	Name       string   `json:"name"`
	Partition  string   `json:"partition,omitempty"` // functional-complexes, relators or intrinsic-modes
	Parents    []string `json:"parents"`
	Members    []Member `json:"members"`
	Line       int      `json:"line"`
}

func (c *Class) DeclarationKind() DeclarationKind { return DeclClass }
func (c *Class) DeclarationName() string          { return c.Name }
func (c *Class) DeclarationLine() int             { return c.Line }

// Attributes returns the attribute members of the class in declaration order
func (c *Class) Attributes() []*Attribute {
	var attrs []*Attribute
	for _, m := range c.Members {
		if m.Attribute != nil {
			attrs = append(attrs, m.Attribute)
		}
	}
	return attrs
}

// Relations returns the internal relations of the class in declaration order
func (c *Class) Relations() []*Relation {
	var rels []*Relation
	for _, m := range c.Members {
		if m.Relation != nil {
			rels = append(rels, m.Relation)
		}
	}
	return rels
}

// MemberKind identifies the kind of a class body member
type MemberKind string

const (
	MemberAttribute  MemberKind = "attribute"
	MemberRelation   MemberKind = "relation"
	MemberStereotype MemberKind = "stereotype" // standalone @stereotype marker, never survives binding
)

// Member is one entry of a class body
type Member struct {
	Kind       MemberKind `json:"kind"`
	Attribute  *Attribute `json:"attribute,omitempty"`
	Relation   *Relation  `json:"relation,omitempty"`
	Stereotype string     `json:"stereotype,omitempty"`
	Line       int        `json:"line"`
}

// Attribute is a typed property of a class or datatype
type Attribute struct {
	Name           string       `json:"name"`
	Type           string       `json:"type"`
	TypeKind       TokenKind    `json:"type_kind"`
	Cardinality    *Cardinality `json:"cardinality,omitempty"`
	MetaAttributes []string     `json:"meta_attributes,omitempty"`
	Owner          string       `json:"owner"`
	Line           int          `json:"line"`
}

// DataType is a custom datatype declaration; its name ends in "DataType"
type DataType struct {
	Name       string       `json:"name"`
	Attributes []*Attribute `json:"attributes"`
	Line       int          `json:"line"`
}

func (d *DataType) DeclarationKind() DeclarationKind { return DeclDataType }
func (d *DataType) DeclarationName() string          { return d.Name }
func (d *DataType) DeclarationLine() int             { return d.Line }

// Enum is an enumeration of named instances
type Enum struct {
	Name      string   `json:"name"`
	Instances []string `json:"instances"`
	Line      int      `json:"line"`
}

func (e *Enum) DeclarationKind() DeclarationKind { return DeclEnum }
func (e *Enum) DeclarationName() string          { return e.Name }
func (e *Enum) DeclarationLine() int             { return e.Line }

// Generalization-set modifiers
const (
	ModifierDisjoint    = "disjoint"
	ModifierComplete    = "complete"
	ModifierOverlapping = "overlapping"
	ModifierIncomplete  = "incomplete"
)

// GeneralizationSet groups specific classes under one general class
type GeneralizationSet struct {
	Name      string   `json:"name"`
	Modifiers []string `json:"modifiers"`
	General   string   `json:"general"`
	Specifics []string `json:"specifics"`
	Line      int      `json:"line"`
}

func (g *GeneralizationSet) DeclarationKind() DeclarationKind { return DeclGenset }
func (g *GeneralizationSet) DeclarationName() string          { return g.Name }
func (g *GeneralizationSet) DeclarationLine() int             { return g.Line }

// HasModifier reports whether the set carries the given modifier
func (g *GeneralizationSet) HasModifier(m string) bool {
	for _, mod := range g.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// ArrowKind is the spelling of a relation arrow
type ArrowKind string

const (
	ArrowPlain ArrowKind = "--"
	ArrowLeft  ArrowKind = "<>--" // decorated on the source side
	ArrowRight ArrowKind = "--<>" // decorated on the target side
)

// Relation is an internal (class body) or external (top-level) relation.
// Source is the owning class for internal relations.
type Relation struct {
	Internal          bool         `json:"internal"`
	Form              RelationForm `json:"form"`
	Stereotype        string       `json:"stereotype,omitempty"`
	Name              string       `json:"name,omitempty"`
	Source            string       `json:"source"`
	SourceCardinality *Cardinality `json:"source_cardinality,omitempty"`
	Arrow             ArrowKind    `json:"arrow"`
	TargetCardinality *Cardinality `json:"target_cardinality,omitempty"`
	Target            string       `json:"target"`
	Line              int          `json:"line"`
}

func (r *Relation) DeclarationKind() DeclarationKind { return DeclRelation }
func (r *Relation) DeclarationName() string          { return r.Name }
func (r *Relation) DeclarationLine() int             { return r.Line }

// RelationForm names the surface spelling a relation was written in.
// Each form documents exactly which optional pieces it carries.
type RelationForm string

// Internal relation forms; S = stereotype, n = name, [a]/[b] = source/target cardinality
const (
	FormInternalArrow                  RelationForm = "-- Target"
	FormInternalArrowTC                RelationForm = "-- [b] Target"
	FormInternalSCArrow                RelationForm = "[a] -- Target"
	FormInternalSCArrowTC              RelationForm = "[a] -- [b] Target"
	FormInternalNameArrow              RelationForm = "n -- Target"
	FormInternalNameArrowTC            RelationForm = "n -- [b] Target"
	FormInternalNameSCArrow            RelationForm = "n [a] -- Target"
	FormInternalNameSCArrowTC          RelationForm = "n [a] -- [b] Target"
	FormInternalStereoArrow            RelationForm = "S -- Target"
	FormInternalStereoArrowTC          RelationForm = "S -- [b] Target"
	FormInternalStereoSCArrow          RelationForm = "S [a] -- Target"
	FormInternalStereoSCArrowTC        RelationForm = "S [a] -- [b] Target"
	FormInternalStereoNameArrow        RelationForm = "S n -- Target"
	FormInternalStereoNameArrowTC      RelationForm = "S n -- [b] Target"
	FormInternalStereoNameSCArrow      RelationForm = "S n [a] -- Target"
	FormInternalStereoNameSCArrowTC    RelationForm = "S n [a] -- [b] Target"
	FormInternalArrowNameArrow         RelationForm = "-- n -- Target"
	FormInternalArrowNameArrowTC       RelationForm = "-- n -- [b] Target"
	FormInternalStereoArrowNameArrow   RelationForm = "S -- n -- Target"
	FormInternalStereoArrowNameArrowTC RelationForm = "S -- n -- [b] Target"
)

// External relation forms; the stereotype is always present
const (
	FormExternal              RelationForm = "S Source -- Target"
	FormExternalTC            RelationForm = "S Source -- [b] Target"
	FormExternalSC            RelationForm = "S Source [a] -- Target"
	FormExternalSCTC          RelationForm = "S Source [a] -- [b] Target"
	FormExternalNamed         RelationForm = "S Source -- n -- Target"
	FormExternalNamedTC       RelationForm = "S Source -- n -- [b] Target"
	FormExternalNamedSC       RelationForm = "S Source [a] -- n -- Target"
	FormExternalNamedSCTC     RelationForm = "S Source [a] -- n -- [b] Target"
)
