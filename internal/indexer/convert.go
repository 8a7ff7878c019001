package indexer

import (
	"fmt"
	"strings"

	"github.com/dshills/tonto-mcp/internal/storage"
	"github.com/dshills/tonto-mcp/pkg/types"
)

// Elements flattens a summary into storable elements in summary order:
// imports, packages, classes, datatypes, enums, generalization sets,
// relations, then attributes. Each element carries the name of the package
// that declares it, or of the package declaring its owner.
func Elements(summary *types.Summary) []*storage.Element {
	if summary == nil {
		return []*storage.Element{}
	}
	pkgs := packageIndex(summary)
	elements := make([]*storage.Element, 0, summary.ElementCount())

	for _, imp := range summary.Imports {
		elements = append(elements, &storage.Element{
			Kind: types.ElementImport, Name: imp.Module, Detail: "import " + imp.Module, Line: imp.Line,
		})
	}
	for _, p := range summary.Packages {
		elements = append(elements, &storage.Element{
			Kind: types.ElementPackage, Name: p.Name, PackageName: p.Name,
			Detail: fmt.Sprintf("package %s (%d declarations)", p.Name, len(p.Declarations)),
			Line:   p.Line,
		})
	}
	for _, c := range summary.Classes {
		elements = append(elements, &storage.Element{
			Kind: types.ElementClass, Name: c.Name, Stereotype: c.Stereotype,
			PackageName: pkgs.decls[c], Detail: classDetail(c), Line: c.Line,
		})
	}
	for _, d := range summary.DataTypes {
		names := make([]string, len(d.Attributes))
		for i, a := range d.Attributes {
			names[i] = a.Name
		}
		elements = append(elements, &storage.Element{
			Kind: types.ElementDataType, Name: d.Name, PackageName: pkgs.decls[d],
			Detail: d.Name + " {" + strings.Join(names, ", ") + "}", Line: d.Line,
		})
	}
	for _, e := range summary.Enums {
		elements = append(elements, &storage.Element{
			Kind: types.ElementEnum, Name: e.Name, PackageName: pkgs.decls[e],
			Detail: "enum " + e.Name + " {" + strings.Join(e.Instances, ", ") + "}", Line: e.Line,
		})
	}
	for _, g := range summary.GeneralizationSets {
		elements = append(elements, &storage.Element{
			Kind: types.ElementGenset, Name: g.Name, PackageName: pkgs.decls[g],
			Detail: gensetDetail(g), Line: g.Line,
		})
	}
	for _, r := range summary.Relations {
		pkg := pkgs.decls[r]
		if r.Internal {
			pkg = pkgs.relations[r]
		}
		elements = append(elements, &storage.Element{
			Kind: types.ElementRelation, Name: r.Name, Stereotype: r.Stereotype,
			PackageName: pkg, Detail: RelationDetail(r), Line: r.Line,
		})
	}
	for _, a := range summary.Attributes {
		elements = append(elements, &storage.Element{
			Kind: types.ElementAttribute, Name: a.Name, PackageName: pkgs.attributes[a],
			Detail: attributeDetail(a), Line: a.Line,
		})
	}
	return elements
}

// Diagnostics converts the lexical then syntax errors of an analysis
func Diagnostics(analysis *types.Analysis) []*storage.Diagnostic {
	out := make([]*storage.Diagnostic, 0, analysis.ErrorCount())
	for _, group := range [][]types.ErrorRecord{analysis.LexicalErrors, analysis.SyntaxErrors} {
		for _, e := range group {
			out = append(out, &storage.Diagnostic{
				Kind:       e.Kind,
				Code:       e.Code,
				Line:       e.Line,
				Column:     e.Column,
				Token:      e.Token,
				Message:    e.Message,
				Suggestion: e.Suggestion,
			})
		}
	}
	return out
}

// RelationDetail renders a relation as "Source [a] -- name -- [b] Target"
// with only the pieces that were written
func RelationDetail(r *types.Relation) string {
	var b strings.Builder
	if r.Stereotype != "" {
		b.WriteString("@" + r.Stereotype + " ")
	}
	b.WriteString(r.Source)
	if r.SourceCardinality != nil {
		b.WriteString(" " + r.SourceCardinality.String())
	}
	b.WriteString(" " + string(r.Arrow))
	if r.Name != "" {
		b.WriteString(" " + r.Name + " " + string(types.ArrowPlain))
	}
	if r.TargetCardinality != nil {
		b.WriteString(" " + r.TargetCardinality.String())
	}
	b.WriteString(" " + r.Target)
	return b.String()
}

func classDetail(c *types.Class) string {
	detail := c.Stereotype + " " + c.Name
	if c.Partition != "" {
		detail += " of " + c.Partition
	}
	if len(c.Parents) > 0 {
		detail += " specializes " + strings.Join(c.Parents, ", ")
	}
	return detail
}

func gensetDetail(g *types.GeneralizationSet) string {
	var parts []string
	parts = append(parts, g.Modifiers...)
	parts = append(parts, "genset", g.Name, "general", g.General, "specifics", strings.Join(g.Specifics, ", "))
	return strings.Join(parts, " ")
}

func attributeDetail(a *types.Attribute) string {
	detail := a.Owner + "." + a.Name + " : " + a.Type
	if a.Cardinality != nil {
		detail += " " + a.Cardinality.String()
	}
	if len(a.MetaAttributes) > 0 {
		detail += " {" + strings.Join(a.MetaAttributes, ", ") + "}"
	}
	return detail
}

// packageMembership maps entities to the name of their enclosing package
type packageMembership struct {
	decls      map[types.Declaration]string
	relations  map[*types.Relation]string
	attributes map[*types.Attribute]string
}

func packageIndex(summary *types.Summary) packageMembership {
	idx := packageMembership{
		decls:      make(map[types.Declaration]string),
		relations:  make(map[*types.Relation]string),
		attributes: make(map[*types.Attribute]string),
	}
	for _, p := range summary.Packages {
		for _, d := range p.Declarations {
			idx.decls[d] = p.Name
			switch decl := d.(type) {
			case *types.Class:
				for _, a := range decl.Attributes() {
					idx.attributes[a] = p.Name
				}
				for _, r := range decl.Relations() {
					idx.relations[r] = p.Name
				}
			case *types.DataType:
				for _, a := range decl.Attributes {
					idx.attributes[a] = p.Name
				}
			}
		}
	}
	return idx
}
