package ingest

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"dexgraph/internal/errors"
	"dexgraph/internal/graph"
)

// FileFacts is everything ingest extracts from one Java source file.
type FileFacts struct {
	Path    string
	Package string
	Classes []ClassFact
}

type ClassFact struct {
	Name       graph.ClassName
	Flags      graph.AccessFlags
	Super      string
	Interfaces []string
	Methods    []MethodFact
}

type MethodFact struct {
	Name  string
	Args  []string
	Ret   string
	Flags graph.AccessFlags
	Calls []string
}

// JavaExtractor parses Java sources with tree-sitter and collects the
// classes, methods and call sites the graph is built from.
type JavaExtractor struct {
	language *sitter.Language
}

func NewJavaExtractor() *JavaExtractor {
	return &JavaExtractor{
		language: sitter.NewLanguage(tree_sitter_java.Language()),
	}
}

func (e *JavaExtractor) Extract(path string, content []byte) (*FileFacts, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.language)

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(
			errors.New(errors.CodeValidationError, "parse failed"),
			errors.CtxPath, path)
	}
	defer tree.Close()

	facts := &FileFacts{Path: path}
	root := tree.RootNode()

	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		switch child.Kind() {
		case "package_declaration":
			facts.Package = e.packageName(child, content)
		case "class_declaration", "interface_declaration":
			e.extractType(child, content, facts, "")
		}
	}

	return facts, nil
}

func (e *JavaExtractor) packageName(node *sitter.Node, source []byte) string {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "scoped_identifier" || child.Kind() == "identifier" {
			return nodeText(child, source)
		}
	}
	return ""
}

// extractType handles both classes and interfaces. outer carries the
// qualified name of the enclosing class so nested types become Outer$Inner.
func (e *JavaExtractor) extractType(node *sitter.Node, source []byte, facts *FileFacts, outer string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	simple := nodeText(nameNode, source)

	qualified := simple
	if outer != "" {
		qualified = outer + "$" + simple
	} else if facts.Package != "" {
		qualified = facts.Package + "." + simple
	}

	fact := ClassFact{
		Name:  graph.ClassName(qualified),
		Flags: modifierFlags(node, source),
	}
	if node.Kind() == "interface_declaration" {
		fact.Flags |= graph.FlagInterface | graph.FlagAbstract
	}

	if super := node.ChildByFieldName("superclass"); super != nil {
		fact.Super = typeNameIn(super, source)
	}
	if ifaces := node.ChildByFieldName("interfaces"); ifaces != nil {
		fact.Interfaces = typeNamesIn(ifaces, source)
	}
	// Interfaces extending other interfaces show up as extends_interfaces,
	// which is not a named field.
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "extends_interfaces" {
			fact.Interfaces = append(fact.Interfaces, typeNamesIn(child, source)...)
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		facts.Classes = append(facts.Classes, fact)
		return
	}

	for i := uint(0); i < body.ChildCount(); i++ {
		member := body.Child(i)
		switch member.Kind() {
		case "method_declaration":
			fact.Methods = append(fact.Methods, e.extractMethod(member, source))
		case "constructor_declaration":
			m := e.extractMethod(member, source)
			m.Name = "<init>"
			m.Ret = "void"
			fact.Methods = append(fact.Methods, m)
		case "class_declaration", "interface_declaration":
			e.extractType(member, source, facts, qualified)
		}
	}

	facts.Classes = append(facts.Classes, fact)
}

func (e *JavaExtractor) extractMethod(node *sitter.Node, source []byte) MethodFact {
	m := MethodFact{Flags: modifierFlags(node, source)}

	if name := node.ChildByFieldName("name"); name != nil {
		m.Name = nodeText(name, source)
	}
	if ret := node.ChildByFieldName("type"); ret != nil {
		m.Ret = nodeText(ret, source)
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.ChildCount(); i++ {
			param := params.Child(i)
			if param.Kind() != "formal_parameter" && param.Kind() != "spread_parameter" {
				continue
			}
			if ptype := param.ChildByFieldName("type"); ptype != nil {
				m.Args = append(m.Args, nodeText(ptype, source))
			}
		}
	}

	seen := make(map[string]bool)
	collectInvocations(node.ChildByFieldName("body"), source, &m.Calls, seen)
	return m
}

func collectInvocations(node *sitter.Node, source []byte, calls *[]string, seen map[string]bool) {
	if node == nil {
		return
	}
	if node.Kind() == "method_invocation" {
		if name := node.ChildByFieldName("name"); name != nil {
			callee := nodeText(name, source)
			if callee != "" && !seen[callee] {
				seen[callee] = true
				*calls = append(*calls, callee)
			}
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		collectInvocations(node.Child(i), source, calls, seen)
	}
}

func modifierFlags(node *sitter.Node, source []byte) graph.AccessFlags {
	var flags graph.AccessFlags
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "modifiers" {
			continue
		}
		for _, word := range strings.Fields(nodeText(child, source)) {
			switch word {
			case "public":
				flags |= graph.FlagPublic
			case "private":
				flags |= graph.FlagPrivate
			case "protected":
				flags |= graph.FlagProtected
			case "static":
				flags |= graph.FlagStatic
			case "final":
				flags |= graph.FlagFinal
			case "abstract":
				flags |= graph.FlagAbstract
			}
		}
	}
	return flags
}

// typeNameIn returns the first type name under node, for superclass clauses.
func typeNameIn(node *sitter.Node, source []byte) string {
	names := typeNamesIn(node, source)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// typeNamesIn flattens every type identifier under node, for interface lists.
func typeNamesIn(node *sitter.Node, source []byte) []string {
	var names []string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Kind() {
		case "type_identifier", "scoped_type_identifier":
			names = append(names, nodeText(n, source))
			return
		case "generic_type":
			// Keep the raw name, drop the type arguments.
			if n.ChildCount() > 0 {
				walk(n.Child(0))
			}
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(node)
	return names
}

func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return strings.TrimSpace(string(source[start:end]))
}
