package dts

import (
	"strconv"
	"strings"

	"github.com/alis-exchange/protoc-gen-dts/schema"
)

// export is a named value of the namespace, rendered as `const name: typ`.
type export struct {
	name string
	typ  string
}

// oneofGroup holds the fields of one oneof, in declaration order.
type oneofGroup struct {
	name   string
	fields []*schema.Field
}

// -----------------------------------------------------------------------------
// Enums
// -----------------------------------------------------------------------------

// declareEnum adds the literal-mapping type of e under name. Root enums are
// also exported as values; nested ones are reached through their parent's
// codec handle.
func (g *generator) declareEnum(name string, e *schema.Enum, root bool) {
	var b strings.Builder
	b.WriteString("\n    type " + name + " = {")
	for _, v := range e.Values {
		b.WriteString("\n      " + v.Name + ": " + strconv.FormatInt(int64(v.Value), 10))
	}
	b.WriteString("\n    }")
	g.defs = append(g.defs, b.String())

	if root {
		g.exports = append(g.exports, export{name: name, typ: "def." + name})
	}
}

// -----------------------------------------------------------------------------
// Messages
// -----------------------------------------------------------------------------

// declareMessage adds the declarations of m, whose scope is the chain of
// local names from the top-level message down to m. Nested messages and
// enums are declared first, then the map aliases m uses, then m itself.
func (g *generator) declareMessage(scope []string, m *schema.Message) {
	name := flatten(scope...)

	for _, nested := range m.Messages {
		g.declareMessage(append(scope[:len(scope):len(scope)], nested.Name), nested)
	}
	for _, e := range m.Enums {
		g.declareEnum(flatten(name, e.Name), e, false)
	}

	for _, f := range m.Fields {
		if f.IsMap() {
			g.declareMapAlias(f.Map)
		}
	}

	var plain []*schema.Field
	var groups []*oneofGroup
	byName := make(map[string]*oneofGroup)
	for _, f := range m.Fields {
		if f.Oneof == "" {
			plain = append(plain, f)
			continue
		}
		group := byName[f.Oneof]
		if group == nil {
			group = &oneofGroup{name: f.Oneof}
			byName[f.Oneof] = group
			groups = append(groups, group)
		}
		group.fields = append(group.fields, f)
	}

	base := "{}"
	if len(plain) > 0 {
		lines := make([]string, 0, len(plain))
		for _, f := range plain {
			lines = append(lines, "      "+g.fieldDecl(scope, f))
		}
		base = "{\n" + strings.Join(lines, "\n") + "\n    }"
	}

	if len(groups) == 0 {
		g.defs = append(g.defs, "\n    interface "+name+" "+base)
	} else {
		types := []string{base}
		for _, group := range groups {
			arms := make([]string, 0, len(group.fields))
			for _, f := range group.fields {
				arms = append(arms, "{\n      "+g.fieldDecl(scope, f)+"\n    }")
			}
			types = append(types, "("+strings.Join(arms, " | ")+")")
		}
		g.defs = append(g.defs, "\n    type "+name+" = "+strings.Join(types, " & "))
	}

	if len(scope) == 1 {
		g.exports = append(g.exports, export{name: name, typ: codecHandle(name, m, 0)})
	}
}

// declareMapAlias exports a codec for the map shape of desc, once per
// key/value tag pair.
func (g *generator) declareMapAlias(desc *schema.Map) {
	name := "Map_" + desc.From + "_" + desc.To
	if g.maps[name] {
		return
	}
	g.maps[name] = true
	valueType, _ := g.scalar(desc.To)
	g.exports = append(g.exports, export{name: name, typ: "Codec<" + mapType(valueType) + ">"})
}

// fieldDecl renders f as a property signature, e.g. `foo?: Array<string>`.
func (g *generator) fieldDecl(scope []string, f *schema.Field) string {
	typ, final := g.fieldType(f)
	if !final {
		resolved, kind := g.symbols.resolve(scope, typ)
		switch kind {
		case symbolEnum:
			g.hasValues = true
			typ = "Values<" + resolved + ">"
		case symbolMessage:
			typ = resolved
		}
	}
	if f.Repeated {
		typ = "Array<" + typ + ">"
	}
	if f.Required {
		return f.Name + ": " + typ
	}
	return f.Name + "?: " + typ
}

// codecHandle is the type of the exported value for the message m declared
// as name: its codec, extended with one member per nested enum and message.
// depth is the nesting level of the handle inside a parent's extension.
func codecHandle(name string, m *schema.Message, depth int) string {
	typ := "Codec<def." + name + ">"
	if len(m.Enums) == 0 && len(m.Messages) == 0 {
		return typ
	}
	indent := strings.Repeat("  ", depth+2)

	var b strings.Builder
	b.WriteString(typ + " & {")
	for _, e := range m.Enums {
		b.WriteString("\n" + indent + e.Name + ": def." + flatten(name, e.Name))
	}
	for _, nested := range m.Messages {
		b.WriteString("\n" + indent + nested.Name + ": " + codecHandle(flatten(name, nested.Name), nested, depth+1))
	}
	b.WriteString("\n" + strings.Repeat("  ", depth+1) + "}")
	return b.String()
}
