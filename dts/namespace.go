// Package dts derives TypeScript declarations for protocol-buffers codecs
// from a parsed protobuf schema.
//
// The output is a single ambient namespace:
//
//	declare namespace schema {
//	  namespace def {
//	    interface Test { ... }      // message shapes and enum literal maps
//	  }
//	  const Test: Codec<def.Test>   // codec handles, root enums, map codecs
//	}
//	export = schema
//
// # Naming
//
// Nested declarations are flattened by joining the local names of their
// ancestors with "_", so enum Corpus inside message Test is def.Test_Corpus.
// Flattened names must be unique across the schema.
//
// # Type Mapping
//
//   - numeric scalars map to number, string to string, bool to boolean
//   - bytes maps to Buffer, which adds an import of the buffer module
//   - map fields map to { [key: string]: V }, and every distinct key/value
//     pair is exported once as a Map_<key>_<value> codec
//   - enum references map to Values<E>, the union of E's literal values
//   - message references map to the flattened message name
//   - repeated fields are wrapped in Array<...> and fields are optional
//     unless required
//   - oneof groups become unions of single-field shapes intersected with the
//     message's plain fields
//
// References are resolved innermost scope first: a field of A.B naming X
// resolves to A_B_X, then A_X, then X. A name that matches nothing is emitted
// unchanged.
package dts

import (
	"fmt"
	"strings"

	"github.com/alis-exchange/protoc-gen-dts/schema"
)

// DefaultNamespace is the namespace used when none is configured.
const DefaultNamespace = "schema"

const preamble = `/* eslint-disable @typescript-eslint/array-type */
/* eslint-disable @typescript-eslint/consistent-type-definitions */
/* eslint-disable @typescript-eslint/naming-convention */`

const bufferImport = `
import { Buffer } from 'buffer'`

const codecInterface = `
interface Codec <T> {
  buffer: true
  encodingLength: (input: T) => number
  encode: (input: T, buffer?: Buffer, offset?: number) => Buffer
  decode: (input: Buffer, offset?: number, end?: number) => T
}`

const valuesHelper = `
type Values <T> = T extends { [key: string]: infer U } ? U : never`

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

// Option configures FromSchema.
type Option func(*options)

type options struct {
	namespace string
	header    []string
}

// WithNamespace sets the name of the declared namespace.
func WithNamespace(name string) Option {
	return func(o *options) {
		if name != "" {
			o.namespace = name
		}
	}
}

// WithHeader prepends the given lines as // comments.
func WithHeader(lines ...string) Option {
	return func(o *options) {
		o.header = append(o.header, lines...)
	}
}

// -----------------------------------------------------------------------------
// Generation
// -----------------------------------------------------------------------------

// generator is the state of one FromSchema call.
type generator struct {
	symbols *symbols

	// maps holds the names of the map aliases already exported.
	maps map[string]bool

	// hasBuffer is set once any type maps to Buffer.
	hasBuffer bool

	// hasValues is set once any field resolves to an enum.
	hasValues bool

	defs    []string
	exports []export
}

// FromSchema renders the declarations for s. It fails without output when s is
// malformed or when two declarations flatten to the same name. The result
// depends only on s and opts.
func FromSchema(s *schema.Schema, opts ...Option) (string, error) {
	o := options{namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(&o)
	}

	if err := s.Validate(); err != nil {
		return "", err
	}

	g := &generator{
		symbols: newSymbols(),
		maps:    make(map[string]bool),
	}
	if err := g.register(s); err != nil {
		return "", err
	}

	for _, e := range s.Enums {
		g.declareEnum(e.Name, e, true)
	}
	for _, m := range s.Messages {
		g.declareMessage([]string{m.Name}, m)
	}

	return g.render(o), nil
}

// register declares every message and enum of s before any field is
// resolved, so references may point at declarations that come later.
func (g *generator) register(s *schema.Schema) error {
	for _, e := range s.Enums {
		if err := g.symbols.declare(e.Name, symbolEnum); err != nil {
			return err
		}
	}
	for _, m := range s.Messages {
		if err := g.registerMessage(m.Name, m); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) registerMessage(name string, m *schema.Message) error {
	if err := g.symbols.declare(name, symbolMessage); err != nil {
		return err
	}
	for _, nested := range m.Messages {
		if err := g.registerMessage(flatten(name, nested.Name), nested); err != nil {
			return err
		}
	}
	for _, e := range m.Enums {
		if err := g.symbols.declare(flatten(name, e.Name), symbolEnum); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) render(o options) string {
	var b strings.Builder
	for _, line := range o.header {
		if line == "" {
			b.WriteString("//\n")
			continue
		}
		b.WriteString("// " + line + "\n")
	}

	b.WriteString(preamble)
	if g.hasBuffer {
		b.WriteString(bufferImport)
	}
	b.WriteString(codecInterface)
	if g.hasValues {
		b.WriteString(valuesHelper)
	}

	fmt.Fprintf(&b, "\ndeclare namespace %s {\n  namespace def {", o.namespace)
	for _, def := range g.defs {
		b.WriteString(def)
	}
	b.WriteString("\n  }")
	for _, e := range g.exports {
		fmt.Fprintf(&b, "\n  const %s: %s", e.name, e.typ)
	}
	fmt.Fprintf(&b, "\n}\nexport = %s\n", o.namespace)
	return b.String()
}
