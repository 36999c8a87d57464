// Package codec maps closed enumeration domains to their wire strings.
package codec

import (
	"fmt"
	"strings"
)

/*
 * Bidirectional enum <-> wire string mapping.
 *
 * A Codec is a pair of lookup tables built once at package init and never
 * mutated afterwards, so every method is safe for concurrent use.
 *
 * Direction semantics:
 *   - String: total. Every member has exactly one canonical wire string.
 *     Values outside the member set encode as the default member.
 *   - Parse: fail-soft. Unrecognized input (including strings from newer or
 *     older SDK versions) resolves to the domain default, never an error.
 *
 * Case handling is fixed per domain via Options.FoldCase. Aliases are extra
 * accepted spellings (legacy bridge constants) that Parse understands but
 * String never emits, so String(Parse(alias)) yields the canonical form.
 */

// Member binds one enum value to its canonical wire string.
type Member[E comparable] struct {
	Value   E
	Wire    string
	Aliases []string
}

// Options fixes the per-domain parsing convention.
type Options struct {
	FoldCase bool // accept wire strings regardless of letter case
}

// Codec is the lookup table for one enumeration domain.
type Codec[E comparable] struct {
	domain   string
	def      E
	opts     Options
	members  []E
	toWire   map[E]string
	fromWire map[string]E
}

// New builds a codec. It panics on an inconsistent table (empty or
// duplicate wire strings, duplicate members, default not a member); tables
// are package-level literals so this surfaces at init.
func New[E comparable](domain string, def E, opts Options, members ...Member[E]) *Codec[E] {
	c := &Codec[E]{
		domain:   domain,
		def:      def,
		opts:     opts,
		members:  make([]E, 0, len(members)),
		toWire:   make(map[E]string, len(members)),
		fromWire: make(map[string]E, len(members)),
	}

	for _, m := range members {
		if m.Wire == "" {
			panic(fmt.Sprintf("codec %s: empty wire string for %v", domain, m.Value))
		}
		if _, dup := c.toWire[m.Value]; dup {
			panic(fmt.Sprintf("codec %s: duplicate member %v", domain, m.Value))
		}
		c.toWire[m.Value] = m.Wire
		c.members = append(c.members, m.Value)

		for _, w := range append([]string{m.Wire}, m.Aliases...) {
			key := c.key(w)
			if _, dup := c.fromWire[key]; dup {
				panic(fmt.Sprintf("codec %s: duplicate wire string %q", domain, w))
			}
			c.fromWire[key] = m.Value
		}
	}

	if _, ok := c.toWire[def]; !ok {
		panic(fmt.Sprintf("codec %s: default %v is not a member", domain, def))
	}

	return c
}

// String returns the canonical wire string for e.
func (c *Codec[E]) String(e E) string {
	if w, ok := c.toWire[e]; ok {
		return w
	}
	return c.toWire[c.def]
}

// Parse returns the member for s, or the domain default when s is not recognized.
func (c *Codec[E]) Parse(s string) E {
	e, _ := c.Lookup(s)
	return e
}

// Lookup is Parse that also reports whether s was recognized.
// On a miss it returns the default member and false.
func (c *Codec[E]) Lookup(s string) (E, bool) {
	if e, ok := c.fromWire[c.key(s)]; ok {
		return e, true
	}
	return c.def, false
}

// Members returns the domain members in declaration order.
func (c *Codec[E]) Members() []E {
	out := make([]E, len(c.members))
	copy(out, c.members)
	return out
}

// Default returns the member used for unrecognized input.
func (c *Codec[E]) Default() E {
	return c.def
}

// Domain returns the domain name used in diagnostics.
func (c *Codec[E]) Domain() string {
	return c.domain
}

// FoldCase reports whether parsing ignores letter case.
func (c *Codec[E]) FoldCase() bool {
	return c.opts.FoldCase
}

func (c *Codec[E]) key(s string) string {
	if c.opts.FoldCase {
		return strings.ToLower(s)
	}
	return s
}
