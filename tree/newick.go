// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tree

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Newick reads a tree in newick
// (parenthetical) format.
// Branch lengths and internal node labels are accepted
// and ignored,
// as a reconciliation works on the tree topology.
// Non-binary trees are rejected.
func Newick(r io.Reader, name string) (*Tree, error) {
	br := bufio.NewReader(r)
	t := New(name)

	if err := skipSpaces(br); err != nil {
		return nil, fmt.Errorf("tree %q: %v", name, err)
	}
	r1, _, err := br.ReadRune()
	if err != nil {
		return nil, fmt.Errorf("tree %q: %v", name, err)
	}
	if r1 != '(' {
		// a single terminal tree
		br.UnreadRune()
		tax, err := readLabel(br)
		if err != nil {
			return nil, fmt.Errorf("tree %q: %v", name, err)
		}
		if tax == "" {
			return nil, &MalformedError{Tree: name, Msg: "expecting '(' or a taxon name"}
		}
		t.nodes[0].taxon = tax
		t.taxa[tax] = 0
		if err := t.Validate(); err != nil {
			return nil, err
		}
		return t, nil
	}

	if err := readClade(br, t, t.Root()); err != nil {
		return nil, err
	}
	if err := skipSpaces(br); err == nil {
		if r1, _, err := br.ReadRune(); err == nil && r1 != ';' {
			return nil, &MalformedError{Tree: name, Msg: fmt.Sprintf("unexpected character %q after tree", r1)}
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadClade reads the content of a clade,
// the opening parenthesis already consumed,
// adding its children to node id.
func readClade(br *bufio.Reader, t *Tree, id int) error {
	for {
		if err := skipSpaces(br); err != nil {
			return &MalformedError{Tree: t.name, Msg: "unexpected end of tree"}
		}
		r1, _, err := br.ReadRune()
		if err != nil {
			return &MalformedError{Tree: t.name, Msg: "unexpected end of tree"}
		}

		var child int
		if r1 == '(' {
			child, err = t.Add(id, "")
			if err != nil {
				return err
			}
			if err := readClade(br, t, child); err != nil {
				return err
			}
		} else {
			br.UnreadRune()
			tax, err := readLabel(br)
			if err != nil {
				return &MalformedError{Tree: t.name, Msg: "unexpected end of tree"}
			}
			if tax == "" {
				return &MalformedError{Tree: t.name, Msg: "expecting a taxon name"}
			}
			if _, err := t.Add(id, tax); err != nil {
				return err
			}
		}

		if err := skipTrailer(br); err != nil {
			return &MalformedError{Tree: t.name, Msg: "unexpected end of tree"}
		}
		r1, _, err = br.ReadRune()
		if err != nil {
			return &MalformedError{Tree: t.name, Msg: "unexpected end of tree"}
		}
		if r1 == ',' {
			continue
		}
		if r1 == ')' {
			// the clade label and branch length,
			// if any,
			// are ignored
			if err := skipTrailer(br); err != nil {
				return nil
			}
			return nil
		}
		return &MalformedError{Tree: t.name, Msg: fmt.Sprintf("unexpected character %q", r1)}
	}
}

// ReadLabel reads a node label.
func readLabel(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		r1, _, err := br.ReadRune()
		if err != nil {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		if isLabelEnd(r1) {
			br.UnreadRune()
			return sb.String(), nil
		}
		sb.WriteRune(r1)
	}
}

// SkipTrailer consumes an optional label
// and an optional branch length
// after a clade or terminal.
func skipTrailer(br *bufio.Reader) error {
	if _, err := readLabel(br); err != nil {
		return err
	}
	r1, _, err := br.ReadRune()
	if err != nil {
		return err
	}
	if r1 != ':' {
		br.UnreadRune()
		return skipSpaces(br)
	}
	if _, err := readLabel(br); err != nil {
		return err
	}
	return skipSpaces(br)
}

func skipSpaces(br *bufio.Reader) error {
	for {
		r1, _, err := br.ReadRune()
		if err != nil {
			return err
		}
		if r1 == '[' {
			// a comment
			for {
				r1, _, err = br.ReadRune()
				if err != nil {
					return err
				}
				if r1 == ']' {
					break
				}
			}
			continue
		}
		if !isSpace(r1) {
			br.UnreadRune()
			return nil
		}
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isLabelEnd(r rune) bool {
	return isSpace(r) || r == '(' || r == ')' || r == ',' || r == ':' || r == ';' || r == '['
}
