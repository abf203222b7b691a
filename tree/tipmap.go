// Copyright © 2024 Zach Witz <zachwitz@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package tree

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// A TipMap associates the terminals of a parasite tree
// with the terminals of its host tree.
// Several parasite terminals can share a host terminal,
// but each parasite terminal has at most one host.
type TipMap struct {
	m map[string]string
}

// NewTipMap creates a new empty tip map.
func NewTipMap() *TipMap {
	return &TipMap{m: make(map[string]string)}
}

// ReadTipMap reads a tip map from a tab-delimited file.
// Each row contains a parasite terminal
// and its host terminal.
// Lines starting with '#' are ignored.
func ReadTipMap(r io.Reader) (*TipMap, error) {
	m := NewTipMap()
	s := bufio.NewScanner(r)
	for ln := 1; s.Scan(); ln++ {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("tip map: line %d: expecting two fields, got %d", ln, len(fields))
		}
		if h, dup := m.m[fields[0]]; dup && h != fields[1] {
			return nil, fmt.Errorf("tip map: line %d: parasite %q already mapped to %q", ln, fields[0], h)
		}
		m.m[fields[0]] = fields[1]
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("tip map: %v", err)
	}
	return m, nil
}

// Set associates a parasite terminal with a host terminal.
func (m *TipMap) Set(parasite, host string) {
	m.m[parasite] = host
}

// Host returns the host terminal
// associated with a parasite terminal.
func (m *TipMap) Host(parasite string) (string, bool) {
	h, ok := m.m[parasite]
	return h, ok
}

// Len returns the number of mapped parasite terminals.
func (m *TipMap) Len() int { return len(m.m) }

// Parasites returns the mapped parasite terminals,
// sorted alphabetically.
func (m *TipMap) Parasites() []string {
	ps := make([]string, 0, len(m.m))
	for p := range m.m {
		ps = append(ps, p)
	}
	sort.Strings(ps)
	return ps
}
