// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package searchlist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompt drives the list from line input until a match is committed or in
// is exhausted. Each line is one event:
//
//	up, down, enter, ctrl+p, ctrl+n   key presses
//	esc                               click outside
//	#N                                click the N-th match (from 1)
//	anything else                     new query text
//
// The rendered rows are written to out after every event. Prompt returns
// the committed text and true, or "" and false when input ends first.
func (l *List) Prompt(in io.Reader, out io.Writer) (string, bool, error) {
	committed, done := "", false
	prev := l.onSelect
	l.onSelect = func(text string) {
		committed, done = text, true
		if prev != nil {
			prev(text)
		}
	}
	defer func() { l.onSelect = prev }()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "esc":
			l.ClickOutside()
		case strings.HasPrefix(line, "#"):
			n, err := strconv.Atoi(line[1:])
			if err != nil {
				fmt.Fprintf(out, "not a match number: %s\n", line)
				continue
			}
			l.ClickMatch(n - 1)
		case l.isKey(Key(line)):
			l.Key(Key(line))
		default:
			l.SetQuery(line)
		}
		if done {
			fmt.Fprintf(out, "selected %s\n", committed)
			return committed, true, nil
		}
		render(out, l.Items())
	}
	if err := sc.Err(); err != nil {
		return "", false, fmt.Errorf("reading input: %w", err)
	}
	return "", false, nil
}

func (l *List) isKey(k Key) bool {
	for _, b := range l.Keys.ShortHelp() {
		for _, name := range b.Keys() {
			if name == string(k) {
				return true
			}
		}
	}
	return false
}

func render(out io.Writer, items []Item) {
	for i, it := range items {
		switch {
		case it.Placeholder:
			fmt.Fprintf(out, "    %s\n", it.Text)
		case it.Active:
			fmt.Fprintf(out, "> %d %s\n", i+1, it.Text)
		default:
			fmt.Fprintf(out, "  %d %s\n", i+1, it.Text)
		}
	}
}
