// Package command turns raw text lines into command tokens.
package command

import (
	"strings"

	"github.com/cashflow/payflow/internal/core"
)

// CommentMarker introduces a trailing comment when it stands alone as a token.
const CommentMarker = "#"

// commentMinIndex is the first token position at which CommentMarker starts a
// comment. Positions 0..3 hold the command name and up to three arguments,
// where a bare "#" is an ordinary value.
const commentMinIndex = 4

// Line is a tokenized command line.
type Line struct {
	Tokens     []string
	Comment    string
	HasComment bool
}

// Name returns the command name token.
func (l *Line) Name() string {
	return l.Tokens[0]
}

// Args returns the tokens following the command name.
func (l *Line) Args() []string {
	return l.Tokens[1:]
}

// Tokenize splits raw into tokens and an optional trailing comment.
// A blank or whitespace-only line yields a nil Line and no error.
func Tokenize(raw string) (*Line, error) {
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return nil, nil
	}
	if parts[0] == CommentMarker {
		return nil, core.MalformedLine("'#' cannot start a command")
	}

	idx := indexOf(parts, CommentMarker)
	if idx < commentMinIndex {
		return &Line{Tokens: parts}, nil
	}

	return &Line{
		Tokens:     parts[:idx],
		Comment:    strings.Join(parts[idx+1:], " "),
		HasComment: true,
	}, nil
}

// indexOf returns the index of the first token equal to s, or -1.
func indexOf(tokens []string, s string) int {
	for i, t := range tokens {
		if t == s {
			return i
		}
	}
	return -1
}
