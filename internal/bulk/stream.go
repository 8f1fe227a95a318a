package bulk

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gnolang/bulkgrep/internal/nfa"
	"github.com/gnolang/bulkgrep/internal/syntax"
)

// ErrCorruptStream is returned for input that does not follow the encoded
// layout.
var ErrCorruptStream = errors.New("corrupt encoded stream")

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptStream, fmt.Sprintf(format, args...))
}

// frame is the stream matcher's record of one open node.
type frame struct {
	afterWildcard nfa.StateSet
	boundary      bool
}

// MatchesStream runs the automaton over an encoded tree and returns the
// first pattern that matches and passes the name filter, as a single entry
// map. The map is empty when nothing matches.
func (c *Compiled) MatchesStream(ctx context.Context, r io.Reader) (map[string]bool, error) {
	out := make(map[string]bool)
	_, err := c.scan(ctx, r, func(res Result, names map[string]struct{}) error {
		if c.passes(res.Index, names) {
			out[res.Pattern] = true
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return out, nil
}

// MatchesWithFrequencies runs the automaton over an encoded tree and counts
// the matches of every pattern that passes the name filter.
func (c *Compiled) MatchesWithFrequencies(ctx context.Context, r io.Reader) (map[string]int, error) {
	counts := make(map[int]int)
	names, err := c.scan(ctx, r, func(res Result, _ map[string]struct{}) error {
		counts[res.Index]++
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]int)
	for i, n := range counts {
		if c.passes(i, names) {
			out[c.patterns[i].text] += n
		}
	}
	return out, nil
}

// scan decodes the stream and calls found for every result read after a
// node exit, in pattern index order. It returns the header names.
func (c *Compiled) scan(ctx context.Context, r io.Reader, found func(Result, map[string]struct{}) error) (map[string]struct{}, error) {
	br := bufio.NewReader(r)
	names, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	a := c.nfa
	active := a.StartSet()
	stack := make([]frame, 0, 64)
	for {
		if err := canceled(ctx); err != nil {
			return nil, err
		}
		b, err := br.ReadByte()
		if err == io.EOF {
			if len(stack) != 0 {
				return nil, truncated(fmt.Sprintf("stream, %d nodes left open", len(stack)))
			}
			return names, nil
		}
		if err != nil {
			return nil, err
		}

		switch b {
		case nodeOpen:
			kind, label, err := readNodeHead(br)
			if err != nil {
				return nil, err
			}
			if kind == syntax.Boundary {
				active = a.Transition(active, labelSymbol(kind, label))
				stack = append(stack, frame{boundary: true})
				continue
			}
			var afterWildcard nfa.StateSet
			active, afterWildcard = enter(a, active, kind, label, false)
			stack = append(stack, frame{afterWildcard: afterWildcard})

		case nodeClose:
			if len(stack) == 0 {
				return nil, corrupt("unbalanced %q", nodeClose)
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if f.boundary {
				active = a.Transition(active, Up)
				continue
			}
			active = exit(a, active, f.afterWildcard)
			for _, res := range results(a, active) {
				if err := found(res, names); err != nil {
					return nil, err
				}
			}

		default:
			return nil, corrupt("unexpected byte %q", b)
		}
	}
}

func readHeader(br *bufio.Reader) (map[string]struct{}, error) {
	var n [4]byte
	if _, err := io.ReadFull(br, n[:]); err != nil {
		return nil, unexpected("header", err)
	}
	count := binary.BigEndian.Uint32(n[:])
	names := make(map[string]struct{}, min(count, 1<<12))
	for i := uint32(0); i < count; i++ {
		name, err := br.ReadString(labelEnd)
		if err != nil {
			return nil, unexpected("header name", err)
		}
		names[strings.TrimSuffix(name, string(labelEnd))] = struct{}{}
	}
	return names, nil
}

// readNodeHead reads the kind token and optional label following '('.
func readNodeHead(br *bufio.Reader) (syntax.Kind, string, error) {
	var tok syntax.Token
	if _, err := io.ReadFull(br, tok[:]); err != nil {
		return 0, "", unexpected("kind token", err)
	}
	kind, ok := syntax.KindOfToken(tok)
	if !ok {
		return 0, "", corrupt("unknown kind token %q", tok[:])
	}

	next, err := br.Peek(1)
	if err != nil {
		return 0, "", unexpected("node", err)
	}
	if next[0] != labelStart {
		return kind, "", nil
	}
	_, _ = br.ReadByte()

	var sb strings.Builder
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, "", unexpected("label", err)
		}
		switch c {
		case labelEnd:
			return kind, sb.String(), nil
		case escape:
			if c, err = br.ReadByte(); err != nil {
				return 0, "", unexpected("label", err)
			}
		}
		sb.WriteByte(c)
	}
}

// unexpected turns a premature end of input into a corrupt stream error.
func unexpected(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return truncated(what)
	}
	return err
}

func truncated(what string) error {
	return fmt.Errorf("%w: truncated %s: %w", ErrCorruptStream, what, io.ErrUnexpectedEOF)
}
