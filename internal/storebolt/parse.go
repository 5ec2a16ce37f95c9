package storebolt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/tablemapper/pkg/avalue"
	"github.com/cuemby/tablemapper/pkg/expr"
)

// This file parses the textual dialect pkg/expr.SerializeCondition and
// pkg/expr.SerializeUpdate produce back into their tree forms, so storebolt
// can evaluate conditions/filters and apply updates without inventing a
// second expression representation. storebolt is the only consumer of
// these request strings, so the parser only needs to accept exactly the
// grammar the serializer emits — it is not a general expression parser.

type tokenizer struct {
	tokens []string
	pos    int
}

func tokenize(s string) *tokenizer {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == ' ':
			flush()
		case c == '(' || c == ')' || c == ',' || c == '.' || c == '[' || c == ']':
			flush()
			tokens = append(tokens, string(c))
		case c == '<' || c == '>':
			flush()
			if i+1 < len(runes) && runes[i+1] == '=' {
				tokens = append(tokens, string(c)+"=")
				i++
			} else if c == '<' && i+1 < len(runes) && runes[i+1] == '>' {
				tokens = append(tokens, "<>")
				i++
			} else {
				tokens = append(tokens, string(c))
			}
		case c == '=':
			flush()
			tokens = append(tokens, "=")
		default:
			cur.WriteRune(c)
		}
	}
	flush()
	return &tokenizer{tokens: tokens}
}

func (t *tokenizer) peek() string {
	if t.pos >= len(t.tokens) {
		return ""
	}
	return t.tokens[t.pos]
}

func (t *tokenizer) next() string {
	tok := t.peek()
	t.pos++
	return tok
}

func (t *tokenizer) expect(tok string) error {
	got := t.next()
	if got != tok {
		return fmt.Errorf("storebolt: expected %q, got %q", tok, got)
	}
	return nil
}

func (t *tokenizer) done() bool { return t.pos >= len(t.tokens) }

// resolver turns the name/value tokens produced by pkg/expr back into
// concrete path elements and attribute values.
type resolver struct {
	names  map[string]string
	values map[string]avalue.AttributeValue
}

func (r resolver) path(t *tokenizer) (expr.Path, error) {
	var p expr.Path
	for {
		tok := t.peek()
		if strings.HasPrefix(tok, "#attr") {
			t.next()
			name, ok := r.names[tok]
			if !ok {
				return nil, fmt.Errorf("storebolt: unknown name token %q", tok)
			}
			p = append(p, expr.PathElement{Name: name})
		} else {
			return nil, fmt.Errorf("storebolt: expected name token in path, got %q", tok)
		}
		switch t.peek() {
		case ".":
			t.next()
			continue
		case "[":
			t.next()
			idxTok := t.next()
			idx, err := strconv.Atoi(idxTok)
			if err != nil {
				return nil, fmt.Errorf("storebolt: bad index %q: %w", idxTok, err)
			}
			if err := t.expect("]"); err != nil {
				return nil, err
			}
			p = append(p, expr.PathElement{Index: idx, IsIndex: true})
			if t.peek() == "." {
				t.next()
				continue
			}
			return p, nil
		default:
			return p, nil
		}
	}
}

func (r resolver) value(tok string) (avalue.AttributeValue, error) {
	v, ok := r.values[tok]
	if !ok {
		return avalue.AttributeValue{}, fmt.Errorf("storebolt: unknown value token %q", tok)
	}
	return v, nil
}

// ParseCondition parses a ConditionExpression/KeyConditionExpression/
// FilterExpression string into its expr.Condition tree.
func ParseCondition(text string, names map[string]string, values map[string]avalue.AttributeValue) (expr.Condition, error) {
	if strings.TrimSpace(text) == "" {
		return expr.Condition{}, nil
	}
	t := tokenize(text)
	r := resolver{names: names, values: values}
	cond, err := r.parseOr(t)
	if err != nil {
		return expr.Condition{}, err
	}
	if !t.done() {
		return expr.Condition{}, fmt.Errorf("storebolt: trailing tokens after condition: %v", t.tokens[t.pos:])
	}
	return cond, nil
}

func (r resolver) parseOr(t *tokenizer) (expr.Condition, error) {
	first, err := r.parseAnd(t)
	if err != nil {
		return expr.Condition{}, err
	}
	children := []expr.Condition{first}
	for t.peek() == "OR" {
		t.next()
		next, err := r.parseAnd(t)
		if err != nil {
			return expr.Condition{}, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return expr.Condition{Kind: expr.Or, Children: children}, nil
}

func (r resolver) parseAnd(t *tokenizer) (expr.Condition, error) {
	first, err := r.parseUnary(t)
	if err != nil {
		return expr.Condition{}, err
	}
	children := []expr.Condition{first}
	for t.peek() == "AND" {
		t.next()
		next, err := r.parseUnary(t)
		if err != nil {
			return expr.Condition{}, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return expr.Condition{Kind: expr.And, Children: children}, nil
}

func (r resolver) parseUnary(t *tokenizer) (expr.Condition, error) {
	if t.peek() == "NOT" {
		t.next()
		if err := t.expect("("); err != nil {
			return expr.Condition{}, err
		}
		inner, err := r.parseOr(t)
		if err != nil {
			return expr.Condition{}, err
		}
		if err := t.expect(")"); err != nil {
			return expr.Condition{}, err
		}
		return expr.Condition{Kind: expr.Not, Child: &inner}, nil
	}
	return r.parseParenOrLeaf(t)
}

func (r resolver) parseParenOrLeaf(t *tokenizer) (expr.Condition, error) {
	if t.peek() == "(" {
		t.next()
		inner, err := r.parseOr(t)
		if err != nil {
			return expr.Condition{}, err
		}
		if err := t.expect(")"); err != nil {
			return expr.Condition{}, err
		}
		return inner, nil
	}
	return r.parseLeaf(t)
}

var functionKind = map[string]expr.ConditionKind{
	"attribute_exists":     expr.AttributeExists,
	"attribute_not_exists": expr.AttributeNotExists,
	"attribute_type":       expr.AttributeType,
	"begins_with":          expr.BeginsWith,
	"contains":             expr.Contains,
}

var comparisonKind = map[string]expr.ConditionKind{
	"=":  expr.Equals,
	"<>": expr.NotEquals,
	"<":  expr.LessThan,
	"<=": expr.LessThanOrEqualTo,
	">":  expr.GreaterThan,
	">=": expr.GreaterThanOrEqualTo,
}

func (r resolver) parseLeaf(t *tokenizer) (expr.Condition, error) {
	if kind, ok := functionKind[t.peek()]; ok {
		t.next()
		if err := t.expect("("); err != nil {
			return expr.Condition{}, err
		}
		path, err := r.path(t)
		if err != nil {
			return expr.Condition{}, err
		}
		c := expr.Condition{Kind: kind, Path: path}
		if kind == expr.AttributeType || kind == expr.BeginsWith || kind == expr.Contains {
			if err := t.expect(","); err != nil {
				return expr.Condition{}, err
			}
			v, err := r.value(t.next())
			if err != nil {
				return expr.Condition{}, err
			}
			c.Value = v
		}
		if err := t.expect(")"); err != nil {
			return expr.Condition{}, err
		}
		return c, nil
	}

	path, err := r.path(t)
	if err != nil {
		return expr.Condition{}, err
	}

	switch t.peek() {
	case "BETWEEN":
		t.next()
		low, err := r.value(t.next())
		if err != nil {
			return expr.Condition{}, err
		}
		if err := t.expect("AND"); err != nil {
			return expr.Condition{}, err
		}
		high, err := r.value(t.next())
		if err != nil {
			return expr.Condition{}, err
		}
		return expr.Condition{Kind: expr.Between, Path: path, Value: low, High: high}, nil
	case "IN":
		t.next()
		if err := t.expect("("); err != nil {
			return expr.Condition{}, err
		}
		var values []avalue.AttributeValue
		for {
			v, err := r.value(t.next())
			if err != nil {
				return expr.Condition{}, err
			}
			values = append(values, v)
			if t.peek() == "," {
				t.next()
				continue
			}
			break
		}
		if err := t.expect(")"); err != nil {
			return expr.Condition{}, err
		}
		return expr.Condition{Kind: expr.Membership, Path: path, Values: values}, nil
	default:
		opTok := t.next()
		kind, ok := comparisonKind[opTok]
		if !ok {
			return expr.Condition{}, fmt.Errorf("storebolt: unrecognized comparison operator %q", opTok)
		}
		v, err := r.value(t.next())
		if err != nil {
			return expr.Condition{}, err
		}
		return expr.Condition{Kind: kind, Path: path, Value: v}, nil
	}
}

// ParseUpdate parses an UpdateExpression string into its expr.Update tree.
func ParseUpdate(text string, names map[string]string, values map[string]avalue.AttributeValue) (expr.Update, error) {
	r := resolver{names: names, values: values}
	var u expr.Update
	fields := splitVerbs(text)
	for verb, body := range fields {
		switch verb {
		case "SET":
			for _, clause := range splitTopLevelCommas(body) {
				sc, err := r.parseSetClause(clause)
				if err != nil {
					return expr.Update{}, err
				}
				u.Sets = append(u.Sets, sc)
			}
		case "REMOVE":
			for _, clause := range splitTopLevelCommas(body) {
				t := tokenize(clause)
				p, err := r.path(t)
				if err != nil {
					return expr.Update{}, err
				}
				u.Removes = append(u.Removes, p)
			}
		case "ADD":
			for _, clause := range splitTopLevelCommas(body) {
				t := tokenize(clause)
				p, err := r.path(t)
				if err != nil {
					return expr.Update{}, err
				}
				v, err := r.value(t.next())
				if err != nil {
					return expr.Update{}, err
				}
				u.Adds = append(u.Adds, expr.AddClause{Path: p, Value: v})
			}
		case "DELETE":
			for _, clause := range splitTopLevelCommas(body) {
				t := tokenize(clause)
				p, err := r.path(t)
				if err != nil {
					return expr.Update{}, err
				}
				v, err := r.value(t.next())
				if err != nil {
					return expr.Update{}, err
				}
				u.Deletes = append(u.Deletes, expr.DeleteClause{Path: p, Value: v})
			}
		}
	}
	return u, nil
}

func (r resolver) parseSetClause(clause string) (expr.SetClause, error) {
	t := tokenize(clause)
	path, err := r.path(t)
	if err != nil {
		return expr.SetClause{}, err
	}
	if err := t.expect("="); err != nil {
		return expr.SetClause{}, err
	}
	// Right-hand side is either "<valtoken>" or "<operand> + <operand>" /
	// "<operand> - <operand>", where an operand is a name token or a value
	// token.
	first := t.next()
	if t.done() {
		if strings.HasPrefix(first, ":val") {
			v, err := r.value(first)
			if err != nil {
				return expr.SetClause{}, err
			}
			return expr.SetClause{Path: path, Value: v}, nil
		}
		return expr.SetClause{}, fmt.Errorf("storebolt: expected value token, got %q", first)
	}

	left, err := r.operand(t, first)
	if err != nil {
		return expr.SetClause{}, err
	}
	opTok := t.next()
	var op expr.MathOp
	switch opTok {
	case "+":
		op = expr.Add
	case "-":
		op = expr.Subtract
	default:
		return expr.SetClause{}, fmt.Errorf("storebolt: expected math operator, got %q", opTok)
	}
	right, err := r.operand(t, t.next())
	if err != nil {
		return expr.SetClause{}, err
	}
	m := expr.Math{
		LeftIsPath:  left.LeftIsPath,
		LeftPath:    left.LeftPath,
		LeftValue:   left.LeftValue,
		Op:          op,
		RightIsPath: right.LeftIsPath,
		RightPath:   right.LeftPath,
		RightValue:  right.LeftValue,
	}
	return expr.SetClause{Path: path, Math: &m}, nil
}

// operand interprets a single already-consumed token as either a name
// token (re-tokenizing the rest of the path via t) or a value token,
// returning it packed into the Left* fields of a Math for reuse.
func (r resolver) operand(t *tokenizer, firstTok string) (expr.Math, error) {
	if strings.HasPrefix(firstTok, "#attr") {
		name, ok := r.names[firstTok]
		if !ok {
			return expr.Math{}, fmt.Errorf("storebolt: unknown name token %q", firstTok)
		}
		p := expr.Path{{Name: name}}
		for t.peek() == "." || t.peek() == "[" {
			if t.peek() == "." {
				t.next()
				nameTok := t.next()
				n, ok := r.names[nameTok]
				if !ok {
					return expr.Math{}, fmt.Errorf("storebolt: unknown name token %q", nameTok)
				}
				p = append(p, expr.PathElement{Name: n})
			} else {
				t.next()
				idxTok := t.next()
				idx, err := strconv.Atoi(idxTok)
				if err != nil {
					return expr.Math{}, err
				}
				if err := t.expect("]"); err != nil {
					return expr.Math{}, err
				}
				p = append(p, expr.PathElement{Index: idx, IsIndex: true})
			}
		}
		return expr.Math{LeftIsPath: true, LeftPath: p}, nil
	}
	v, err := r.value(firstTok)
	if err != nil {
		return expr.Math{}, err
	}
	return expr.Math{LeftValue: v}, nil
}

// splitVerbs splits an UpdateExpression into its SET/REMOVE/ADD/DELETE
// sections, in whatever order they appear (the serializer always emits
// SET, REMOVE, ADD, DELETE in that fixed order, but the parser doesn't
// need to assume it).
func splitVerbs(text string) map[string]string {
	out := make(map[string]string)
	verbs := []string{"SET", "REMOVE", "ADD", "DELETE"}
	type pos struct {
		verb string
		idx  int
	}
	var found []pos
	for _, v := range verbs {
		idx := indexWord(text, v)
		if idx >= 0 {
			found = append(found, pos{v, idx})
		}
	}
	for i, p := range found {
		end := len(text)
		for _, other := range found {
			if other.idx > p.idx && other.idx < end {
				end = other.idx
			}
		}
		body := strings.TrimSpace(text[p.idx+len(p.verb) : end])
		out[p.verb] = body
		_ = i
	}
	return out
}

func indexWord(text, word string) int {
	idx := strings.Index(text, word)
	for idx >= 0 {
		before := idx == 0 || text[idx-1] == ' '
		afterPos := idx + len(word)
		after := afterPos >= len(text) || text[afterPos] == ' '
		if before && after {
			return idx
		}
		next := strings.Index(text[idx+1:], word)
		if next < 0 {
			return -1
		}
		idx = idx + 1 + next
	}
	return -1
}

// parseProjectionPaths parses a ProjectionExpression string (comma-
// separated paths, no values involved) into its Path list.
func parseProjectionPaths(text string, names map[string]string) []expr.Path {
	r := resolver{names: names}
	var out []expr.Path
	for _, clause := range splitTopLevelCommas(text) {
		t := tokenize(clause)
		p, err := r.path(t)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}

// splitTopLevelCommas splits clause lists on commas that are not nested
// inside parens/brackets (IN-lists, function calls).
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) != "" {
		out = append(out, strings.TrimSpace(s[start:]))
	}
	return out
}
