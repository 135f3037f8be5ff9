package weave

import (
	"bytes"
	"strconv"
)

// StripInvisibleText removes every BT...ET text object whose render mode
// (set by the last Tr operator seen before ET, default 0) equals 3
// (invisible) from a content stream, joining surviving tokens with single
// spaces the way pikepdf's unparse-and-rejoin does. Used on redo-ocr pages
// to discard a prior invisible OCR layer before grafting a fresh one.
func StripInvisibleText(content []byte) []byte {
	toks := tokenize(content)

	var out []string
	var buf []string
	inText := false
	renderMode := 0

	for _, t := range toks {
		if !inText {
			if t.isOperator && t.text == "BT" {
				inText = true
				renderMode = 0
				buf = []string{t.text}
			} else {
				out = append(out, t.text)
			}
			continue
		}

		if t.isOperator && t.text == "Tr" {
			if n := len(buf); n > 0 {
				if v, err := strconv.Atoi(buf[n-1]); err == nil {
					renderMode = v
				}
			}
		}
		buf = append(buf, t.text)
		if t.isOperator && t.text == "ET" {
			inText = false
			if renderMode != 3 {
				out = append(out, buf...)
			}
			buf = nil
		}
	}

	return []byte(joinTokens(out))
}

func joinTokens(toks []string) string {
	var b bytes.Buffer
	for i, t := range toks {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t)
	}
	return b.String()
}

type csToken struct {
	text       string
	isOperator bool
}

// tokenize is a minimal content-stream lexer sufficient for text-object
// boundary tracking: it does not need to evaluate operands, only pass them
// through intact and recognize operator keywords and string/array/dict
// literals well enough not to be confused by '(' ')' '<' '>' appearing
// inside them.
func tokenize(b []byte) []csToken {
	var toks []csToken
	i, n := 0, len(b)
	isDelim := func(c byte) bool {
		switch c {
		case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
			return true
		}
		return false
	}
	isSpace := func(c byte) bool {
		switch c {
		case ' ', '\t', '\r', '\n', '\f', 0:
			return true
		}
		return false
	}

	for i < n {
		c := b[i]
		switch {
		case isSpace(c):
			i++
		case c == '%':
			for i < n && b[i] != '\n' {
				i++
			}
		case c == '(':
			start := i
			depth := 0
			for i < n {
				if b[i] == '\\' {
					i += 2
					continue
				}
				if b[i] == '(' {
					depth++
				}
				if b[i] == ')' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
				i++
			}
			toks = append(toks, csToken{text: string(b[start:i])})
		case c == '<' && i+1 < n && b[i+1] == '<':
			start := i
			depth := 0
			for i < n {
				if i+1 < n && b[i] == '<' && b[i+1] == '<' {
					depth++
					i += 2
					continue
				}
				if i+1 < n && b[i] == '>' && b[i+1] == '>' {
					depth--
					i += 2
					if depth == 0 {
						break
					}
					continue
				}
				i++
			}
			toks = append(toks, csToken{text: string(b[start:i])})
		case c == '<':
			start := i
			i++
			for i < n && b[i] != '>' {
				i++
			}
			i++
			toks = append(toks, csToken{text: string(b[start:i])})
		case c == '[':
			start := i
			depth := 0
			for i < n {
				if b[i] == '[' {
					depth++
				}
				if b[i] == ']' {
					depth--
					if depth == 0 {
						i++
						break
					}
				}
				i++
			}
			toks = append(toks, csToken{text: string(b[start:i])})
		case c == '/':
			start := i
			i++
			for i < n && !isSpace(b[i]) && !isDelim(b[i]) {
				i++
			}
			toks = append(toks, csToken{text: string(b[start:i])})
		default:
			start := i
			for i < n && !isSpace(b[i]) && !isDelim(b[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			word := string(b[start:i])
			toks = append(toks, csToken{text: word, isOperator: isOperatorWord(word)})
		}
	}
	return toks
}

// isOperatorWord recognizes the small set of operators StripInvisibleText
// and the CTM graft care about; everything else (numbers, BI/EI payloads,
// names already tokenized above) passes through as an operand.
func isOperatorWord(w string) bool {
	switch w {
	case "BT", "ET", "Tr", "q", "Q", "cm", "Tf", "Tm", "Td", "TD", "T*",
		"Tj", "TJ", "'", "\"", "Do", "g", "G", "rg", "RG", "k", "K",
		"re", "f", "F", "f*", "S", "s", "B", "B*", "b", "b*", "n", "W", "W*":
		return true
	}
	return false
}
