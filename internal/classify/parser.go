package classify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"classifybot/internal/domain"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

const degradedSummaryRunes = 200

// maxRank bounds ranks accepted from the model.
const maxRank = math.MaxInt32

// ParseResponse extracts a PredictionResult from raw model text.
//
// Text without a brace-delimited region becomes a Degraded result that keeps
// the first 200 characters as the summary. Otherwise the region from the
// first '{' to the last '}' is parsed as strict JSON, then as a Python or
// JavaScript style literal (see literalToJSON), then as YAML. A region
// that parses under neither, or whose fields have the wrong types, is a
// Failure wrapping ErrParse.
func ParseResponse(raw string) domain.Outcome {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || end < start {
		return domain.Degraded(degradedResult(raw))
	}
	body := raw[start : end+1]

	var v any
	strictErr := sonic.ConfigStd.UnmarshalFromString(body, &v)
	if strictErr != nil {
		var permissiveErr error
		v, permissiveErr = parsePermissive(body)
		if permissiveErr != nil {
			return domain.Failure(fmt.Errorf("%w: strict: %v; permissive: %v", ErrParse, strictErr, permissiveErr))
		}
	}

	result, err := resultFromValue(v)
	if err != nil {
		return domain.Failure(fmt.Errorf("%w: %v", ErrParse, err))
	}
	return domain.Success(result)
}

func degradedResult(raw string) domain.PredictionResult {
	summary := raw
	if runes := []rune(raw); len(runes) > degradedSummaryRunes {
		summary = string(runes[:degradedSummaryRunes])
	}
	return domain.PredictionResult{
		Summary:  summary,
		Keywords: []string{domain.KeywordFormatError},
		Predictions: []domain.Prediction{
			{Rank: 1, Department: domain.DepartmentNeedsReview, Reason: domain.ReasonFormatError},
		},
	}
}

// parsePermissive accepts literal-style objects. The literal rewrite is
// tried first; YAML is the last resort for unquoted keys and values.
func parsePermissive(body string) (any, error) {
	var v any
	literalErr := sonic.ConfigStd.UnmarshalFromString(literalToJSON(body), &v)
	if literalErr == nil {
		return v, nil
	}
	v = nil
	if err := yaml.Unmarshal([]byte(strings.ReplaceAll(stripComments(body), "\t", " ")), &v); err != nil {
		return nil, fmt.Errorf("literal: %v; yaml: %w", literalErr, err)
	}
	return v, nil
}

// literalToJSON rewrites a Python or JavaScript style literal into JSON in
// one pass that tracks string boundaries. Outside strings it drops // and #
// comments and trailing commas, turns tuples into arrays and maps
// None/True/False to null/true/false. Single-quoted strings become
// double-quoted with Python escapes translated. String contents are never
// altered otherwise.
func literalToJSON(src string) string {
	out := make([]byte, 0, len(src))
	for i := 0; i < len(src); {
		ch := src[i]
		switch {
		case ch == '"' || ch == '\'':
			out, i = appendString(out, src, i)
		case ch == '#' || (ch == '/' && i+1 < len(src) && src[i+1] == '/'):
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case ch == '(':
			out = append(out, '[')
			i++
		case ch == ')' || ch == ']' || ch == '}':
			out = trimTrailingComma(out)
			if ch == ')' {
				ch = ']'
			}
			out = append(out, ch)
			i++
		case isIdentByte(ch) && !isDigit(ch):
			j := i
			for j < len(src) && isIdentByte(src[j]) {
				j++
			}
			switch word := src[i:j]; word {
			case "None":
				out = append(out, "null"...)
			case "True":
				out = append(out, "true"...)
			case "False":
				out = append(out, "false"...)
			default:
				out = append(out, word...)
			}
			i = j
		default:
			out = append(out, ch)
			i++
		}
	}
	return string(out)
}

// appendString copies the quoted string starting at src[start] to out as a
// JSON string and returns the index just past its closing quote.
func appendString(out []byte, src string, start int) ([]byte, int) {
	quote := src[start]
	out = append(out, '"')
	i := start + 1
	for i < len(src) {
		ch := src[i]
		switch {
		case ch == quote:
			return append(out, '"'), i + 1
		case ch == '\\' && i+1 < len(src):
			next := src[i+1]
			switch next {
			case '\'':
				out = append(out, '\'')
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				out = append(out, '\\', next)
			case '\n':
				// line continuation
			case 'x':
				if i+3 < len(src) && isHex(src[i+2]) && isHex(src[i+3]) {
					out = append(out, `\u00`...)
					out = append(out, src[i+2], src[i+3])
					i += 4
					continue
				}
				out = append(out, `\\x`...)
			default:
				out = append(out, '\\', '\\', next)
			}
			i += 2
		case ch == '"':
			out = append(out, '\\', '"')
			i++
		case ch < 0x20:
			out = append(out, fmt.Sprintf(`\u%04x`, ch)...)
			i++
		default:
			out = append(out, ch)
			i++
		}
	}
	return out, i
}

// trimTrailingComma removes a comma left dangling before a closing bracket.
// Strings are already closed in out, so the scan only sees structure.
func trimTrailingComma(out []byte) []byte {
	j := len(out)
	for j > 0 && isSpace(out[j-1]) {
		j--
	}
	if j > 0 && out[j-1] == ',' {
		return append(out[:j-1], out[j:]...)
	}
	return out
}

func isIdentByte(ch byte) bool {
	return ch == '_' || isDigit(ch) || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHex(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func stripComments(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return strings.Join(lines, "\n")
}

// stripLineComment removes a trailing // comment that is outside any single-
// or double-quoted string.
func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}
	var quote byte
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if quote != 0 {
			switch ch {
			case '\\':
				escaped = true
			case quote:
				quote = 0
			}
			continue
		}
		switch {
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}

func resultFromValue(v any) (domain.PredictionResult, error) {
	obj, ok := asObject(v)
	if !ok {
		return domain.PredictionResult{}, fmt.Errorf("top level is %T, want object", v)
	}

	result := domain.PredictionResult{Keywords: []string{}, Predictions: []domain.Prediction{}}

	if s, present := obj["summary"]; present && s != nil {
		str, ok := s.(string)
		if !ok {
			return domain.PredictionResult{}, fmt.Errorf("summary is %T, want string", s)
		}
		result.Summary = str
	}

	if kw, present := obj["keywords"]; present && kw != nil {
		list, ok := kw.([]any)
		if !ok {
			return domain.PredictionResult{}, fmt.Errorf("keywords is %T, want list", kw)
		}
		for i, item := range list {
			s, ok := scalarString(item)
			if !ok {
				return domain.PredictionResult{}, fmt.Errorf("keywords[%d] is %T, want scalar", i, item)
			}
			result.Keywords = append(result.Keywords, s)
		}
	}

	if preds, present := obj["predictions"]; present && preds != nil {
		list, ok := preds.([]any)
		if !ok {
			return domain.PredictionResult{}, fmt.Errorf("predictions is %T, want list", preds)
		}
		for i, item := range list {
			p, err := predictionFromValue(item, i)
			if err != nil {
				return domain.PredictionResult{}, fmt.Errorf("predictions[%d]: %w", i, err)
			}
			result.Predictions = append(result.Predictions, p)
		}
	}
	return result, nil
}

func predictionFromValue(v any, index int) (domain.Prediction, error) {
	obj, ok := asObject(v)
	if !ok {
		return domain.Prediction{}, fmt.Errorf("is %T, want object", v)
	}
	p := domain.Prediction{Rank: index + 1}
	if r, present := obj["rank"]; present && r != nil {
		rank, ok := integerValue(r)
		if !ok {
			return domain.Prediction{}, fmt.Errorf("rank %v is not an integer", r)
		}
		p.Rank = rank
	}
	var err error
	if p.Department, err = optionalString(obj, "department"); err != nil {
		return domain.Prediction{}, err
	}
	if p.Reason, err = optionalString(obj, "reason"); err != nil {
		return domain.Prediction{}, err
	}
	return p, nil
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func optionalString(obj map[string]any, key string) (string, error) {
	v, present := obj[key]
	if !present || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s is %T, want string", key, v)
	}
	return s, nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

func integerValue(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, t >= -maxRank && t <= maxRank
	case int64:
		return int(t), t >= -maxRank && t <= maxRank
	case uint64:
		return int(t), t <= maxRank
	case float64:
		if t != math.Trunc(t) || math.Abs(t) > maxRank {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil && n >= -maxRank && n <= maxRank
	default:
		return 0, false
	}
}
