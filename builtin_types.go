package xsd

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// WhiteSpace is the pre-lexical normalization policy of a simple type.
type WhiteSpace string

const (
	PreserveWhiteSpace WhiteSpace = "preserve"
	ReplaceWhiteSpace  WhiteSpace = "replace"
	CollapseWhiteSpace WhiteSpace = "collapse"
)

// whiteSpaceRank orders policies from most to least permissive; restriction
// may only move to a higher rank.
func whiteSpaceRank(ws WhiteSpace) int {
	switch ws {
	case ReplaceWhiteSpace:
		return 1
	case CollapseWhiteSpace:
		return 2
	default:
		return 0
	}
}

// Facet kind names, shared by the facet engine and the admitted-facet sets.
const (
	FacetLength         = "length"
	FacetMinLength      = "minLength"
	FacetMaxLength      = "maxLength"
	FacetMinInclusive   = "minInclusive"
	FacetMinExclusive   = "minExclusive"
	FacetMaxInclusive   = "maxInclusive"
	FacetMaxExclusive   = "maxExclusive"
	FacetTotalDigits    = "totalDigits"
	FacetFractionDigits = "fractionDigits"
	FacetEnumeration    = "enumeration"
	FacetPattern        = "pattern"
	FacetWhiteSpace     = "whiteSpace"
)

var lengthFacets = []string{
	FacetLength, FacetMinLength, FacetMaxLength,
	FacetEnumeration, FacetPattern, FacetWhiteSpace,
}

var orderedFacets = []string{
	FacetMinInclusive, FacetMinExclusive, FacetMaxInclusive, FacetMaxExclusive,
	FacetEnumeration, FacetPattern, FacetWhiteSpace,
}

var decimalFacets = append([]string{FacetTotalDigits, FacetFractionDigits}, orderedFacets...)

// BuiltinType is a primitive atomic type: the lexical-to-native conversion,
// its inverse, the native ordering used by range facets, and the facet kinds
// the primitive admits.
type BuiltinType struct {
	Name       QName
	WhiteSpace WhiteSpace
	Decode     func(value string) (any, error)
	Encode     func(value any) (string, error)
	Compare    func(a, b string) (int, error) // nil when the value space is unordered
	Length     func(value string) int         // nil means rune count
	Admitted   []string
}

// Admits reports whether the primitive admits the given facet kind.
func (b *BuiltinType) Admits(kind string) bool {
	for _, k := range b.Admitted {
		if k == kind {
			return true
		}
	}
	return false
}

var builtinTypes = map[string]*BuiltinType{}

func init() {
	registerBuiltinTypes()
}

// GetBuiltinType returns a built-in type by local name, or nil.
func GetBuiltinType(name string) *BuiltinType {
	if idx := strings.Index(name, ":"); idx >= 0 {
		name = name[idx+1:]
	}
	return builtinTypes[name]
}

// IsBuiltinType reports whether name is a built-in type.
func IsBuiltinType(name string) bool {
	return GetBuiltinType(name) != nil
}

func registerString(name string, ws WhiteSpace, decode func(string) (any, error)) {
	if decode == nil {
		decode = func(v string) (any, error) { return v, nil }
	}
	builtinTypes[name] = &BuiltinType{
		Name:       XSDName(name),
		WhiteSpace: ws,
		Decode:     decode,
		Encode:     encodeString,
		Compare:    compareStrings,
		Admitted:   lengthFacets,
	}
}

func registerBuiltinTypes() {
	registerString("string", PreserveWhiteSpace, nil)
	registerString("normalizedString", ReplaceWhiteSpace, nil)
	registerString("token", CollapseWhiteSpace, nil)
	registerString("language", CollapseWhiteSpace, matchDecoder("language", `^[a-zA-Z]{1,8}(-[a-zA-Z0-9]{1,8})*$`))
	registerString("Name", CollapseWhiteSpace, matchDecoder("Name", `^[_:A-Za-z][-._:A-Za-z0-9]*$`))
	registerString("NCName", CollapseWhiteSpace, matchDecoder("NCName", `^[_A-Za-z][-._A-Za-z0-9]*$`))
	registerString("ID", CollapseWhiteSpace, matchDecoder("ID", `^[_A-Za-z][-._A-Za-z0-9]*$`))
	registerString("IDREF", CollapseWhiteSpace, matchDecoder("IDREF", `^[_A-Za-z][-._A-Za-z0-9]*$`))
	registerString("NMTOKEN", CollapseWhiteSpace, matchDecoder("NMTOKEN", `^[-._:A-Za-z0-9]+$`))
	registerString("anyURI", CollapseWhiteSpace, nil)
	registerString("QName", CollapseWhiteSpace, matchDecoder("QName", `^([_A-Za-z][-._A-Za-z0-9]*:)?[_A-Za-z][-._A-Za-z0-9]*$`))
	registerString("anySimpleType", PreserveWhiteSpace, nil)

	builtinTypes["boolean"] = &BuiltinType{
		Name:       XSDName("boolean"),
		WhiteSpace: CollapseWhiteSpace,
		Decode:     decodeBoolean,
		Encode:     encodeBoolean,
		Admitted:   []string{FacetEnumeration, FacetPattern, FacetWhiteSpace},
	}

	builtinTypes["decimal"] = &BuiltinType{
		Name:       XSDName("decimal"),
		WhiteSpace: CollapseWhiteSpace,
		Decode:     decodeDecimal,
		Encode:     encodeDecimal,
		Compare:    compareNumeric,
		Admitted:   decimalFacets,
	}

	intRange := func(name string, min, max int64) {
		builtinTypes[name] = &BuiltinType{
			Name:       XSDName(name),
			WhiteSpace: CollapseWhiteSpace,
			Decode:     decodeIntegerRange(name, min, max),
			Encode:     encodeInteger,
			Compare:    compareNumeric,
			Admitted:   decimalFacets,
		}
	}
	intRange("integer", math.MinInt64, math.MaxInt64)
	intRange("long", math.MinInt64, math.MaxInt64)
	intRange("int", math.MinInt32, math.MaxInt32)
	intRange("short", math.MinInt16, math.MaxInt16)
	intRange("byte", math.MinInt8, math.MaxInt8)
	intRange("nonNegativeInteger", 0, math.MaxInt64)
	intRange("positiveInteger", 1, math.MaxInt64)
	intRange("nonPositiveInteger", math.MinInt64, 0)
	intRange("negativeInteger", math.MinInt64, -1)
	uintRange := func(name string, max uint64) {
		builtinTypes[name] = &BuiltinType{
			Name:       XSDName(name),
			WhiteSpace: CollapseWhiteSpace,
			Decode:     decodeUnsignedRange(name, max),
			Encode:     encodeInteger,
			Compare:    compareNumeric,
			Admitted:   decimalFacets,
		}
	}
	uintRange("unsignedLong", math.MaxUint64)
	uintRange("unsignedInt", math.MaxUint32)
	uintRange("unsignedShort", math.MaxUint16)
	uintRange("unsignedByte", math.MaxUint8)

	builtinTypes["float"] = &BuiltinType{
		Name:       XSDName("float"),
		WhiteSpace: CollapseWhiteSpace,
		Decode:     decodeFloat(32),
		Encode:     encodeFloat,
		Compare:    compareNumeric,
		Admitted:   orderedFacets,
	}
	builtinTypes["double"] = &BuiltinType{
		Name:       XSDName("double"),
		WhiteSpace: CollapseWhiteSpace,
		Decode:     decodeFloat(64),
		Encode:     encodeFloat,
		Compare:    compareNumeric,
		Admitted:   orderedFacets,
	}

	builtinTypes["hexBinary"] = &BuiltinType{
		Name:       XSDName("hexBinary"),
		WhiteSpace: CollapseWhiteSpace,
		Decode:     decodeHexBinary,
		Encode:     encodeHexBinary,
		Length:     func(v string) int { return len(v) / 2 },
		Admitted:   lengthFacets,
	}
	builtinTypes["base64Binary"] = &BuiltinType{
		Name:       XSDName("base64Binary"),
		WhiteSpace: CollapseWhiteSpace,
		Decode:     decodeBase64Binary,
		Encode:     encodeBase64Binary,
		Length:     base64Length,
		Admitted:   lengthFacets,
	}

	temporal := func(name, pattern string) {
		re := regexp.MustCompile(pattern)
		builtinTypes[name] = &BuiltinType{
			Name:       XSDName(name),
			WhiteSpace: CollapseWhiteSpace,
			Decode: func(v string) (any, error) {
				if !re.MatchString(v) {
					return nil, fmt.Errorf("invalid %s value", name)
				}
				return v, nil
			},
			Encode:   encodeString,
			Compare:  compareStrings,
			Admitted: orderedFacets,
		}
	}
	temporal("dateTime", `^-?\d{4,}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	temporal("date", `^-?\d{4,}-\d{2}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	temporal("time", `^\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	temporal("gYear", `^-?\d{4,}(Z|[+-]\d{2}:\d{2})?$`)
	temporal("gYearMonth", `^-?\d{4,}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	temporal("gMonth", `^--\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	temporal("gMonthDay", `^--\d{2}-\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	temporal("gDay", `^---\d{2}(Z|[+-]\d{2}:\d{2})?$`)
	temporal("duration", `^-?P(\d+Y)?(\d+M)?(\d+D)?(T(\d+H)?(\d+M)?(\d+(\.\d+)?S)?)?$`)
}

func matchDecoder(name, pattern string) func(string) (any, error) {
	re := regexp.MustCompile(pattern)
	return func(v string) (any, error) {
		if !re.MatchString(v) {
			return nil, fmt.Errorf("invalid %s value", name)
		}
		return v, nil
	}
}

func encodeString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func compareStrings(a, b string) (int, error) {
	return strings.Compare(a, b), nil
}

func decodeBoolean(v string) (any, error) {
	switch v {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return nil, fmt.Errorf("invalid boolean value")
	}
}

func encodeBoolean(v any) (string, error) {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t), nil
	case string:
		if t == "true" || t == "false" || t == "1" || t == "0" {
			return t, nil
		}
	}
	return "", fmt.Errorf("expected bool, got %T", v)
}

var decimalLexical = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

func decodeDecimal(v string) (any, error) {
	if !decimalLexical.MatchString(v) {
		return nil, fmt.Errorf("invalid decimal value")
	}
	f, _, err := new(big.Float).Parse(v, 10)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal value")
	}
	return f, nil
}

func encodeDecimal(v any) (string, error) {
	switch t := v.(type) {
	case *big.Float:
		return t.Text('f', -1), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case string:
		if decimalLexical.MatchString(t) {
			return t, nil
		}
	}
	return "", fmt.Errorf("expected numeric value, got %T", v)
}

func decodeIntegerRange(name string, min, max int64) func(string) (any, error) {
	return func(v string) (any, error) {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value", name)
		}
		if n < min || n > max {
			return nil, fmt.Errorf("value out of range for %s", name)
		}
		return n, nil
	}
}

func decodeUnsignedRange(name string, max uint64) func(string) (any, error) {
	return func(v string) (any, error) {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value", name)
		}
		if n > max {
			return nil, fmt.Errorf("value out of range for %s", name)
		}
		return n, nil
	}
}

func encodeInteger(v any) (string, error) {
	switch t := v.(type) {
	case int:
		return strconv.Itoa(t), nil
	case int8:
		return strconv.FormatInt(int64(t), 10), nil
	case int16:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case *big.Int:
		return t.String(), nil
	case string:
		if _, err := strconv.ParseInt(t, 10, 64); err == nil {
			return t, nil
		}
	}
	return "", fmt.Errorf("expected integer value, got %T", v)
}

func decodeFloat(bits int) func(string) (any, error) {
	return func(v string) (any, error) {
		switch v {
		case "INF", "+INF":
			return math.Inf(1), nil
		case "-INF":
			return math.Inf(-1), nil
		case "NaN":
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(v, bits)
		if err != nil {
			return nil, fmt.Errorf("invalid floating point value")
		}
		return f, nil
	}
}

func encodeFloat(v any) (string, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	default:
		return "", fmt.Errorf("expected floating point value, got %T", v)
	}
	switch {
	case math.IsInf(f, 1):
		return "INF", nil
	case math.IsInf(f, -1):
		return "-INF", nil
	case math.IsNaN(f):
		return "NaN", nil
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func decodeHexBinary(v string) (any, error) {
	data, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid hexBinary value")
	}
	return data, nil
}

func encodeHexBinary(v any) (string, error) {
	switch t := v.(type) {
	case []byte:
		return strings.ToUpper(hex.EncodeToString(t)), nil
	case string:
		if _, err := hex.DecodeString(t); err == nil {
			return strings.ToUpper(t), nil
		}
	}
	return "", fmt.Errorf("expected binary value, got %T", v)
}

func decodeBase64Binary(v string) (any, error) {
	data, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid base64Binary value")
	}
	return data, nil
}

func encodeBase64Binary(v any) (string, error) {
	switch t := v.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(t), nil
	case string:
		if _, err := base64.StdEncoding.DecodeString(t); err == nil {
			return t, nil
		}
	}
	return "", fmt.Errorf("expected binary value, got %T", v)
}

func base64Length(v string) int {
	n := len(v)
	if strings.HasSuffix(v, "==") {
		n -= 2
	} else if strings.HasSuffix(v, "=") {
		n--
	}
	return n * 3 / 4
}

// compareNumeric compares two lexical numeric values with arbitrary
// precision.
func compareNumeric(a, b string) (int, error) {
	fa, err := parseNumeric(a)
	if err != nil {
		return 0, err
	}
	fb, err := parseNumeric(b)
	if err != nil {
		return 0, err
	}
	return fa.Cmp(fb), nil
}

func parseNumeric(v string) (*big.Float, error) {
	f, _, err := new(big.Float).Parse(v, 10)
	if err != nil {
		i := new(big.Int)
		if _, ok := i.SetString(v, 10); !ok {
			return nil, fmt.Errorf("invalid numeric value: %s", v)
		}
		f = new(big.Float).SetInt(i)
	}
	return f, nil
}
