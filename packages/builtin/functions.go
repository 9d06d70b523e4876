package builtin

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	lowerAlpha   = "abcdefghijklmnopqrstuvwxyz"
	alphabetic   = lowerAlpha + "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	alphanumeric = alphabetic + "0123456789_"
	hexadecimal  = "0123456789abcdef"
)

// Func computes a dynamic value. Bad arguments fall back to defaults.
type Func func(args []string) string

type Registry struct {
	funcs map[string]Func
	now   func() time.Time
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["uuid"] = funcUUID
	r.funcs["random.uuid"] = funcUUID
	r.funcs["timestamp"] = r.funcTimestamp
	r.funcs["isoTimestamp"] = r.funcISOTimestamp
	r.funcs["randomInt"] = funcRandomInt
	r.funcs["random.integer"] = funcRandomInteger
	r.funcs["random.float"] = funcRandomFloat
	r.funcs["random.alphabetic"] = charsetFunc(alphabetic)
	r.funcs["random.alphanumeric"] = charsetFunc(alphanumeric)
	r.funcs["random.hexadecimal"] = charsetFunc(hexadecimal)
	r.funcs["random.email"] = funcRandomEmail
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

var callPattern = regexp.MustCompile(`^\$([\w.]+)(?:\((.*)\))?$`)

// Call evaluates a dynamic variable expression such as "$uuid" or
// "$random.integer(1, 10)". It reports false for anything it does not know.
func (r *Registry) Call(expr string) (string, bool) {
	matches := callPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if matches == nil {
		return "", false
	}

	fn, ok := r.funcs[matches[1]]
	if !ok {
		return "", false
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}

	return fn(args), true
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !inQuote && (ch == '"' || ch == '\'') {
			inQuote = true
			quoteChar = ch
		} else if inQuote && ch == quoteChar {
			inQuote = false
			quoteChar = 0
		} else if !inQuote && ch == ',' {
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func intArg(args []string, i, def int) int {
	if i >= len(args) {
		return def
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return def
	}
	return v
}

func funcUUID(_ []string) string {
	return uuid.New().String()
}

func (r *Registry) funcTimestamp(_ []string) string {
	return strconv.FormatInt(r.now().Unix(), 10)
}

func (r *Registry) funcISOTimestamp(_ []string) string {
	return r.now().UTC().Format(time.RFC3339)
}

// funcRandomInt returns an integer in [0, 1000).
func funcRandomInt(_ []string) string {
	return strconv.Itoa(rand.Intn(1000))
}

// funcRandomInteger returns an integer in [from, to).
func funcRandomInteger(args []string) string {
	from, to := intArg(args, 0, 0), intArg(args, 1, 1000)
	if to <= from {
		return strconv.Itoa(from)
	}
	return strconv.Itoa(from + rand.Intn(to-from))
}

func funcRandomFloat(args []string) string {
	from, to := float64(intArg(args, 0, 0)), float64(intArg(args, 1, 1000))
	return strconv.FormatFloat(from+rand.Float64()*(to-from), 'f', -1, 64)
}

func funcRandomEmail(_ []string) string {
	return randomString(8, lowerAlpha) + "@" + randomString(6, lowerAlpha) + ".com"
}

func charsetFunc(charset string) Func {
	return func(args []string) string {
		return randomString(intArg(args, 0, 10), charset)
	}
}

func randomString(length int, charset string) string {
	if length < 0 {
		length = 0
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
