// Package curl converts between curl command lines and .http requests.
package curl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	ErrNoURL        = errors.New("no URL found in curl command")
	ErrMissingValue = errors.New("missing flag value")
)

type Header struct {
	Name  string
	Value string
}

// FormField is one -F argument. File is set for name=@path fields, in which
// case Value holds the path.
type FormField struct {
	Name        string
	Value       string
	File        bool
	Filename    string
	ContentType string
}

// Command is a parsed curl invocation.
type Command struct {
	Method   string
	URL      string
	Headers  []Header
	Data     []string
	User     string
	Form     []FormField
	Insecure bool
	Location bool
	HTTP2    bool

	methodSet bool
}

func (c *Command) Header(name string) string {
	for _, h := range c.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func (c *Command) setHeader(name, value string) {
	for i, h := range c.Headers {
		if strings.EqualFold(h.Name, name) {
			c.Headers[i].Value = value
			return
		}
	}
	c.Headers = append(c.Headers, Header{Name: name, Value: value})
}

// Body joins the -d arguments the way curl does.
func (c *Command) Body() string {
	return strings.Join(c.Data, "&")
}

// Parse parses one curl command line. The leading "curl" is optional.
func Parse(line string) (*Command, error) {
	tokens := tokenize(strings.TrimSpace(line))
	if len(tokens) > 0 && tokens[0] == "curl" {
		tokens = tokens[1:]
	}

	cmd := &Command{Method: "GET"}
	value := func(i int) (string, error) {
		if i+1 >= len(tokens) {
			return "", fmt.Errorf("%w for %s", ErrMissingValue, tokens[i])
		}
		return tokens[i+1], nil
	}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			cmd.Method = strings.ToUpper(v)
			cmd.methodSet = true
			i++

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if name, val, ok := strings.Cut(v, ":"); ok {
				cmd.setHeader(strings.TrimSpace(name), strings.TrimSpace(val))
			}
			i++

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii", "--data-urlencode":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			cmd.Data = append(cmd.Data, v)
			i++

		case "--json":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			cmd.Data = append(cmd.Data, v)
			cmd.setHeader("Content-Type", "application/json")
			cmd.setHeader("Accept", "application/json")
			i++

		case "-F", "--form":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			field, err := parseFormField(v)
			if err != nil {
				return nil, err
			}
			cmd.Form = append(cmd.Form, field)
			i++

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			cmd.User = v
			i++

		case "-A", "--user-agent":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			cmd.setHeader("User-Agent", v)
			i++

		case "-e", "--referer":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			cmd.setHeader("Referer", v)
			i++

		case "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			cmd.setHeader("Cookie", v)
			i++

		case "--url":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			cmd.URL = v
			i++

		case "-I", "--head":
			cmd.Method = "HEAD"
			cmd.methodSet = true

		case "-k", "--insecure":
			cmd.Insecure = true

		case "-L", "--location":
			cmd.Location = true

		case "--http2", "--http2-prior-knowledge":
			cmd.HTTP2 = true

		default:
			if strings.HasPrefix(token, "-") {
				// Unknown flag; skip its value when it clearly has one.
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i++
				}
				continue
			}
			if cmd.URL == "" {
				cmd.URL = token
			}
		}
	}

	if cmd.URL == "" {
		return nil, ErrNoURL
	}
	if !cmd.methodSet && (len(cmd.Data) > 0 || len(cmd.Form) > 0) {
		cmd.Method = "POST"
	}
	return cmd, nil
}

// ParseScript reads curl commands from r, one per line. Lines ending in a
// backslash continue on the next line; blank lines and # comments are skipped.
func ParseScript(r io.Reader) ([]*Command, error) {
	var (
		commands []*Command
		current  strings.Builder
		lineNo   int
		start    int
	)

	flush := func() error {
		if current.Len() == 0 {
			return nil
		}
		cmd, err := Parse(current.String())
		if err != nil {
			return fmt.Errorf("line %d: %w", start, err)
		}
		commands = append(commands, cmd)
		current.Reset()
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if current.Len() == 0 && (line == "" || strings.HasPrefix(line, "#")) {
			continue
		}
		if current.Len() == 0 {
			start = lineNo
		}

		if cont, ok := strings.CutSuffix(line, "\\"); ok {
			current.WriteString(cont)
			current.WriteString(" ")
			continue
		}
		current.WriteString(line)
		if err := flush(); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading curl commands: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return commands, nil
}

// parseFormField parses name=value, name=@path and name=<path with the
// optional ;type= and ;filename= attributes curl accepts.
func parseFormField(s string) (FormField, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return FormField{}, fmt.Errorf("invalid form field %q", s)
	}

	field := FormField{Name: name, Value: value}
	upload := strings.HasPrefix(value, "@")
	if !upload && !strings.HasPrefix(value, "<") {
		return field, nil
	}

	attrs := strings.Split(value[1:], ";")
	field.Value = attrs[0]
	field.File = true
	for _, attr := range attrs[1:] {
		k, v, _ := strings.Cut(attr, "=")
		switch strings.TrimSpace(k) {
		case "type":
			field.ContentType = strings.TrimSpace(v)
		case "filename":
			field.Filename = strings.Trim(strings.TrimSpace(v), `"`)
		}
	}
	// name=<path sends the file content as a plain field.
	if !upload {
		field.Filename = ""
	} else if field.Filename == "" {
		field.Filename = baseName(field.Value)
	}
	return field, nil
}

// tokenize splits a command into shell words, honouring single quotes,
// double quotes and backslash escapes.
func tokenize(cmd string) []string {
	var (
		tokens  []string
		current strings.Builder
		inWord  bool
		single  bool
		double  bool
		escaped bool
	)

	for _, r := range cmd {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && !single:
			escaped = true
			inWord = true
		case r == '\'' && !double:
			single = !single
			inWord = true
		case r == '"' && !single:
			double = !double
			inWord = true
		case (r == ' ' || r == '\t' || r == '\n') && !single && !double:
			if inWord {
				tokens = append(tokens, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if inWord {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

var urlPathPattern = regexp.MustCompile(`^(?:[a-zA-Z]+://[^/]+|\{\{[^}]+\}\})(/[^?#]*)?`)
var nonIdentifier = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Name derives a request name such as "get-users-42" from the method and
// URL path.
func (c *Command) Name() string {
	path := ""
	if m := urlPathPattern.FindStringSubmatch(c.URL); len(m) > 1 {
		path = m[1]
	}
	path = strings.Trim(nonIdentifier.ReplaceAllString(path, "-"), "-")
	if path == "" {
		path = "root"
	}
	return strings.ToLower(c.Method) + "-" + strings.ToLower(path)
}
