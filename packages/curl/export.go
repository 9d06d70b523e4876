package curl

import (
	"fmt"
	"strings"

	"github.com/httper/httper/packages/core/parser"
)

// FromRequest renders a parsed request as a curl command line. File
// references in multipart bodies become -F name=@path arguments; the files
// themselves are not read.
func FromRequest(req *parser.Request) string {
	args := []string{"curl"}
	if req.Method != "GET" {
		args = append(args, "-X", req.Method)
	}

	switch {
	case req.Version == parser.HTTP10:
		args = append(args, "--http1.0")
	case req.Version == parser.HTTP11 && req.URL.Scheme == "https":
		args = append(args, "--http1.1")
	case req.Version == parser.HTTP2 && req.URL.Scheme == "http":
		args = append(args, "--http2-prior-knowledge")
	}

	for _, h := range req.Headers {
		args = append(args, "-H", quote(h.Key+": "+h.Value))
	}

	if req.Auth != nil {
		switch req.Auth.Type {
		case parser.AuthBasic:
			args = append(args, "-u", quote(req.Auth.Username+":"+req.Auth.Password))
		case parser.AuthBearer:
			args = append(args, "-H", quote("Authorization: Bearer "+req.Auth.Token))
		}
	}

	if body := req.Body; body != nil {
		if body.Type == parser.BodyMultipart {
			for _, name := range body.Form.Names() {
				part, _ := body.Form.Get(name)
				args = append(args, "-F", quote(formArgument(name, part)))
			}
		} else {
			if req.ContentType != "" {
				args = append(args, "-H", quote("Content-Type: "+req.ContentType))
			}
			args = append(args, "--data-raw", quote(string(body.Raw)))
		}
	} else if req.ContentType != "" {
		args = append(args, "-H", quote("Content-Type: "+req.ContentType))
	}

	args = append(args, quote(req.URL.String()))
	return strings.Join(args, " ")
}

func formArgument(name string, part *parser.FormPart) string {
	switch c := part.Content.(type) {
	case *parser.FileContent:
		arg := fmt.Sprintf("%s=@%s", name, c.Path)
		if part.Filename != "" && part.Filename != baseName(c.Path) {
			arg += ";filename=" + part.Filename
		}
		return arg
	case parser.TextContent:
		return name + "=" + string(c)
	case parser.BytesContent:
		return name + "=" + string(c)
	default:
		return name + "="
	}
}

// quote wraps s in single quotes for a POSIX shell when it contains anything
// beyond a safe set of characters.
func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, unsafeShellRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:=@,+%", r)
}
