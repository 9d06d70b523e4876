package curl

import (
	"fmt"
	"io"
	"strings"
)

// FormBoundary is the multipart boundary written into converted requests.
const FormBoundary = "httper-form-boundary"

// HTTP renders the command as a single .http request, including its
// "### name" separator.
func (c *Command) HTTP() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n", c.Name())
	if c.Insecure {
		sb.WriteString("# converted from curl --insecure; send with httper -k\n")
	}

	sb.WriteString(c.Method)
	sb.WriteString(" ")
	sb.WriteString(c.URL)
	if c.HTTP2 {
		sb.WriteString(" HTTP/2")
	}
	sb.WriteString("\n")

	for _, h := range c.Headers {
		if len(c.Form) > 0 && strings.EqualFold(h.Name, "Content-Type") {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", h.Name, h.Value)
	}

	if c.User != "" && c.Header("Authorization") == "" {
		if user, password, ok := strings.Cut(c.User, ":"); ok {
			fmt.Fprintf(&sb, "Authorization: Basic %s %s\n", user, password)
		}
	}

	switch {
	case len(c.Form) > 0:
		fmt.Fprintf(&sb, "Content-Type: multipart/form-data; boundary=%s\n\n", FormBoundary)
		for _, f := range c.Form {
			writePart(&sb, f)
		}
		fmt.Fprintf(&sb, "--%s--\n", FormBoundary)

	case len(c.Data) > 0:
		if c.Header("Content-Type") == "" {
			sb.WriteString("Content-Type: application/x-www-form-urlencoded\n")
		}
		sb.WriteString("\n")
		sb.WriteString(c.Body())
		sb.WriteString("\n")
	}

	return sb.String()
}

func writePart(sb *strings.Builder, f FormField) {
	fmt.Fprintf(sb, "--%s\n", FormBoundary)
	fmt.Fprintf(sb, "Content-Disposition: form-data; name=%q", f.Name)
	if f.Filename != "" {
		fmt.Fprintf(sb, "; filename=%q", f.Filename)
	}
	sb.WriteString("\n")
	if f.ContentType != "" {
		fmt.Fprintf(sb, "Content-Type: %s\n", f.ContentType)
	}
	sb.WriteString("\n")

	if f.File {
		fmt.Fprintf(sb, "< %s\n", f.Value)
	} else {
		fmt.Fprintf(sb, "%s\n", f.Value)
	}
}

// WriteHTTP writes commands as one .http file, separated by blank lines.
func WriteHTTP(w io.Writer, commands []*Command) error {
	for i, c := range commands {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, c.HTTP()); err != nil {
			return err
		}
	}
	return nil
}
