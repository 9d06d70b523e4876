package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/httper/httper/packages/core/parser"
)

// formStream encodes a form into a pipe while the transport reads from it,
// so file parts are copied straight from disk to the connection.
type formStream struct {
	*io.PipeReader
	contentType string
	done        chan struct{}
}

func newFormStream(form *parser.Form) *formStream {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	s := &formStream{
		PipeReader:  pr,
		contentType: mw.FormDataContentType(),
		done:        make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		err := writeForm(mw, form)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	return s
}

// Close stops the encoder and waits for it to exit. It may be called more
// than once.
func (s *formStream) Close() error {
	err := s.PipeReader.Close()
	<-s.done
	return err
}

func writeForm(mw *multipart.Writer, form *parser.Form) error {
	for _, name := range form.Names() {
		part, _ := form.Get(name)
		if err := part.Validate(); err != nil {
			return fmt.Errorf("form part %q: %w", name, err)
		}

		w, err := mw.CreatePart(partHeader(name, part))
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, part.Content.Reader()); err != nil {
			return fmt.Errorf("writing form part %q: %w", name, err)
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func partHeader(name string, part *parser.FormPart) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	for k, v := range part.Headers {
		h.Set(k, v)
	}

	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(name))
	if part.Filename != "" {
		disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(part.Filename))
	}
	h.Set("Content-Disposition", disposition)
	return h
}
