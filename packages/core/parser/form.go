package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Form maps part names to parts. Names() reports the order in which names
// were first seen so the wire encoding is deterministic.
type Form struct {
	names []string
	parts map[string]*FormPart
}

func NewForm() *Form {
	return &Form{parts: make(map[string]*FormPart)}
}

// Set stores part under name. A part already stored under the same name is
// replaced and its file handle, if any, is released.
func (f *Form) Set(name string, part *FormPart) {
	if old, ok := f.parts[name]; ok {
		_ = old.Close()
	} else {
		f.names = append(f.names, name)
	}
	f.parts[name] = part
}

func (f *Form) Get(name string) (*FormPart, bool) {
	p, ok := f.parts[name]
	return p, ok
}

func (f *Form) Names() []string {
	return append([]string(nil), f.names...)
}

func (f *Form) Len() int {
	return len(f.parts)
}

func (f *Form) Close() error {
	var result *multierror.Error
	for _, name := range f.names {
		if err := f.parts[name].Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("form part %q: %w", name, err))
		}
	}
	return result.ErrorOrNil()
}

// FormPart is one named unit of a multipart body. Headers never carries
// Content-Type.
type FormPart struct {
	Content  PartContent
	Filename string
	Headers  map[string]string
}

// Validate reports ErrEmptyBody for a part that has no content at all.
func (p *FormPart) Validate() error {
	if p == nil || p.Content == nil {
		return ErrEmptyBody
	}
	return nil
}

func (p *FormPart) Close() error {
	if p == nil {
		return nil
	}
	if c, ok := p.Content.(*FileContent); ok {
		return c.Close()
	}
	return nil
}

// PartContent is exactly one of TextContent, BytesContent or *FileContent.
type PartContent interface {
	// Reader returns the content as a stream. File content can be read once.
	Reader() io.Reader
	partContent()
}

type TextContent string

func (c TextContent) Reader() io.Reader { return strings.NewReader(string(c)) }
func (TextContent) partContent()        {}

type BytesContent []byte

func (c BytesContent) Reader() io.Reader { return bytes.NewReader(c) }
func (BytesContent) partContent()        {}

// FileContent is an open handle on a referenced file. It is read
// sequentially when the request is sent and must be closed afterwards.
type FileContent struct {
	Path   string
	file   *os.File
	closed bool
}

func (c *FileContent) Reader() io.Reader { return c.file }
func (*FileContent) partContent()        {}

func (c *FileContent) Close() error {
	if c.closed || c.file == nil {
		return nil
	}
	c.closed = true
	return c.file.Close()
}
