package bench

import (
	"fmt"
	"os"

	"github.com/httper/httper/packages/core/parser"
)

// FileRequestFactory reads path once and returns a factory that re-parses it
// on every call after applying resolve, so dynamic variables change per
// iteration. The request named name is selected,
// or the first request when name is empty. The file is parsed once up front
// so that errors surface before the run starts.
func FileRequestFactory(path, name string, resolve func(string) string) (RequestFactory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(data)

	factory := func() (*parser.Request, error) {
		input := content
		if resolve != nil {
			input = resolve(input)
		}
		file, err := parser.Parse(input, path)
		if err != nil {
			return nil, err
		}
		return pick(file, name)
	}

	req, err := factory()
	if err != nil {
		return nil, err
	}
	if err := req.Close(); err != nil {
		return nil, err
	}
	return factory, nil
}

// pick keeps the selected request and closes the others.
func pick(file *parser.File, name string) (*parser.Request, error) {
	var selected *parser.Request
	for _, req := range file.Requests {
		if selected == nil && (name == "" || req.Name == name) {
			selected = req
			continue
		}
		_ = req.Close()
	}
	if selected == nil {
		return nil, fmt.Errorf("no request named %q in %s", name, file.Path)
	}
	return selected, nil
}
