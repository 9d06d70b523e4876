package parser

import "strings"

const (
	schemeBearer = "Bearer"
	schemeBasic  = "Basic"
)

// ResolveAuth converts an Authorization header value into an auth directive.
// It returns nil for schemes other than Bearer and Basic so the caller keeps
// the header as is.
//
// Basic credentials are written as "Basic <username> <password>".
func ResolveAuth(value string) (*Auth, error) {
	value = strings.TrimSpace(value)

	switch {
	case strings.HasPrefix(value, schemeBearer):
		return &Auth{
			Type:  AuthBearer,
			Token: strings.TrimSpace(strings.TrimPrefix(value, schemeBearer)),
		}, nil
	case strings.HasPrefix(value, schemeBasic):
		credentials := strings.TrimSpace(strings.TrimPrefix(value, schemeBasic))
		username, password, ok := strings.Cut(credentials, " ")
		if !ok {
			return nil, newParseError(ErrInvalidHeader, 0, value)
		}
		return &Auth{
			Type:     AuthBasic,
			Username: username,
			Password: password,
		}, nil
	default:
		return nil, nil
	}
}
