// Package token loads the bearer token used to call the upstream service.
//
// The token lives in a small JSON file, {"token": "..."}, that is rotated
// out of band. It is read again on every call so that a rotated token is
// used on the next call without a restart.
package token

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

const component = "token"

// Source supplies the current upstream bearer token.
type Source interface {
	Token() (string, error)
}

// File reads the token from a JSON file.
type File struct {
	Path string
}

// NewFile returns a File for path, or for the default token file when path
// is empty.
func NewFile(path string) *File {
	if path == "" {
		path = constants.DefaultTokenFile
	}
	return &File{Path: path}
}

type document struct {
	Token *string `json:"token"`
}

// Token reads and returns the token. Any problem with the file is reported
// as an *errors.ConfigError.
func (f *File) Token() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewConfigError(component, "token file "+f.Path+" not found", err)
		}
		return "", errors.NewConfigError(component, "cannot read token file "+f.Path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", errors.NewConfigError(component, "malformed token file "+f.Path,
			errors.WrapParse("json", f.Path, err))
	}
	if doc.Token == nil {
		return "", errors.NewConfigError(component, `token file `+f.Path+` has no "token" field`, nil)
	}

	tok := strings.TrimSpace(*doc.Token)
	if tok == "" {
		return "", errors.NewConfigError(component, "token file "+f.Path+" holds an empty token", nil)
	}
	return tok, nil
}

// Static is a fixed token, for tests and one-off commands.
type Static string

// Token returns the fixed token.
func (s Static) Token() (string, error) {
	if s == "" {
		return "", errors.NewConfigError(component, "no token configured", nil)
	}
	return string(s), nil
}
