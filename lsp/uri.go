package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// sourceExtensions are the file extensions this server analyzes. Anything
// else (editorconfig, markdown notes living alongside a design, etc.) is
// acknowledged by didOpen/didChange/didClose but never parsed or indexed.
var sourceExtensions = map[string]bool{
	".sv":  true,
	".svh": true,
	".v":   true,
	".vh":  true,
}

// isSourceURI reports whether uri refers to a file this server analyzes.
func isSourceURI(uri string) bool {
	path, err := URIToPath(uri)
	if err != nil {
		return false
	}
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// URIToPath converts a file:// URI to a filesystem path.
//
// On POSIX systems: file:///path/to/file → /path/to/file
// On Windows: file:///C:/path/to/file → C:\path\to\file
//
// UNC paths are not currently supported on Windows.
func URIToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse URI %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("not a file URI: %s", uri)
	}

	path := u.Path

	if runtime.GOOS == "windows" {
		if len(path) >= 3 && path[0] == '/' && isWindowsDriveLetter(path[1]) && path[2] == ':' {
			path = path[1:]
		}
		path = filepath.FromSlash(path)
	}

	return path, nil
}

// PathToURI converts a filesystem path to a file:// URI.
//
// On POSIX systems: /path/to/file → file:///path/to/file
// On Windows: C:\path\to\file → file:///C:/path/to/file
//
// UNC paths are not currently supported on Windows.
func PathToURI(path string) string {
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err == nil {
			path = absPath
		}
	}

	path = filepath.ToSlash(path)

	if runtime.GOOS == "windows" && len(path) >= 2 && isWindowsDriveLetter(path[0]) && path[1] == ':' {
		path = "/" + path
	}

	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	return u.String()
}

// isWindowsDriveLetter reports whether c is a valid Windows drive letter (A-Z, a-z).
func isWindowsDriveLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
