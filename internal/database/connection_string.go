package database

import (
	"net/url"
	"strings"
)

// buildConnectionString generates a SQLite connection URI from options.
// Only parameters SQLite itself understands at the URI level belong here;
// every PRAGMA-backed option is applied after the connection opens (see
// applyPragmas), which keeps the string portable across drivers.
func (opts *SQLiteOptions) buildConnectionString() string {
	params := url.Values{}

	if opts.Mode != "" {
		params.Set("mode", opts.Mode)
	}
	if opts.Cache != "" {
		params.Set("cache", string(opts.Cache))
	}
	if opts.Immutable {
		params.Set("immutable", "true")
	}

	connStr := opts.Path
	if !strings.HasPrefix(connStr, "file:") {
		connStr = "file:" + connStr
	}
	if encoded := params.Encode(); encoded != "" {
		connStr += "?" + encoded
	}

	return connStr
}
