package bustub

import _ "embed"

// Version is the release of the shell.
//
//go:embed VERSION
var Version string
