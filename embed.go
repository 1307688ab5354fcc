package main

import "embed"

// webFiles embeds the dashboard pages and assets for single-binary
// deployment.
//
//go:embed all:web
var webFiles embed.FS
