// Package web holds the dashboard's HTML templates and static assets.
package web

import "embed"

// TemplatesFS holds the page and partial templates. Every file defines
// named templates; the file names themselves are never executed.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds style.css and app.js, served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
