// Package web embeds the dashboard templates and static assets.
package web

import "embed"

// TemplatesFS holds templates/*.html; layout.html wraps every page.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
