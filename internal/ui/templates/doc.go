// Package templates holds the dashboard page components. Edit the .templ
// sources and regenerate with `templ generate`.
package templates
