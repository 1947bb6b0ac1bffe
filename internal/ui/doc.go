// Package ui holds the color themes shared by the terminal presenters and
// the TUI dashboard. ANSI helpers read the active theme, so a single InitTheme call
// at startup switches every presenter to plain output.
package ui
