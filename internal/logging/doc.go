// Package logging provides the structured logging facade shared by the
// dispatcher, the execution unit host and the front ends. Entries are
// produced by zerolog; callers only see the Logger interface and Field
// helpers.
package logging
