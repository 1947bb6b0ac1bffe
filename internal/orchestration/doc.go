// Package orchestration drives the dispatcher on behalf of the user
// interfaces. Its Controller owns the current problem selection and the
// running benchmark sample, and keeps presentation out of the core via the
// ResultPresenter and BenchmarkReporter interfaces.
package orchestration
