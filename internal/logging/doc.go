// Package logging builds slog loggers for the resolver CLI and library code.
//
// It offers a console handler tuned for interactive use, a JSON handler for
// machine consumption, attribute helpers so call sites stay terse, and
// component-tagged child loggers. Library packages accept a *slog.Logger and
// fall back to a nop logger when given nil, keeping logging optional for
// embedders.
package logging
