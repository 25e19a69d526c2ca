// Package main hosts the SlateLink CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the resolution engine through
// resolve, export, inspect, and history commands plus configuration
// scaffolding. It centralizes configuration resolution, structured logging
// setup, and journal access so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
