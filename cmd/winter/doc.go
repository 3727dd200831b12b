// Package main hosts the winter CLI entrypoint and command graph.
//
// Forwarding commands (cucumber, rails, rake, rspec, testunit) hand the
// invocation to a running spring preloader over its control socket and relay
// the terminal's standard descriptors so the command's output appears here.
// status inspects the daemon's PID file without connecting. Configuration
// and logging are resolved once per invocation by commandContext.
package main
