// Package spring speaks the client side of the spring preloader protocol.
//
// A Session connects to the daemon's control socket, checks the version
// greeting, hands the daemon one end of a fresh socket pair (the application
// channel) using SCM_RIGHTS, sends the {"args", "env"} control frame, relays
// the client's stdout, stderr and stdin descriptors over the application
// channel, writes the bare command frame, and finally waits on the channel
// until the daemon replies or hangs up. Command output never flows through
// this package: the daemon writes directly to the relayed descriptors.
//
// Every descriptor the session creates is closed on every exit path. Errors
// carry a Kind so the CLI can map them onto distinct exit codes.
package spring
