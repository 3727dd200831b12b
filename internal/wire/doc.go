// Package wire implements the length-prefixed framing spoken with the spring
// preloader and the JSON payloads carried inside those frames.
//
// A frame is the payload length in ASCII decimal, one newline, then exactly
// that many payload bytes with no terminator. The same framing is used on the
// control socket (carrying {"args": [...], "env": ...}) and on the
// per-command application channel (carrying the bare command array).
package wire
