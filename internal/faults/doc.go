// Package faults defines the error markers shared by the protocol engine and
// the CLI.
//
// Every failure raised by the engine wraps exactly one of the exported
// sentinels so callers can classify it with errors.Is. Wrap stamps the
// component and operation that failed onto the message, and Kind/ExitCode
// translate a wrapped error back into a stable label for command output.
package faults
