// Package terminal owns the terminal device: mode entry/exit, input polling and frame output.
//
// Features:
//   - Raw mode, alternate screen, mouse, focus, bracketed paste and kitty keyboard modes
//   - Modes entered in fixed order and unwound in strict reverse order
//   - Non-blocking input drain with escape sequence, paste and UTF-8 carry-over between polls
//   - SIGWINCH resize detection folded into the poll stream
//   - Cell buffer with diffing output writer
//   - Alternative tcell-backed handle for terminfo-driven output
//
// The ANSI handle bypasses terminfo/termcap and emits direct xterm sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
