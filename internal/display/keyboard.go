package display

import (
	"bufio"
	"os"

	"golang.org/x/term"
)

// interruptByte is ETX (Ctrl+C). Raw mode disables ISIG, so the terminal
// driver never turns this byte into SIGINT; watchEnter must recognize it
// itself.
const interruptByte = 0x03

// watchEnter runs in its own goroutine, putting stdin into raw mode and
// blocking on keystroke reads; on Enter it signals confirmed, on Ctrl+C it
// signals cancelled. On any read error (stdin closed) it returns without
// signaling either. Mirrors titan_display.py's dedicated input thread.
func watchEnter(confirmed chan<- struct{}, cancelled chan<- struct{}) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, oldState)

	reader := bufio.NewReader(os.Stdin)
	for {
		r, _, err := reader.ReadRune()
		if err != nil {
			return
		}
		switch r {
		case '\r', '\n':
			select {
			case confirmed <- struct{}{}:
			default:
			}
			return
		case interruptByte:
			select {
			case cancelled <- struct{}{}:
			default:
			}
			return
		}
	}
}
