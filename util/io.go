package util

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Writer buffers fixed-column target-instruction lines in a strings.Builder. When Flush or Close is
// called the buffer is emptied and sent to the assigned output listener through channel c, the same
// hand-off the teacher's util.Writer uses so independent method compilations can write concurrently
// without a shared lock.
type Writer struct {
	sb strings.Builder
	c  chan string
}

// ---------------------
// ----- Constants -----
// ---------------------

var wc chan string     // Write channel used for receiving data from worker goroutines.
var cc chan error      // Close channel used by the main goroutine to stop the listener.
var wg *sync.WaitGroup // Synchronizes completion of all writers before the listener exits.

// ---------------------
// ----- Functions -----
// ---------------------

// Comment writes a "# name descriptor" method header line (spec.md §6 output contract).
func (w *Writer) Comment(format string, args ...interface{}) {
	w.sb.WriteString("# ")
	w.sb.WriteString(fmt.Sprintf(format, args...))
	w.sb.WriteRune('\n')
}

// Instruction writes one fixed-column target instruction line: pc, mnemonic, up to three operands
// and a trailing comment.
func (w *Writer) Instruction(pc int, mnemonic string, operands []string, comment string) {
	ops := strings.Join(operands, ",")
	w.sb.WriteString(fmt.Sprintf("%6d  %-8s %-16s # %s\n", pc, mnemonic, ops, comment))
}

// WriteString writes a plain string to the Writer's buffer.
func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// String returns the Writer's buffered text without flushing it to the output listener.
func (w *Writer) String() string {
	return w.sb.String()
}

// Flush empties the Writer's buffer and sends the buffered data to the designated output listener
// over the Writer's channel.
func (w *Writer) Flush() {
	w.c <- w.sb.String()
	w.sb = strings.Builder{}
}

// Close flushes the Writer's buffer and signals completion to the listener's wait group.
func (w *Writer) Close() {
	w.Flush()
	w.c = nil
	wg.Done()
}

// NewWriter returns a new Writer for a worker goroutine to write assembly text concurrently into
// the shared output buffer. Must not be called before ListenWrite.
func NewWriter() Writer {
	wg.Add(1)
	return Writer{
		sb: strings.Builder{},
		c:  wc,
	}
}

// ReadSource reads the class-file view JSON from the path in Options, or from stdin if no path was
// given.
func ReadSource(opt Options) ([]byte, error) {
	if len(opt.Src) > 0 {
		return os.ReadFile(opt.Src)
	}
	b, err := readAllStdin()
	if err != nil || len(b) == 0 {
		return nil, errors.New("expected input from stdin, got none")
	}
	return b, nil
}

// readAllStdin reads everything available on stdin.
func readAllStdin() ([]byte, error) {
	reader := bufio.NewReader(os.Stdin)
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if err != nil {
			return out, nil
		}
	}
}

// ListenWrite listens for worker goroutine output. The received text is written to file f if it is
// not nil, or to stdout otherwise. The goroutine loops until Close is called.
func ListenWrite(opt Options, f *os.File, wgg *sync.WaitGroup) {
	wg = wgg
	if opt.Threads > 1 {
		wc = make(chan string, opt.Threads+1)
	} else {
		wc = make(chan string, 1)
	}
	cc = make(chan error, 1)
	var w *bufio.Writer
	if f != nil {
		w = bufio.NewWriter(f)
	} else {
		w = bufio.NewWriter(os.Stdout)
	}

	go func(wc chan string, cc chan error) {
		defer close(wc)
		defer close(cc)
		for {
			select {
			case s := <-wc:
				if _, err := w.WriteString(s); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				}
				if err := w.Flush(); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %s\n", err)
				}
			case <-cc:
				return
			}
		}
	}(wc, cc)
}

// Close sends the termination signal to the writer listener goroutine.
func Close() {
	cc <- nil
}
