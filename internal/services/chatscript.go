package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"
	"unicode/utf8"
)

// SessionTag is the bot identity sent in every frame.
const SessionTag = "bot"

// ChatScriptClient performs one request/reply exchange per call over a fresh
// TCP connection. It holds no connection state and is safe for concurrent use.
type ChatScriptClient struct {
	addr          string
	timeout       time.Duration
	maxReplyBytes int
	logger        *slog.Logger
}

func NewChatScriptClient(addr string, timeout time.Duration, maxReplyBytes int) *ChatScriptClient {
	return &ChatScriptClient{
		addr:          addr,
		timeout:       timeout,
		maxReplyBytes: maxReplyBytes,
	}
}

// WithLogger sets the logger used for per-exchange debug events. Without
// one, slog.Default() is used.
func (c *ChatScriptClient) WithLogger(logger *slog.Logger) *ChatScriptClient {
	c.logger = logger
	return c
}

func (c *ChatScriptClient) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// Addr returns the backend address in host:port form.
func (c *ChatScriptClient) Addr() string {
	return c.addr
}

// EncodeFrame builds the wire frame user\0bot\0message\0.
func EncodeFrame(user, message string) []byte {
	frame := make([]byte, 0, len(user)+len(SessionTag)+len(message)+3)
	frame = append(frame, user...)
	frame = append(frame, 0)
	frame = append(frame, SessionTag...)
	frame = append(frame, 0)
	frame = append(frame, message...)
	frame = append(frame, 0)
	return frame
}

// Query sends one frame and returns the decoded reply. The timeout bounds the
// dial and, as a single connection deadline, the write and every read.
// Cancelling ctx interrupts the exchange. The connection is always closed.
func (c *ChatScriptClient) Query(ctx context.Context, user, message string) (string, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return "", &BackendError{Err: err}
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", &BackendError{Err: err}
	}

	// Expire the deadline early if the caller goes away.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write(EncodeFrame(user, message)); err != nil {
		return "", &BackendError{Err: err}
	}

	raw, atDeadline, err := readReply(conn, c.maxReplyBytes)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", &BackendError{Err: ctxErr}
	}
	if err != nil {
		return "", &BackendError{Err: err}
	}
	if atDeadline {
		c.log().Debug("chatscript reply ended at deadline, may be truncated",
			"chatscript", c.addr,
			"bytes", len(raw),
			"timeout", c.timeout,
		)
	}

	reply, err := DecodeReply(raw)
	if err != nil {
		return "", &BackendError{Err: err}
	}
	return reply, nil
}

// readReply reads until EOF, until the data ends in a NUL terminator after
// some content, or until the deadline fires once at least one byte arrived.
// More than limit bytes is an error rather than a truncated reply. atDeadline
// reports that the reply was cut off by the deadline rather than terminated.
func readReply(conn net.Conn, limit int) (data []byte, atDeadline bool, err error) {
	buf := make([]byte, limit+1)
	total := 0

	for {
		n, readErr := conn.Read(buf[total:])
		total += n

		if total > limit {
			return nil, false, fmt.Errorf("reply exceeds %d bytes", limit)
		}
		if replyComplete(buf[:total]) {
			return buf[:total], false, nil
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return buf[:total], false, nil
			}
			var netErr net.Error
			if errors.As(readErr, &netErr) && netErr.Timeout() && total > 0 {
				return buf[:total], true, nil
			}
			return nil, false, readErr
		}
	}
}

func replyComplete(data []byte) bool {
	n := len(data)
	return n > 0 && data[n-1] == 0 && len(bytes.Trim(data, "\x00")) > 0
}

// DecodeReply turns raw reply bytes into reply text: NUL padding is stripped,
// the last non-blank NUL-delimited field is kept (servers that echo the
// user\0bot\0 header put the text last) and surrounding whitespace is trimmed.
func DecodeReply(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", errors.New("reply is not valid UTF-8")
	}

	fields := strings.Split(strings.Trim(string(raw), "\x00"), "\x00")
	for i := len(fields) - 1; i >= 0; i-- {
		if text := strings.TrimSpace(fields[i]); text != "" {
			return text, nil
		}
	}
	return "", nil
}
