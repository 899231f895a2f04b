// services/shell/shell.go

// Package shell provides a small line-oriented command monitor on top of the
// console: echo, rubout, shlex word splitting and a registry of command
// handlers. It is the piece that turns a raw getchar/putstring console into
// something a human can type at.
package shell

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"
	"tinygo.org/x/drivers"

	"console-go/bus"
	"console-go/errcode"
	"console-go/services/console"
	"console-go/types"
	"console-go/x/fmtx"
	"console-go/x/mathx"
	"console-go/x/strconvx"
	"console-go/x/timex"
)

// Handler executes one command. argv[0] is the command name.
type Handler func(sh *Shell, argv []string) error

type Config struct {
	Prompt  string // default "> "
	MaxLine int    // clamp 16..256
	NoEcho  bool   // suppress input echo (e.g. when driven by a machine)
}

type command struct {
	help string
	fn   Handler
}

type Shell struct {
	con  *console.Console
	conn *bus.Connection // optional; nil disables event publishing
	cfg  Config

	cmds  map[string]command
	i2c   map[string]drivers.I2C
	start time.Time
}

// New builds a shell over con. conn may be nil.
func New(con *console.Console, conn *bus.Connection, cfg Config) *Shell {
	if cfg.Prompt == "" {
		cfg.Prompt = "> "
	}
	if cfg.MaxLine == 0 {
		cfg.MaxLine = 128
	}
	cfg.MaxLine = mathx.Clamp(cfg.MaxLine, 16, 256)

	sh := &Shell{
		con:   con,
		conn:  conn,
		cfg:   cfg,
		cmds:  map[string]command{},
		i2c:   map[string]drivers.I2C{},
		start: time.Now(),
	}
	sh.registerBuiltins()
	return sh
}

// Register adds or replaces a command.
func (sh *Shell) Register(name, help string, fn Handler) {
	sh.cmds[name] = command{help: help, fn: fn}
}

// RegisterI2C exposes an I²C bus to the `i2c` monitor command.
func (sh *Shell) RegisterI2C(id string, b drivers.I2C) {
	sh.i2c[id] = b
}

// Printf writes formatted output through the console (LF becomes CRLF on
// the wire).
func (sh *Shell) Printf(format string, a ...any) {
	_ = sh.con.PutString(fmtx.Sprintf(format, a...))
}

// Run reads and dispatches lines until ctx is cancelled.
func (sh *Shell) Run(ctx context.Context) error {
	for {
		_ = sh.con.PutString(sh.cfg.Prompt)
		line, err := sh.readLine(ctx)
		if err != nil {
			return err
		}
		sh.publishLine(line)
		sh.dispatch(line)
		sh.publishStats()
	}
}

// readLine assembles one input line: CR or LF terminates, backspace/DEL rubs
// out, input beyond MaxLine is discarded.
func (sh *Shell) readLine(ctx context.Context) (string, error) {
	var line []byte
	for {
		b, err := sh.con.GetCharContext(ctx)
		if err != nil {
			return "", err
		}
		switch {
		case b == '\r' || b == '\n':
			sh.echo("\n")
			return string(line), nil
		case b == 0x08 || b == 0x7F: // BS / DEL
			if len(line) > 0 {
				line = line[:len(line)-1]
				sh.echo("\b \b")
			}
		case b < 0x20: // other control bytes are ignored
		case len(line) < sh.cfg.MaxLine:
			line = append(line, b)
			sh.echo(string(b))
		}
	}
}

func (sh *Shell) echo(s string) {
	if !sh.cfg.NoEcho {
		_ = sh.con.PutString(s)
	}
}

func (sh *Shell) dispatch(line string) {
	argv, err := shlex.Split(line)
	if err != nil {
		sh.Printf("parse error: %s\n", err.Error())
		return
	}
	if len(argv) == 0 {
		return
	}
	cmd, ok := sh.cmds[argv[0]]
	if !ok {
		sh.Printf("%s: %s\n", string(errcode.UnknownCommand), argv[0])
		return
	}
	if err := cmd.fn(sh, argv); err != nil {
		sh.Printf("error: %s\n", err.Error())
	}
}

// ---------------- bus events ----------------

func (sh *Shell) publishLine(line string) {
	if sh.conn == nil || line == "" {
		return
	}
	sh.conn.Publish(sh.conn.NewMessage(
		bus.T("console", "shell", "line"),
		types.ShellLine{Line: line, TS: timex.NowMs()},
		false,
	))
}

func (sh *Shell) publishStats() {
	if sh.conn == nil {
		return
	}
	sh.conn.Publish(sh.conn.NewMessage(
		bus.T("console", "stats"),
		sh.con.Stats(),
		true,
	))
}

// ---------------- builtins ----------------

func (sh *Shell) registerBuiltins() {
	sh.Register("help", "list commands", cmdHelp)
	sh.Register("echo", "print arguments", cmdEcho)
	sh.Register("uptime", "time since shell start", cmdUptime)
	sh.Register("stat", "console receive-path counters", cmdStat)
	sh.Register("i2c", "i2c <bus> <addr> <reg> [n] — read n register bytes", cmdI2C)
}

func cmdHelp(sh *Shell, _ []string) error {
	names := make([]string, 0, len(sh.cmds))
	for name := range sh.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sh.Printf("%s\t%s\n", name, sh.cmds[name].help)
	}
	return nil
}

func cmdEcho(sh *Shell, argv []string) error {
	sh.Printf("%s\n", strings.Join(argv[1:], " "))
	return nil
}

func cmdUptime(sh *Shell, _ []string) error {
	ms := timex.SinceMs(sh.start)
	sh.Printf("up %d.%ds\n", ms/1000, (ms%1000)/100)
	return nil
}

func cmdStat(sh *Shell, _ []string) error {
	st := sh.con.Stats()
	sh.Printf("rx %d dropped %d delivered %d buffered %d\n",
		st.Received, st.Dropped, st.Delivered, st.Buffered)
	return nil
}

func cmdI2C(sh *Shell, argv []string) error {
	if len(argv) < 4 {
		return &errcode.E{C: errcode.InvalidParams, Op: "i2c", Msg: "usage: i2c <bus> <addr> <reg> [n]"}
	}
	b, ok := sh.i2c[argv[1]]
	if !ok {
		return &errcode.E{C: errcode.InvalidParams, Op: "i2c", Msg: "unknown bus " + argv[1]}
	}
	addr, err := strconvx.ParseUint(argv[2], 0, 16)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "i2c", Msg: "bad address", Err: err}
	}
	reg, err := strconvx.ParseUint(argv[3], 0, 8)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "i2c", Msg: "bad register", Err: err}
	}
	n := uint64(1)
	if len(argv) > 4 {
		if n, err = strconvx.ParseUint(argv[4], 0, 8); err != nil || n == 0 || n > 32 {
			return &errcode.E{C: errcode.InvalidParams, Op: "i2c", Msg: "bad count"}
		}
	}
	buf := make([]byte, n)
	if err := b.Tx(uint16(addr), []byte{byte(reg)}, buf); err != nil {
		return &errcode.E{C: errcode.Error, Op: "i2c", Err: err}
	}
	for i, v := range buf {
		if i > 0 {
			sh.Printf(" ")
		}
		sh.Printf("%x", v)
	}
	sh.Printf("\n")
	return nil
}
