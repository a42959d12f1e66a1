package sh

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"reflect"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/crsf.go/pkg/env"
	fx "github.com/robotalks/crsf.go/pkg/framework"
	"github.com/robotalks/crsf.go/pkg/telemetry/msgs"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *env.Config
	Loop   *ConnLoop
}

// ConnLoop is a running loop over the opened links.
type ConnLoop struct {
	Ctx    context.Context
	Cancel func()
	Env    *env.Env
	Loop   *fx.Loop

	done chan struct{}
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// EnvFrom gets the connected Env from ishell context, nil if not
// connected.
func EnvFrom(c *ishell.Context) *env.Env {
	if s := ShellFrom(c); s.Loop != nil {
		return s.Loop.Env
	}
	return nil
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Loop == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatMessage renders a message as JSON or as "Type fields" text.
func FormatMessage(msg msgs.SerializableMessage, asJSON bool) (string, error) {
	if asJSON {
		out, err := msgs.EncodeJSON(msg)
		return string(out), err
	}
	return fmt.Sprintf("%s %s",
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		msg.String()), nil
}

// PrintMessage prints a message in the output format of the shell.
func PrintMessage(c *ishell.Context, msg msgs.SerializableMessage) {
	out, err := FormatMessage(msg, ShellFrom(c).OutputJSON)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(out)
}

// PrintResult prints OK or the error.
func PrintResult(c *ishell.Context, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	if ShellFrom(c).OutputJSON {
		c.Println(`{"ok":true}`)
		return
	}
	c.Println("OK")
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the links in Config and runs them in a loop. An existing
// connection is closed first.
func (s *Shell) Connect() error {
	s.Disconnect()
	e, err := s.Config.NewEnv()
	if err != nil {
		return err
	}
	connLoop := &ConnLoop{Env: e, Loop: fx.NewLoop(), done: make(chan struct{})}
	connLoop.Ctx, connLoop.Cancel = context.WithCancel(context.Background())
	e.AddToLoop(connLoop.Loop)
	s.Loop = connLoop
	go func() {
		defer close(connLoop.done)
		if err := connLoop.Loop.Run(connLoop.Ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("loop stopped: %v", err)
		}
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", s.Config.Port))
	return nil
}

// Disconnect stops the loop and closes the links.
func (s *Shell) Disconnect() {
	if s.Loop != nil {
		s.Loop.Cancel()
		<-s.Loop.done
		s.Loop.Env.Close()
		s.Loop = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disconnect()
	if s.AutoConnect && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Port)
		}
		if err := s.Connect(); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Port, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd opens the links, optionally on another port.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[PORT [BACKUP_PORT]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) > 0 {
				s.Config.Port = c.Args[0]
				s.Config.BackupPort = ""
				if len(c.Args) > 1 {
					s.Config.BackupPort = c.Args[1]
				}
			}
			if err := s.Connect(); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd closes the links.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
