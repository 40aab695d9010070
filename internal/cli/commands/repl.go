package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/output"
	"github.com/supaloboto/sisuo/internal/engine"
	"github.com/supaloboto/sisuo/pkg/formula"
)

const (
	replPrompt     = "sisuo> "
	replContPrompt = "  ...> "
	historyFile    = ".sisuo_history"
)

// REPLOptions holds options for the repl command.
type REPLOptions struct {
	Params     []string
	ParamsFile string
	Load       []string
	History    string
}

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	opts := &REPLOptions{}
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Long: `Start an interactive session.

Each line is either a statement (a declaration, a function or an
assignment) that is added to the session, or an expression that is
evaluated and printed. Changing a value with .set re-evaluates every
ref declaration that reads it and lists them; var declarations keep the
value they were declared with.

Lines with unclosed brackets continue on the next line.`,
		Example: `  sisuo repl
  sisuo repl --load invoice.ss --param qty=3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "Bind an external parameter (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.ParamsFile, "params", "", "YAML file of parameter bindings")
	cmd.Flags().StringArrayVar(&opts.Load, "load", nil, "Load a script into the session before the prompt (repeatable)")
	cmd.Flags().StringVar(&opts.History, "history", "", "History file (default: .sisuo_history in the project root)")

	return cmd
}

func runREPL(cmd *cobra.Command, opts *REPLOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	params, err := loadParams(cmdCtx.Cfg, opts.ParamsFile, opts.Params)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st := newREPLState(ctx, cmdCtx.Renderer, cmdCtx.Engine.NewSession(params))
	for _, path := range opts.Load {
		st.handleLine(".load " + path)
	}

	history := opts.History
	if history == "" {
		history = filepath.Join(cmdCtx.Cfg.ProjectRoot, historyFile)
	}

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     history,
		AutoComplete:    newREPLCompleter(cmdCtx.Engine.Runtime().Registry()),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	cmdCtx.Logger.Debug("repl started", "session_id", st.sess.ID(), "history", history)

	// Print welcome message
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "SiSuo REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL loop
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			st.pending.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		if st.handleLine(line) {
			break
		}
		if st.pending.Len() > 0 {
			rl.SetPrompt(replContPrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}

	return nil
}

// replState holds a session and the input still waiting for its closing
// brackets.
type replState struct {
	ctx     context.Context
	r       *output.Renderer
	sess    *engine.Session
	pending strings.Builder
}

func newREPLState(ctx context.Context, r *output.Renderer, sess *engine.Session) *replState {
	return &replState{ctx: ctx, r: r, sess: sess}
}

// handleLine processes one line of input and reports whether the session
// should end.
func (s *replState) handleLine(line string) bool {
	trimmed := strings.TrimSpace(line)

	if s.pending.Len() == 0 {
		if trimmed == "" {
			return false
		}
		// Handle dot-commands
		if strings.HasPrefix(trimmed, ".") {
			return s.handleDotCommand(trimmed)
		}
	}

	if s.pending.Len() > 0 {
		s.pending.WriteString("\n")
	}
	s.pending.WriteString(line)
	if openGroups(s.pending.String()) > 0 {
		return false
	}

	input := s.pending.String()
	s.pending.Reset()
	s.eval(input)
	return false
}

func (s *replState) eval(input string) {
	res, err := s.sess.Eval(input)
	if errors.Is(err, engine.ErrEmptyInput) {
		return
	}
	if err != nil {
		s.r.Error(err.Error())
		return
	}
	if res.HasValue {
		s.r.Println(formula.Format(res.Value))
		return
	}
	if len(res.Declared) > 0 {
		s.r.Muted("declared " + strings.Join(res.Declared, ", "))
	}
}

func (s *replState) handleDotCommand(line string) bool {
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.r.Writer())

	case ".vars":
		s.printVars()

	case ".params":
		s.printParams()

	case ".set":
		s.set(rest)

	case ".reset":
		s.sess.Reset()
		s.r.Muted("session reset")

	case ".load":
		if rest == "" {
			s.r.Error("usage: .load <file>")
			return false
		}
		src, err := readScript(rest)
		if err == nil {
			err = s.sess.Load(src)
		}
		if err != nil {
			s.r.Error(err.Error())
			return false
		}
		s.r.Muted("loaded " + rest)

	default:
		s.r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", command))
	}
	return false
}

// set handles ".set name value" and ".set name=value".
func (s *replState) set(arg string) {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok {
		name, raw, ok = strings.Cut(arg, " ")
	}
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		s.r.Error("usage: .set <name> <value>")
		return
	}
	v := engine.ParseValue(raw)
	if err := s.sess.Set(name, v); err != nil {
		s.r.Error(err.Error())
		return
	}
	s.r.Muted(fmt.Sprintf("%s = %s", name, formula.Format(v)))
	if names, err := s.sess.Recomputed(name); err == nil && len(names) > 0 {
		s.r.Muted("recomputed: " + strings.Join(names, ", "))
	}
}

func (s *replState) printVars() {
	outs, err := s.sess.Outputs(s.ctx)
	if len(outs) == 0 && err == nil {
		s.r.Muted("no declarations")
		return
	}
	rows := make([][]string, 0, len(outs))
	for _, o := range outs {
		rows = append(rows, []string{o.Name, o.Kind.String(), o.Text()})
	}
	s.r.Table([]string{"Name", "Kind", "Value"}, rows)
}

func (s *replState) printParams() {
	params := s.sess.Params()
	if len(params) == 0 {
		s.r.Muted("no parameters")
		return
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, formula.Format(params[name])})
	}
	s.r.Table([]string{"Name", "Value"}, rows)
}

// openGroups returns the number of brackets opened but not closed in s,
// ignoring quoted text. Quotes have no escapes.
func openGroups(s string) int {
	depth := 0
	var closer rune
	for _, c := range s {
		switch {
		case closer != 0:
			if c == closer {
				closer = 0
			}
		case c == '"' || c == '\'':
			closer = c
		case c == '“':
			closer = '”'
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		}
	}
	return depth
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help               Show this help message
  .vars               List declarations and their values
  .params             List external parameters
  .set <name> <value> Assign a var, global or @parameter
  .load <file>        Add the statements of a script to the session
  .reset              Drop all declarations and values
  .quit / .exit       Exit the REPL

Tips:
  - Expressions are evaluated and printed, statements are added
  - Use arrow keys to navigate history
  - Tab completion works for commands and function names
`
	_, _ = fmt.Fprintln(w, help)
}

// newREPLCompleter creates a readline completer for dot-commands and
// function names.
func newREPLCompleter(reg *formula.Registry) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem(".help"),
		readline.PcItem(".vars"),
		readline.PcItem(".params"),
		readline.PcItem(".set"),
		readline.PcItem(".load"),
		readline.PcItem(".reset"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	}
	for _, name := range reg.Names() {
		items = append(items, readline.PcItem(name+"("))
	}
	return readline.NewPrefixCompleter(items...)
}
