package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/leapstack-labs/leapask/internal/chat"
	"github.com/leapstack-labs/leapask/internal/cli/output"
	"github.com/leapstack-labs/leapask/internal/table"
	"github.com/leapstack-labs/leapask/internal/transcript"
)

const chatPrompt = "leapask> "

// chatREPL runs the chat loop over one session.
type chatREPL struct {
	cmdCtx  *CommandContext
	session *chat.Session
	out     *output.Renderer

	mu          sync.Mutex
	stopWatchFn context.CancelFunc

	// outMu is held while a line is handled or a reload notice is printed,
	// so watch output never interleaves with a reply.
	outMu sync.Mutex
}

func newChatREPL(cmdCtx *CommandContext, s *chat.Session) *chatREPL {
	return &chatREPL{cmdCtx: cmdCtx, session: s, out: cmdCtx.Renderer}
}

// runInteractive reads lines with readline until .quit or EOF.
func (r *chatREPL) runInteractive(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          chatPrompt,
		HistoryFile:     r.cmdCtx.Cfg.Chat.HistoryFile,
		AutoComplete:    r.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.notify(func() {
		r.out.Println("leapask chat. Type .help for commands, .quit to exit")
		r.out.Println("")
	})

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if quit := r.handleLine(ctx, line); quit {
			return nil
		}
		r.notify(func() { r.out.Println("") })
		rl.Config.AutoComplete = r.completer()
	}
}

// runLines reads one question or command per line from in.
func (r *chatREPL) runLines(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if quit := r.handleLine(ctx, scanner.Text()); quit {
			return nil
		}
	}
	return scanner.Err()
}

// handleLine processes one input line and reports whether the loop should end.
func (r *chatREPL) handleLine(ctx context.Context, line string) bool {
	r.outMu.Lock()
	defer r.outMu.Unlock()

	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return r.handleDotCommand(ctx, line)
	}
	r.ask(ctx, line)
	return false
}

func (r *chatREPL) ask(ctx context.Context, question string) {
	reply, err := r.session.Ask(ctx, question)
	var notLoaded *table.NotLoadedError
	switch {
	case errors.As(err, &notLoaded):
		r.out.Warning("No dataset loaded. Use .load <file> first.")
		return
	case err != nil:
		r.out.Error(fmt.Sprintf("Error: %v", err))
		return
	}
	if err := r.out.Reply(reply); err != nil {
		r.out.Error(fmt.Sprintf("Error: %v", err))
	}
}

func (r *chatREPL) handleDotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printChatHelp(r.out.Writer())

	case ".load":
		if len(args) < 1 {
			r.out.Warning("Usage: .load <file>")
			return false
		}
		r.load(ctx, strings.Join(args, " "))

	case ".schema":
		var cols []table.ColumnInfo
		if cols, err = r.session.Schema(); err == nil {
			err = r.out.Schema(cols)
		}

	case ".preview":
		n := r.cmdCtx.Cfg.Chat.PreviewRows
		if len(args) > 0 {
			if n, err = strconv.Atoi(args[0]); err != nil || n < 0 {
				r.out.Warning("Usage: .preview [rows]")
				return false
			}
		}
		var cols []string
		var rows [][]any
		if cols, rows, err = r.session.Preview(n); err == nil {
			err = r.out.Table(cols, rows)
		}

	case ".functions":
		err = renderFunctions(r.out, r.session.Registry())

	case ".history":
		err = r.history()

	case ".export":
		if len(args) < 1 {
			r.out.Warning("Usage: .export <path> [md|json|jsonl|yaml]")
			return false
		}
		format := ""
		if len(args) > 1 {
			format = args[1]
		}
		err = r.export(args[0], format)

	case ".reset":
		r.session.ResetHistory()
		r.out.Success("History cleared.")

	default:
		r.out.Warning(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}

	if err != nil {
		var notLoaded *table.NotLoadedError
		if errors.As(err, &notLoaded) {
			r.out.Warning("No dataset loaded. Use .load <file> first.")
		} else {
			r.out.Error(fmt.Sprintf("Error: %v", err))
		}
	}
	return false
}

// load reads path into the session and prints a summary. Failures are
// reported and leave the session unchanged.
func (r *chatREPL) load(ctx context.Context, path string) {
	t, err := r.session.Load(ctx, path)
	if err != nil {
		r.out.Error(fmt.Sprintf("Error: %v", err))
		return
	}
	if err := renderDataset(r.out, t, r.cmdCtx.Cfg.Chat.PreviewRows, nil); err != nil {
		r.out.Error(fmt.Sprintf("Error: %v", err))
	}
	if r.cmdCtx.Cfg.Chat.Watch {
		r.watch(ctx, path)
	}
}

// watch reloads path on change, replacing any earlier watch.
func (r *chatREPL) watch(ctx context.Context, path string) {
	r.stopWatch()

	wctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.stopWatchFn = cancel
	r.mu.Unlock()

	go func() {
		err := r.session.Watch(wctx, path, func(t *table.Table, err error) {
			r.notify(func() {
				if err != nil {
					r.out.Error(fmt.Sprintf("Reload failed: %v", err))
					return
				}
				r.out.Success(fmt.Sprintf("Reloaded %s (%d rows)", t.Name, t.NumRows()))
			})
		})
		if err != nil {
			r.notify(func() { r.out.Warning(fmt.Sprintf("Not watching %s: %v", path, err)) })
		}
	}()
}

// notify runs fn while no line is being handled.
func (r *chatREPL) notify(fn func()) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fn()
}

func (r *chatREPL) stopWatch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopWatchFn != nil {
		r.stopWatchFn()
		r.stopWatchFn = nil
	}
}

func (r *chatREPL) history() error {
	turns := r.session.History()
	if r.out.EffectiveMode() == output.ModeJSON {
		return r.out.JSON(turns)
	}
	if len(turns) == 0 {
		r.out.Muted("No questions answered yet.")
		return nil
	}

	rows := make([][]any, len(turns))
	for i, turn := range turns {
		rows[i] = []any{i + 1, turn.Question, turn.Answer}
	}
	return r.out.Table([]string{"#", "question", "answer"}, rows)
}

// export writes the transcript to path. The format defaults to the file
// extension, then markdown.
func (r *chatREPL) export(path, format string) error {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	if format == "" {
		format = "md"
	}
	exp, err := transcript.NewExporter(format)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := exp.Export(transcript.FromSession(r.session), f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	r.out.Success(fmt.Sprintf("Exported %d questions to %s", len(r.session.History()), path))
	return nil
}

func printChatHelp(w io.Writer) {
	help := `
Commands:
  .help                      Show this help message
  .load <file>               Load a CSV or Excel file (resets the history)
  .schema                    Show column names and types
  .preview [n]               Show the first n rows
  .functions                 List the analysis functions
  .history                   List answered questions
  .export <path> [format]    Save the history (md, json, jsonl, yaml)
  .reset                     Clear the history
  .quit / .exit              Exit

Tips:
  - Anything else is a question, e.g. "How many rows have City as NY?"
  - The table is called df in SQL answers
  - Use arrow keys to navigate history
  - Tab completion works for commands and column names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer offers dot-commands and the loaded table's column names.
func (r *chatREPL) completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	if cols, err := r.session.Schema(); err == nil {
		for _, c := range cols {
			items = append(items, readline.PcItem(c.Name))
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".load"),
		readline.PcItem(".schema"),
		readline.PcItem(".preview"),
		readline.PcItem(".functions"),
		readline.PcItem(".history"),
		readline.PcItem(".export"),
		readline.PcItem(".reset"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
