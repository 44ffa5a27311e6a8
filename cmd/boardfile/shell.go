package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/boardfile-dev/boardfile/internal/index"
)

const shellHelp = `Commands:
  ls [status]    List work items, optionally filtered by status
  show <id>      Show one work item
  rebuild        Force a full rescan
  help           This help
  exit           Leave the shell
`

// cmdShell runs an interactive query loop over the index with
// readline-style editing, history, and id completion.
func cmdShell(proj *index.Project, stdout, stderr io.Writer) int {
	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		return completeShell(proj, input)
	})

	historyPath := filepath.Join(os.TempDir(), ".boardfile_history")
	if f, openErr := os.Open(historyPath); openErr == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		f, createErr := os.Create(historyPath)
		if createErr != nil {
			return
		}

		_, _ = line.WriteHistory(f)
		_ = f.Close()
	}()

	for {
		input, promptErr := line.Prompt("boardfile> ")
		if promptErr != nil {
			if errors.Is(promptErr, liner.ErrPromptAborted) || errors.Is(promptErr, io.EOF) {
				return 0
			}

			fmt.Fprintf(stderr, "boardfile: %v\n", promptErr)

			return 1
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		fields := strings.Fields(input)

		switch fields[0] {
		case "exit", "quit":
			return 0
		case "help":
			fmt.Fprint(stdout, shellHelp)
		case "rebuild":
			_ = cmdRebuild(proj, stdout, stderr)
		case "ls":
			args := []string{}
			if len(fields) > 1 {
				args = []string{"--status", fields[1]}
			}

			_ = cmdLs(proj, args, stdout, stderr)
		case "show":
			if len(fields) != 2 {
				fmt.Fprintln(stderr, "usage: show <id>")

				continue
			}

			_ = cmdShow(proj, fields[1:], stdout, stderr)
		default:
			fmt.Fprintf(stderr, "unknown command %q (try help)\n", fields[0])
		}
	}
}

// completeShell offers command names and, after "show ", work-item ids.
func completeShell(proj *index.Project, input string) []string {
	commands := []string{"ls", "show", "rebuild", "help", "exit"}

	if after, ok := strings.CutPrefix(input, "show "); ok {
		idx := proj.Load()
		if idx == nil {
			return nil
		}

		var completions []string

		for id := range idx.TaskByID {
			if strings.HasPrefix(id, after) {
				completions = append(completions, "show "+id)
			}
		}

		return completions
	}

	var completions []string

	for _, cmd := range commands {
		if strings.HasPrefix(cmd, input) {
			completions = append(completions, cmd)
		}
	}

	return completions
}
