// Command boardfile manages a directory of work-item files: it keeps
// the derived JSON index fresh, answers queries from it, and moves
// whole projects between the filesystem and the structured store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/boardfile-dev/boardfile/internal/index"
	"github.com/boardfile-dev/boardfile/internal/rehydrate"
	"github.com/boardfile-dev/boardfile/internal/snippet"
	"github.com/boardfile-dev/boardfile/internal/store"
)

const usage = `Usage: boardfile [flags] <command> [args]

Commands:
  rebuild                       Force a full index rescan
  ls [filters]                  List work items from a fresh index
  show <id>                     Show one work item with its snippets
  import <project-root>         Rehydrate a project tree into the store
  export <project-id> <dir>     Write a stored project back to files
  shell                         Interactive query shell

Flags:
  --dir <path>        Work-items directory (default from config)
  --project <name>    Project name for the index
  --db <path>         Structured store database
  --config <path>     Explicit config file

ls filters:
  --status <s>  --type <t>  --parent <id>  --roots
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("boardfile", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	dirFlag := flags.String("dir", "", "work-items directory")
	projectFlag := flags.String("project", "", "project name")
	dbFlag := flags.String("db", "", "structured store database path")
	configFlag := flags.String("config", "", "config file path")

	parseErr := flags.Parse(args)
	if parseErr != nil {
		return 2
	}

	rest := flags.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)

		return 2
	}

	workDir, wdErr := os.Getwd()
	if wdErr != nil {
		fmt.Fprintf(stderr, "boardfile: %v\n", wdErr)

		return 1
	}

	cfg, cfgErr := LoadConfig(workDir, *configFlag)
	if cfgErr != nil {
		fmt.Fprintf(stderr, "boardfile: %v\n", cfgErr)

		return 1
	}

	if *dirFlag != "" {
		cfg.WorkItemsDir = *dirFlag
	}

	if *projectFlag != "" {
		cfg.ProjectName = *projectFlag
	}

	if *dbFlag != "" {
		cfg.StorePath = *dbFlag
	}

	if !filepath.IsAbs(cfg.WorkItemsDir) {
		cfg.WorkItemsDir = filepath.Join(workDir, cfg.WorkItemsDir)
	}

	proj := index.New(cfg.ProjectName, cfg.WorkItemsDir, index.WithDiagnostics(stderr))

	command, commandArgs := rest[0], rest[1:]

	switch command {
	case "rebuild":
		return cmdRebuild(proj, stdout, stderr)
	case "ls":
		return cmdLs(proj, commandArgs, stdout, stderr)
	case "show":
		return cmdShow(proj, commandArgs, stdout, stderr)
	case "import":
		return cmdImport(cfg, commandArgs, stdout, stderr)
	case "export":
		return cmdExport(cfg, commandArgs, stderr)
	case "shell":
		return cmdShell(proj, stdout, stderr)
	case "help", "--help", "-h":
		fmt.Fprint(stdout, usage)

		return 0
	default:
		fmt.Fprintf(stderr, "boardfile: unknown command %q\n", command)
		fmt.Fprint(stderr, usage)

		return 2
	}
}

func cmdRebuild(proj *index.Project, stdout, stderr io.Writer) int {
	idx, rebuildErr := proj.Rebuild()
	if rebuildErr != nil {
		fmt.Fprintf(stderr, "boardfile: %v\n", rebuildErr)

		return 1
	}

	fmt.Fprintf(stdout, "indexed %d tasks (%d orphaned)\n", idx.TotalTasks, len(idx.OrphanedFiles))

	return 0
}

func cmdLs(proj *index.Project, args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("ls", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	statusFlag := flags.String("status", "", "filter by status")
	typeFlag := flags.String("type", "", "filter by type")
	parentFlag := flags.String("parent", "", "filter by parent id")
	rootsFlag := flags.Bool("roots", false, "only items without a parent")

	parseErr := flags.Parse(args)
	if parseErr != nil {
		return 2
	}

	idx, freshErr := proj.GetFresh()
	if freshErr != nil {
		fmt.Fprintf(stderr, "boardfile: %v\n", freshErr)

		return 1
	}

	for _, rec := range idx.Tasks {
		if *statusFlag != "" && rec.Status != *statusFlag {
			continue
		}

		if *typeFlag != "" && rec.Type != *typeFlag {
			continue
		}

		if *parentFlag != "" && rec.ParentID != *parentFlag {
			continue
		}

		if *rootsFlag && rec.ParentID != "" {
			continue
		}

		fmt.Fprintf(stdout, "%-24s %-10s %-10s %-8s %s\n", rec.ID, rec.Status, rec.Type, rec.Priority, rec.Title)
	}

	return 0
}

func cmdShow(proj *index.Project, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "boardfile: show requires exactly one id")

		return 2
	}

	idx, freshErr := proj.GetFresh()
	if freshErr != nil {
		fmt.Fprintf(stderr, "boardfile: %v\n", freshErr)

		return 1
	}

	rec := idx.Get(args[0])
	if rec == nil {
		fmt.Fprintf(stderr, "boardfile: no work item %q\n", args[0])

		return 1
	}

	fmt.Fprintf(stdout, "id:       %s\n", rec.ID)
	fmt.Fprintf(stdout, "title:    %s\n", rec.Title)
	fmt.Fprintf(stdout, "type:     %s\n", rec.Type)
	fmt.Fprintf(stdout, "status:   %s\n", rec.Status)
	fmt.Fprintf(stdout, "priority: %s\n", rec.Priority)

	if rec.ParentID != "" {
		fmt.Fprintf(stdout, "parent:   %s\n", rec.ParentID)
	}

	if rec.HasSubtasks {
		fmt.Fprintf(stdout, "subtasks: %d\n", rec.SubtaskCount)
	}

	doc := snippet.Parse(rec.Body)
	for _, snip := range doc.Snippets {
		fmt.Fprintf(stdout, "snippet:  %s [%s] -> %s\n", snip.Type, snip.Text, snip.Action)
	}

	return 0
}

func cmdImport(cfg Config, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "boardfile: import requires a project root")

		return 2
	}

	ctx := context.Background()

	db, openErr := store.Open(ctx, cfg.StorePath)
	if openErr != nil {
		fmt.Fprintf(stderr, "boardfile: %v\n", openErr)

		return 1
	}

	defer func() { _ = db.Close() }()

	engine := rehydrate.New(db, rehydrate.WithDiagnostics(stderr))

	result, importErr := engine.ImportProject(ctx, args[0])
	if importErr != nil {
		fmt.Fprintf(stderr, "boardfile: %v\n", importErr)

		return 1
	}

	fmt.Fprintf(stdout, "imported project %s: %d work items, %d agents, %d skipped\n",
		result.Project.ID, len(result.WorkItems), len(result.Agents), len(result.Skipped))

	return 0
}

func cmdExport(cfg Config, args []string, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "boardfile: export requires a project id and a target directory")

		return 2
	}

	ctx := context.Background()

	db, openErr := store.Open(ctx, cfg.StorePath)
	if openErr != nil {
		fmt.Fprintf(stderr, "boardfile: %v\n", openErr)

		return 1
	}

	defer func() { _ = db.Close() }()

	engine := rehydrate.New(db, rehydrate.WithDiagnostics(stderr))

	exportErr := engine.ExportProject(ctx, args[0], args[1])
	if exportErr != nil {
		fmt.Fprintf(stderr, "boardfile: %v\n", exportErr)

		return 1
	}

	return 0
}
