package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"refsearch/internal/reference"
	"refsearch/internal/search"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, stopping...")
		cancel()
	}()

	var rootsArg, classesArg string
	var refArgs []string
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-roots":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -roots needs a value")
				os.Exit(1)
			}
			rootsArg = args[i]
		case "-classes":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -classes needs a value")
				os.Exit(1)
			}
			classesArg = args[i]
		case "-h", "-help", "--help":
			printUsage()
			return
		default:
			refArgs = append(refArgs, args[i])
		}
	}

	roots := splitRoots(rootsArg)
	if len(roots) == 0 {
		roots = filepath.SplitList(os.Getenv("SEARCH_ROOTS"))
	}

	tokens := reference.ParseBlock(strings.Join(refArgs, "\n"))
	if len(tokens) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no valid reference in arguments")
		os.Exit(1)
	}

	classes, err := parseClasses(classesArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	criteria, err := search.NewCriteria(tokens, classes, nil, roots, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	groups, err := runSearch(ctx, criteria)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "Search cancelled; showing partial results.")
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printGroups(groups)
}

func runSearch(ctx context.Context, criteria search.Criteria) ([]search.ResultGroup, error) {
	engine := search.NewEngine(criteria, 0)
	aggregator := search.NewAggregator(criteria.References())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for ev := range engine.Progress() {
			fmt.Fprintf(os.Stderr, "\r%d/%d directories", ev.Processed, ev.EstimatedTotal)
		}
		fmt.Fprintln(os.Stderr)
	}()
	go func() {
		defer wg.Done()
		aggregator.Consume(engine.Matches())
	}()

	err := engine.Run(ctx)
	wg.Wait()
	return aggregator.Groups(), err
}

func splitRoots(arg string) []string {
	if arg == "" {
		return nil
	}
	return filepath.SplitList(arg)
}

func parseClasses(arg string) ([]search.Class, error) {
	if arg == "" {
		return []search.Class{
			search.ClassFolder,
			search.ClassImage,
			search.ClassVideo,
			search.ClassTechnicalSheet,
		}, nil
	}
	var classes []search.Class
	for _, name := range strings.Split(arg, ",") {
		class, ok := search.ParseClass(name)
		if !ok {
			return nil, fmt.Errorf("unknown file type class: %s", name)
		}
		classes = append(classes, class)
	}
	return classes, nil
}

func printGroups(groups []search.ResultGroup) {
	for _, group := range groups {
		if group.NotFound {
			fmt.Printf("%s: NOT FOUND\n", group.Reference.Key)
			continue
		}
		fmt.Printf("%s: %d matches\n", group.Reference.Key, len(group.Matches))
		for _, m := range group.Matches {
			fmt.Printf("  [%s] %s\n", m.Class, m.Path)
		}
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: refsearch-cli [options] <references...>

One-shot reference search against the configured roots, without the server.

Options:
  -roots <paths>     Search roots (list separator-joined); defaults to SEARCH_ROOTS
  -classes <list>    Comma-separated classes: folder,image,video,sheet,other
                     (default: folder,image,video,sheet)

Examples:
  refsearch-cli -roots /mnt/nas/products "BLZ 6472" GLW3201
  SEARCH_ROOTS=/mnt/nas/products refsearch-cli "GLW 3201 - BLZ 6472"
`)
}
