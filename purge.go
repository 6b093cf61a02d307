package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
	"github.com/spf13/cobra"
)

var purgeYes bool

var purgeCmd = &cobra.Command{
	Use:   "purge <pattern>...",
	Short: "Delete stored collections and documents matching glob patterns",
	Long: `Delete every record collection and document whose name matches one of
the given glob patterns (* and ? wildcards), e.g. "history" or "drive_*".`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			return purge(ctx, store, args, purgeYes, os.Stdin, cmd.OutOrStdout())
		})
	},
}

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "List stored collections and documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store storage.Store) error {
			return listData(ctx, store, cmd.OutOrStdout())
		})
	},
}

func init() {
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(purgeCmd, dataCmd)
}

// withStore opens the configured store for a one-off CLI operation.
func withStore(fn func(ctx context.Context, store storage.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}()
	return fn(ctx, store)
}

// storedNames returns every collection and document name, sorted and unique.
func storedNames(ctx context.Context, store storage.Store) ([]string, error) {
	collections, err := store.Collections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, n := range append(collections, keys...) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func purge(ctx context.Context, store storage.Store, patterns []string, yes bool, in io.Reader, out io.Writer) error {
	names, err := storedNames(ctx, store)
	if err != nil {
		return err
	}

	var matching []string
	for _, name := range names {
		if matchesAnyPattern(name, patterns) {
			matching = append(matching, name)
		}
	}
	if len(matching) == 0 {
		_, _ = fmt.Fprintf(out, "Nothing matched %v\n", patterns)
		return nil
	}

	if !yes {
		_, _ = fmt.Fprintf(out, "\n⚠️  WARNING: About to delete %d item(s):\n", len(matching))
		for _, name := range matching {
			_, _ = fmt.Fprintf(out, "  - %s\n", name)
		}
		_, _ = fmt.Fprint(out, "\nThis action CANNOT be undone.\nType 'yes' to confirm deletion: ")

		confirmation, _ := bufio.NewReader(in).ReadString('\n')
		if strings.TrimSpace(confirmation) != "yes" {
			_, _ = fmt.Fprintln(out, "Deletion cancelled")
			return nil
		}
	}

	deleted := 0
	for _, name := range matching {
		if err := store.Purge(ctx, name); err != nil {
			log.Printf("Error deleting %s: %v", name, err)
			continue
		}
		deleted++
	}
	_, _ = fmt.Fprintf(out, "✓ Deleted %d out of %d item(s)\n", deleted, len(matching))
	return nil
}

func listData(ctx context.Context, store storage.Store, out io.Writer) error {
	collections, err := store.Collections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	keys, err := store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(collections)
	sort.Strings(keys)

	_, _ = fmt.Fprintf(out, "Collections: %d\n", len(collections))
	for _, c := range collections {
		n, err := store.Count(ctx, c)
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", c, err)
		}
		capText := "uncapped"
		if limit := storage.CapFor(c); limit > 0 {
			capText = fmt.Sprintf("cap %d", limit)
		}
		_, _ = fmt.Fprintf(out, "  %-18s %6d  [%s]\n", c, n, capText)
	}
	_, _ = fmt.Fprintf(out, "\nDocuments: %d\n", len(keys))
	for _, k := range keys {
		_, _ = fmt.Fprintf(out, "  %s\n", k)
	}
	return nil
}

func matchesAnyPattern(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchesPattern(name, pattern) {
			return true
		}
	}
	return false
}

// matchesPattern converts a glob pattern to a regex and matches the whole name.
func matchesPattern(name, pattern string) bool {
	regexPattern := regexp.QuoteMeta(pattern)
	regexPattern = strings.ReplaceAll(regexPattern, `\*`, ".*")
	regexPattern = strings.ReplaceAll(regexPattern, `\?`, ".")
	regexPattern = "^" + regexPattern + "$"

	matched, err := regexp.MatchString(regexPattern, name)
	if err != nil {
		log.Printf("Invalid pattern '%s': %v", pattern, err)
		return false
	}
	return matched
}
