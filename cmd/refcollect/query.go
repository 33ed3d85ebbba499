package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/refcollect/internal/config"
	"github.com/matsen/refcollect/internal/storage"
)

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(keysCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query KEY",
	Short: "Show a cached record for a citation key",
	Long: `Look up a citation key in the report cache written by collect and
show its record: display fields plus every occurrence with its printed
location.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List cached citation keys in first-occurrence order",
	RunE:  runKeys,
}

// openCache opens the report database of the enclosing project.
func openCache() *storage.DB {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	if root := os.Getenv("REFCOLLECT_ROOT"); root != "" {
		cwd = root
	}

	projRoot, err := config.FindProject(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	dbPath := config.DBPath(projRoot)
	if _, err := os.Stat(dbPath); err != nil {
		exitWithError(ExitConfigError, "no report cache found; run collect first")
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		exitWithError(ExitError, "opening report cache: %v", err)
	}
	return db
}

func runQuery(cmd *cobra.Command, args []string) error {
	db := openCache()
	defer db.Close()

	rec, err := db.GetByKey(args[0])
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if rec == nil {
		exitWithError(ExitDataError, "key %q not found in report cache", args[0])
	}

	if humanOutput {
		outputHuman("%s", formatRecordHuman(rec))
		return nil
	}
	return outputJSON(rec)
}

// KeysResult is the response for the keys command.
type KeysResult struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

func runKeys(cmd *cobra.Command, args []string) error {
	db := openCache()
	defer db.Close()

	keys, err := db.ListKeys()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		for _, k := range keys {
			outputHuman("%s\n", k)
		}
		return nil
	}
	return outputJSON(KeysResult{Keys: keys, Count: len(keys)})
}
