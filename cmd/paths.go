package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/hspdebug/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the directories hspdebug reads and writes.
type PathsOutput struct {
	ConfigDir string `json:"config_dir"`
	StateDir  string `json:"state_dir"`
	CacheDir  string `json:"cache_dir"`
	LogDir    string `json:"log_dir"`
	BuildDir  string `json:"build_dir"`
	PidFile   string `json:"pid_file"`
}

func NewPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the directories used by hspdebug",
		Long: `Print the directories used by hspdebug as JSON.

- config_dir: global hspdebug.yml
- state_dir: logs and the server pid file
- cache_dir: regenerable data
- build_dir: default work directory of the compile helper

Set HSPDEBUG_HOME to relocate all of them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigDir: paths.ConfigDir(),
				StateDir:  paths.StateDir(),
				CacheDir:  paths.CacheDir(),
				LogDir:    paths.LogDir(),
				BuildDir:  paths.BuildDir(),
				PidFile:   paths.PidFilePath(),
			}

			jsonData, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}
}
