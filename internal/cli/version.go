package cli

import (
	"fmt"
	"runtime"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// buildInfo identifies the running binary.
type buildInfo struct {
	Version   string `json:"version"`
	Module    string `json:"module,omitempty"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	BuiltAt   string `json:"built_at,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// readBuildInfo combines the release version with the VCS stamp the Go
// toolchain embeds in the binary, when there is one.
func readBuildInfo() buildInfo {
	info := buildInfo{
		Version:   rootCmd.Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	bi, ok := rdebug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.Module = bi.Main.Path
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		case "vcs.time":
			info.BuiltAt = s.Value
		}
	}
	return info
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Long:  `Display the rwa release, the source revision it was built from and the Go toolchain.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := readBuildInfo()
		if versionJSON {
			return emit(cmd, info, nil)
		}
		out := cmd.OutOrStdout()
		rev := info.Revision
		if rev == "" {
			rev = "unknown"
		} else if info.Modified {
			rev += "-dirty"
		}
		fmt.Fprintf(out, "rwa %s (revision %s)\n", info.Version, rev)
		if info.BuiltAt != "" {
			fmt.Fprintf(out, "built: %s\n", info.BuiltAt)
		}
		fmt.Fprintf(out, "go: %s %s\n", info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print build information as a JSON envelope")
	rootCmd.AddCommand(versionCmd)
}
