package cli

import (
	"github.com/spf13/cobra"

	"github.com/mitgor/openclawpack/internal/workflow"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage the multi-project registry",
	Long: `Track GSD projects in a per-user registry so workflow commands can be
pointed at them by name. The registry lives in the platform user-data
directory; OPENCLAWPACK_REGISTRY overrides its location.`,
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Register a GSD project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsAdd,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects sorted by name",
	Args:  cobra.NoArgs,
	RunE:  runProjectsList,
}

var projectsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a project from the registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsRemove,
}

var projectsDiscoverCmd = &cobra.Command{
	Use:   "discover <root>",
	Short: "Scan a directory tree for GSD projects",
	Long: `Walk the given root looking for directories with a .planning/
subdirectory and list them as candidates for 'projects add'. The registry
is not modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsDiscover,
}

func init() {
	projectsAddCmd.Flags().String("name", "", "Friendly name (default: directory basename)")
	projectsListCmd.Flags().Bool("refresh", false, "Re-read each project's planning summary first")

	projectsCmd.AddCommand(projectsAddCmd)
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsRemoveCmd)
	projectsCmd.AddCommand(projectsDiscoverCmd)
}

func runProjectsAdd(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	defer settings.close()

	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}

	projects := workflow.Projects{Bus: settings.bus}
	return settings.finish(cmd, projects.Add(args[0], name))
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	defer settings.close()

	refresh, err := cmd.Flags().GetBool("refresh")
	if err != nil {
		return err
	}

	projects := workflow.Projects{Bus: settings.bus}
	return settings.finish(cmd, projects.List(refresh))
}

func runProjectsRemove(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	defer settings.close()

	projects := workflow.Projects{Bus: settings.bus}
	return settings.finish(cmd, projects.Remove(args[0]))
}

func runProjectsDiscover(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	defer settings.close()

	projects := workflow.Projects{Bus: settings.bus}
	return settings.finish(cmd, projects.Discover(args[0]))
}
