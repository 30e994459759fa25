package agentdesk

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"sigs.k8s.io/yaml"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// resourceKind describes how one API collection is listed and printed
type resourceKind[T any] struct {
	plural   string
	singular string
	pick     func(*api.Client) *api.Resource[T]
	header   table.Row
	row      func(T) table.Row
}

func newResourceCmds(g *GlobalConfig) []*cobra.Command {
	return []*cobra.Command{
		newResourceCmd(g, resourceKind[api.Agent]{
			plural: "agents", singular: "agent",
			pick:   func(c *api.Client) *api.Resource[api.Agent] { return c.Agents },
			header: table.Row{"ID", "NAME", "ROLE", "SESSIONS", "TOOLS"},
			row: func(a api.Agent) table.Row {
				return table.Row{a.ID, a.Name, a.Role, len(a.Sessions), len(a.Tools)}
			},
		}),
		newResourceCmd(g, resourceKind[api.Tool]{
			plural: "tools", singular: "tool",
			pick:   func(c *api.Client) *api.Resource[api.Tool] { return c.Tools },
			header: table.Row{"ID", "NAME", "DESCRIPTION"},
			row:    func(t api.Tool) table.Row { return table.Row{t.ID, t.Name, t.Description} },
		}),
		newResourceCmd(g, resourceKind[api.Skill]{
			plural: "skills", singular: "skill",
			pick:   func(c *api.Client) *api.Resource[api.Skill] { return c.Skills },
			header: table.Row{"ID", "NAME", "DESCRIPTION"},
			row:    func(s api.Skill) table.Row { return table.Row{s.ID, s.Name, s.Description} },
		}),
		newResourceCmd(g, resourceKind[api.Session]{
			plural: "sessions", singular: "session",
			pick:   func(c *api.Client) *api.Resource[api.Session] { return c.Sessions },
			header: table.Row{"ID", "NAME", "AGENT", "TASKS"},
			row: func(s api.Session) table.Row {
				return table.Row{s.ID, s.Name, s.AgentID, len(s.Tasks)}
			},
		}),
		newResourceCmd(g, resourceKind[api.Task]{
			plural: "tasks", singular: "task",
			pick:   func(c *api.Client) *api.Resource[api.Task] { return c.Tasks },
			header: table.Row{"ID", "NAME", "SKILLS"},
			row:    func(t api.Task) table.Row { return table.Row{t.ID, t.Name, len(t.Skills)} },
		}),
		newResourceCmd(g, resourceKind[api.Curriculum]{
			plural: "curricula", singular: "curriculum",
			pick:   func(c *api.Client) *api.Resource[api.Curriculum] { return c.Curricula },
			header: table.Row{"ID", "NAME", "MODULES"},
			row: func(c api.Curriculum) table.Row {
				return table.Row{c.ID, c.Name, len(c.Modules)}
			},
		}),
		newResourceCmd(g, resourceKind[api.Module]{
			plural: "modules", singular: "module",
			pick:   func(c *api.Client) *api.Resource[api.Module] { return c.Modules },
			header: table.Row{"ID", "NAME", "DESCRIPTION"},
			row:    func(m api.Module) table.Row { return table.Row{m.ID, m.Name, m.Description} },
		}),
	}
}

func newResourceCmd[T any](g *GlobalConfig, kind resourceKind[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind.plural,
		Short: fmt.Sprintf("List, inspect and delete %s", kind.plural),
	}

	var (
		opts   api.ListOptions
		output string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", kind.plural),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.Client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			page, err := kind.pick(client.API).List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if output != outputTable {
				return printObject(cmd.OutOrStdout(), page, output)
			}

			rows := make([]table.Row, 0, len(page.Items))
			for _, item := range page.Items {
				rows = append(rows, kind.row(item))
			}
			renderTable(cmd.OutOrStdout(), cases.Title(language.English).String(kind.plural), kind.header, rows)
			if page.NextPageToken != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "more results: --page-token %s\n", page.NextPageToken)
			}
			return nil
		},
	}
	list.Flags().StringVar(&opts.CreatedBy, "created-by", "", "Only list items created by this user")
	list.Flags().StringVar(&opts.OrgID, "org-id", "", "Only list items of this organization")
	list.Flags().StringVar(&opts.PageToken, "page-token", "", "Continue from a previous page")
	list.Flags().IntVar(&opts.MaxResults, "max-results", 0, "Maximum number of items to return")
	list.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")

	var getOutput string
	get := &cobra.Command{
		Use:   "get <id>",
		Short: fmt.Sprintf("Show a %s", kind.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.Client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			item, err := kind.pick(client.API).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printObject(cmd.OutOrStdout(), item, getOutput)
		},
	}
	get.Flags().StringVarP(&getOutput, "output", "o", outputYAML, "Output format: json or yaml")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s", kind.singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.Client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()

			if err := kind.pick(client.API).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s deleted\n", kind.singular, args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, del)
	return cmd
}

func renderTable(w io.Writer, title string, header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

// printObject writes v as JSON or as YAML keyed by its JSON field names
func printObject(w io.Writer, v interface{}, format string) error {
	switch format {
	case outputJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case outputYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
