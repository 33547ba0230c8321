package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/agentchat/internal/directory"
	"github.com/joss/agentchat/internal/domain"
)

func newDirectory() *directory.Directory {
	return directory.New(directory.Config{Client: client, View: con})
}

func agentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage agents",
	}
	cmd.AddCommand(agentsListCmd(), agentsCreateCmd(), agentsShowCmd(), agentsDeleteCmd())
	return cmd
}

func agentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your agents, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			dir := newDirectory()
			if err := dir.Load(ctx); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(dir.Agents())
			}
			printListing(con.listing)
			return nil
		},
	}
}

func printListing(l directory.Listing) {
	out.Header("Agents (%d)", len(l.Cards))
	if l.Empty() {
		out.Empty(directory.EmptyText)
		return
	}
	for _, c := range l.Cards {
		out.Println("#%d %s", c.ID, c.Name)
		out.Item("%s", c.Description)
		out.Field("System Prompt", c.PromptPreview)
		out.Line()
	}
}

func agentsCreateCmd() *cobra.Command {
	var in domain.AgentInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			agent, err := newDirectory().Create(ctx, in)
			if agent == nil {
				return err
			}
			if jsonOut {
				return printJSON(agent)
			}
			out.Println("Created agent #%d %s", agent.ID, agent.Name)
			return err
		},
	}
	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "Agent name (required)")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "Short description")
	cmd.Flags().StringVarP(&in.SystemPrompt, "system-prompt", "p", "", "System prompt (defaults to a helpful assistant)")
	return cmd
}

func agentsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			sess := newSession(id)
			if err := sess.LoadAgentInfo(ctx); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(sess.Agent())
			}
			out.Header("%s", con.info.Title)
			out.Field("ID", fmt.Sprint(id))
			out.Field("Name", con.info.Name)
			out.Field("Description", con.info.Description)
			out.Field("System Prompt", con.info.SystemPrompt)
			return nil
		},
	}
}

func agentsDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an agent",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			var confirm directory.Confirmer = directory.ConfirmFunc(confirmPrompt)
			if yes {
				confirm = directory.Always
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()
			err = newDirectory().Delete(ctx, id, confirm)
			if errors.Is(err, directory.ErrCanceled) {
				if !jsonOut {
					out.Println("Canceled.")
				}
				return nil
			}
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(map[string]interface{}{"deleted": id})
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
