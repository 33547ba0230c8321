package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joss/agentchat/internal/chat"
	"github.com/joss/agentchat/internal/ui"
)

func newSession(agentID int) *chat.Session {
	return chat.New(chat.Config{AgentID: agentID, Client: client, View: con})
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "chat <id>",
		Short:       "Open the interactive chat with an agent",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotTUI: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			return runTUI(ui.ChatRoute(id))
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Print the conversation with an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			sess := newSession(id)
			if err := sess.LoadHistory(ctx); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(sess.Messages())
			}
			if len(con.entries) == 0 {
				out.Empty("No messages yet.")
				return nil
			}
			for _, e := range con.entries {
				printEntry(out, e)
			}
			return nil
		},
	}
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <id> <message>",
		Short: "Send one message and print the reply",
		Long:  "Send one message and print the reply. Use - as the message to read it from stdin.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			if text == "-" {
				b, err := readAll(os.Stdin)
				if err != nil {
					return err
				}
				text = b
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()
			sess := newSession(id)
			if err := sess.SendMessage(ctx, text); err != nil {
				return err
			}
			if con.reply == nil {
				return fmt.Errorf("send message: no reply")
			}
			if jsonOut {
				return printJSON(map[string]string{"response": con.reply.Message.Content})
			}
			printEntry(out, *con.reply)
			return nil
		},
	}
}

func uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <id> <file>",
		Short: "Upload a document to an agent",
		Long:  "Upload a document to an agent. Accepted types: " + strings.Join(chat.UploadExtensions, ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			path := args[1]
			if !chat.Uploadable(path) {
				return fmt.Errorf("unsupported file type %q (accepted: %s)", filepath.Ext(path), strings.Join(chat.UploadExtensions, ", "))
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			ctx, cancel := requestContext(cmd)
			defer cancel()
			sess := newSession(id)
			if err := sess.UploadFile(ctx, filepath.Base(path), f); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(sess.Files())
			}
			return nil
		},
	}
}

func filesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "files <id>",
		Short: "List the files uploaded to an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAgentID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			sess := newSession(id)
			if err := sess.LoadAgentFiles(ctx); err != nil {
				return err
			}
			if jsonOut {
				return printJSON(sess.Files())
			}
			out.Header("Uploaded Files")
			for _, line := range con.files.Lines() {
				out.Item("%s", line)
			}
			return nil
		},
	}
}
