package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/user/docchat/internal/types"
)

func init() {
	rootCmd.AddCommand(docCmd)
	docCmd.AddCommand(docListCmd, docSelectCmd, docRemoveCmd, docRemoteCmd)
	docRemoteCmd.AddCommand(docRemoteListCmd, docRemoteDeleteCmd)
}

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage uploaded documents",
}

// resolveDoc matches args[0] against document names first, then ID prefixes.
func resolveDoc(docs []*types.Document, arg string) *types.Document {
	for _, d := range docs {
		if d.Name == arg {
			return d
		}
	}
	if len(arg) >= 8 {
		for _, d := range docs {
			if strings.HasPrefix(string(d.ID), arg) {
				return d
			}
		}
	}
	return nil
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in the local registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		coord, err := newCoordinator(cfg)
		if err != nil {
			return err
		}

		docs := coord.Documents()
		if len(docs) == 0 {
			fmt.Println("No documents. Use 'docchat upload <file>' to add one.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEL\tNAME\tSIZE\tSTATE\tPROGRESS\tID")
		for _, d := range docs {
			sel := ""
			if d.Selected {
				sel = "*"
			}
			state := string(d.UploadState)
			if d.Error != "" {
				state = state + " (" + d.Error + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%s\n",
				sel, d.Name, humanize.Bytes(uint64(d.Size)), state, d.Progress, d.ID)
		}
		return w.Flush()
	},
}

var docSelectCmd = &cobra.Command{
	Use:   "select <name-or-id>",
	Short: "Select the document to chat with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		coord, err := newCoordinator(cfg)
		if err != nil {
			return err
		}

		doc := resolveDoc(coord.Documents(), args[0])
		if doc == nil {
			return fmt.Errorf("no document matching %q", args[0])
		}
		if err := coord.Select(cmd.Context(), doc.ID); err != nil {
			return err
		}
		if sel := coord.SelectedDocument(); sel != nil {
			fmt.Printf("Selected %s.\n", sel.Name)
		} else {
			fmt.Printf("Deselected %s.\n", doc.Name)
		}
		return nil
	},
}

var docRemoveCmd = &cobra.Command{
	Use:   "remove <name-or-id>",
	Short: "Remove a document and clear its remote session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		coord, err := newCoordinator(cfg)
		if err != nil {
			return err
		}

		doc := resolveDoc(coord.Documents(), args[0])
		if doc == nil {
			return fmt.Errorf("no document matching %q", args[0])
		}
		if err := coord.RemoveDocument(cmd.Context(), doc.ID); err != nil {
			return fmt.Errorf("remove %s: %w", doc.Name, err)
		}
		fmt.Printf("Removed %s.\n", doc.Name)
		return nil
	},
}

var docRemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Inspect documents on the remote service",
}

var docRemoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents stored on the remote service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		client := newClient(cfg)
		docs, err := client.ListDocuments(cmd.Context())
		if err != nil {
			return fmt.Errorf("list remote documents: %w", err)
		}
		if len(docs) == 0 {
			fmt.Println("No documents on the remote service.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE")
		for _, d := range docs {
			fmt.Fprintf(w, "%s\t%s\n", d.Filename, humanize.Bytes(uint64(d.Size)))
		}
		return w.Flush()
	},
}

var docRemoteDeleteCmd = &cobra.Command{
	Use:   "delete <filename>",
	Short: "Delete a document from the remote service by filename",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		client := newClient(cfg)
		if err := client.DeleteDocument(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete remote document: %w", err)
		}
		fmt.Printf("Deleted %s from the remote service.\n", args[0])
		return nil
	},
}
