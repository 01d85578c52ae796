package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

type cli struct {
	in   io.Reader
	out  io.Writer
	open opener
}

func newRootCmd(in io.Reader, out io.Writer, open opener) *cobra.Command {
	c := &cli{in: in, out: out, open: open}

	root := &cobra.Command{
		Use:   "classifybot",
		Short: "Classify legislative data requests into responsible departments",
		Long: `classifybot asks a language model which departments should answer a
legislative data request, using the department list, the regulation text and
every past human correction as context. Each classification is kept in a
history that can be corrected, edited and reviewed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(c.newClassifyCmd())
	root.AddCommand(c.newCorrectCmd())
	root.AddCommand(c.newKeywordsCmd())
	root.AddCommand(c.newHistoryCmd())
	root.AddCommand(c.newFeedbackCmd())
	root.AddCommand(c.newReviewCmd())
	root.AddCommand(c.newDoctorCmd())
	return root
}

func (c *cli) newClassifyCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "classify [content]",
		Short: "Classify a request and record it in the history",
		Example: `  classifybot classify "Submit drone budget execution for the last five years"
  classifybot classify --file request.txt
  cat request.txt | classifybot classify`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := c.readContent(args, file)
			if err != nil {
				return err
			}
			rt, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.service.Classify(cmd.Context(), content)
			if err != nil {
				return err
			}
			return c.printJSON(res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the request from a file")
	return cmd
}

func (c *cli) newCorrectCmd() *cobra.Command {
	var id, content, department string
	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Record the correct department for a request",
		Example: `  classifybot correct --id 6f1c... --department Operations
  classifybot correct --content "Request X" --department Operations`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.service.Correct(cmd.Context(), id, content, department); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "correction saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "History record to correct")
	cmd.Flags().StringVar(&content, "content", "", "Request text (defaults to the record's input when --id is set)")
	cmd.Flags().StringVarP(&department, "department", "d", "", "Correct department")
	return cmd
}

func (c *cli) newKeywordsCmd() *cobra.Command {
	var id string
	var keywords []string
	cmd := &cobra.Command{
		Use:     "keywords",
		Short:   "Replace the keywords of a history record",
		Example: `  classifybot keywords --id 6f1c... --keyword drone --keyword budget`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.service.UpdateKeywords(cmd.Context(), id, keywords); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "keywords updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "History record to update")
	cmd.Flags().StringArrayVarP(&keywords, "keyword", "k", nil, "Keyword, stored as given (repeat for several)")
	return cmd
}

func (c *cli) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, delete or clear classification history",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print the history, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			records, err := rt.service.ListHistory(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(records)
		},
	}

	deleteCmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete one history record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.service.DeleteHistoryEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "history record deleted")
			return nil
		},
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear history without --yes")
			}
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.service.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "history cleared")
			return nil
		},
	}
	clearCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing the whole history")

	cmd.AddCommand(listCmd, deleteCmd, clearCmd)
	return cmd
}

func (c *cli) newFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Inspect the correction corpus",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print every stored correction",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			entries, err := rt.service.ListFeedback(cmd.Context())
			if err != nil {
				return err
			}
			return c.printJSON(entries)
		},
	})
	return cmd
}

// readContent takes the request from the argument, --file, or stdin, in
// that order.
func (c *cli) readContent(args []string, file string) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", errors.New("pass the request as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read request file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(c.in)
		if err != nil {
			return "", fmt.Errorf("read request from stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
}

func (c *cli) printJSON(v any) error {
	data, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(c.out, string(data))
	return err
}
