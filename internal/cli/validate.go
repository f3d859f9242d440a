package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gokatarajesh/quizwhiz/internal/quiz"
)

var errInvalidFiles = errors.New("one or more quiz files are invalid")

// NewValidateCmd checks quiz files and reports every issue found.
func NewValidateCmd() *cobra.Command {
	var printDoc bool

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate JSON or YAML quiz files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args, printDoc)
		},
	}
	cmd.Flags().BoolVar(&printDoc, "print", false, "print the normalized quiz as JSON")
	return cmd
}

func runValidate(out io.Writer, paths []string, printDoc bool) error {
	failed := false
	for _, path := range paths {
		doc, err := quiz.LoadFile(path)
		if err != nil {
			failed = true
			reportInvalid(out, path, err)
			continue
		}

		fmt.Fprintf(out, "ok      %s: %q, %d questions\n", path, doc.Title, doc.Len())
		if printDoc {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encode %s: %w", path, err)
			}
		}
	}
	if failed {
		return errInvalidFiles
	}
	return nil
}

func reportInvalid(out io.Writer, path string, err error) {
	var verr *quiz.ValidationError
	if !errors.As(err, &verr) {
		fmt.Fprintf(out, "invalid %s: %v\n", path, err)
		return
	}
	fmt.Fprintf(out, "invalid %s: %d issues\n", path, len(verr.Issues))
	for _, issue := range verr.Issues {
		fmt.Fprintf(out, "  - %s: %s\n", issue.Field, issue.Message)
	}
}
