package cli

import (
	"fmt"

	"tiledash/internal/format"

	"github.com/spf13/cobra"
)

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

type confirmRequiredError struct {
	action string
}

func (e confirmRequiredError) Error() string {
	return fmt.Sprintf("%s needs confirmation; pass --yes", e.action)
}
