package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chronoclean/internal/preflight"
	"chronoclean/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var source, destination string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, state directories and free space",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := optionalPath(source)
			if err != nil {
				return err
			}
			dst, err := optionalPath(destination)
			if err != nil {
				return err
			}

			results := preflight.RunAll(cfg, ctx.configPath, preflight.Roots{Source: src, Destination: dst})
			failed := preflight.Failed(results)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{"checks": results, "ok": len(failed) == 0}); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "OK"
					if !r.Passed {
						status = "FAIL"
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
			}

			if len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "doctor", "preflight", fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Source root to check for read access")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Destination root to check for write access and free space")
	return cmd
}
