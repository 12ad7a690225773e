package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

type instanceInfo struct {
	Number    int    `json:"instance_number"`
	Name      string `json:"instance_name"`
	ArrType   string `json:"arr_type"`
	BaseURL   string `json:"base_url"`
	HasAPIKey bool   `json:"has_api_key"`
}

func newInstancesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "instances",
		Short: "List configured Arr instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			infos := make([]instanceInfo, 0, len(cfg.Arr))
			for i, a := range cfg.Arr {
				number := i + 1
				infos = append(infos, instanceInfo{
					Number:    number,
					Name:      a.DisplayName(number),
					ArrType:   a.Type,
					BaseURL:   a.URL,
					HasAPIKey: a.APIKey != "",
				})
			}

			if jsonOut {
				return writeJSON(cmd, infos)
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{strconv.Itoa(info.Number), info.Name, info.ArrType, info.BaseURL, yesNo(info.HasAPIKey)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Name", "Type", "URL", "API key"},
				rows,
				[]columnAlignment{alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output instances as JSON")
	return cmd
}
