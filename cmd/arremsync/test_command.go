package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"arremsync/internal/config"
	"arremsync/internal/services"
	"arremsync/internal/tagsync"
)

var errConnectionsFailed = errors.New("one or more connection tests failed")

func newTestCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test connections to Emby and every Arr instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			coordinator, err := buildCoordinator(cfg, logger, true)
			if err != nil {
				return err
			}

			runCtx := services.WithRunID(cmd.Context(), uuid.NewString())
			statuses := coordinator.TestConnections(runCtx)
			names := testDisplayNames(cfg)
			for i := range statuses {
				if name, ok := names[statuses[i].Service]; ok {
					statuses[i].Name = name
				}
			}

			if jsonOut {
				if err := writeJSON(cmd, statuses); err != nil {
					return err
				}
			} else {
				printStatuses(cmd.OutOrStdout(), statuses, shouldDecorate(cmd.OutOrStdout()))
			}

			for _, status := range statuses {
				if !status.OK {
					return errConnectionsFailed
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output results as JSON")
	return cmd
}

// testDisplayNames maps service names to the configured name, falling back
// to the title-cased type and number, e.g. "Sonarr 2".
func testDisplayNames(cfg *config.Config) map[string]string {
	caser := cases.Title(language.English)
	names := map[string]string{tagsync.MediaServerName: "Emby"}
	for i, a := range cfg.Arr {
		number := i + 1
		name := strings.TrimSpace(a.Name)
		if name == "" {
			name = caser.String(a.Type) + " " + strconv.Itoa(number)
		}
		names[a.ServiceName(number)] = name
	}
	return names
}

func printStatuses(out io.Writer, statuses []tagsync.ServiceStatus, decorate bool) {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		rows = append(rows, []string{statusMark(status.OK, decorate), status.Name, status.Service, status.Error})
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Name", "Service", "Error"}, rows, nil))
}

func statusMark(ok, decorate bool) string {
	switch {
	case ok && decorate:
		return "✓"
	case decorate:
		return "✗"
	case ok:
		return "ok"
	default:
		return "failed"
	}
}

func shouldDecorate(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
