package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/shift-roster/pkg/core/demand"
	"github.com/jakechorley/shift-roster/pkg/core/model"
	"github.com/jakechorley/shift-roster/pkg/core/services"
)

// GenerateRosterCmd creates the generateRoster command
func GenerateRosterCmd(app *AppContext) *cobra.Command {
	var start, end, out string
	var reqSpecs []string

	cmd := &cobra.Command{
		Use:   "generateRoster",
		Short: "Ask the solver for a roster and replace the range with it",
		Long: `Ask the solver for a roster covering every day from --start to --end and
replace all stored assignments in that range with the result.

Each --require flag sets one location's headcount by grade, e.g.
  --require A:3=1,5=2 --require B:3=2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requirements, err := parseRequirements(reqSpecs)
			if err != nil {
				return err
			}

			app.Logger.Debug("generateRoster command", zap.String("start", start), zap.String("end", end))

			result, err := services.GenerateRoster(app.Ctx, app.Database, app.Solver, app.Logger, app.Cfg.RequirementOverrides, services.GenerateRosterRequest{
				StartDate:    start,
				EndDate:      end,
				Requirements: requirements,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Roster generated for %s to %s (%d assignments)\n\n", result.StartDate, result.EndDate, len(result.Assignments))
			printRoster(result.Roster)

			if len(result.Logs) > 0 {
				fmt.Println("Solver log:")
				for _, line := range result.Logs {
					fmt.Printf("  %s\n", line)
				}
				fmt.Println()
			}

			if out != "" {
				if err := writeRosterFile(out, result.Roster); err != nil {
					return err
				}
				fmt.Printf("Roster written to %s\n\n", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&reqSpecs, "require", nil, "Location requirement LOCATION:GRADE=COUNT[,GRADE=COUNT]")
	cmd.Flags().StringVar(&out, "out", "", "Also write the roster as JSON for editing")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")
	cmd.MarkFlagRequired("require")

	return cmd
}

// ApproveRosterCmd creates the approveRoster command
func ApproveRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approveRoster <file.json>",
		Short: "Save an edited roster, overwriting every day it contains",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read roster file: %w", err)
			}

			var roster model.Roster
			if err := json.Unmarshal(data, &roster); err != nil {
				return fmt.Errorf("failed to parse roster file: %w", err)
			}

			result, err := services.ApproveRoster(app.Ctx, app.Database, app.Logger, roster)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Roster approved for %d days (%d assignments)\n", len(result.Dates), len(result.Assignments))
			fmt.Printf("  %s\n\n", strings.Join(result.Dates, ", "))
			return nil
		},
	}
}

// parseRequirements turns ["A:3=1,5=2", "B:3=2"] into requirements
func parseRequirements(flags []string) (demand.Requirements, error) {
	requirements := demand.Requirements{}
	for _, raw := range flags {
		location, counts, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("requirement %q must look like LOCATION:GRADE=COUNT", raw)
		}

		byGrade := make(map[int]int)
		for _, pair := range strings.Split(counts, ",") {
			gradeStr, countStr, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				return nil, fmt.Errorf("requirement %q: %q must look like GRADE=COUNT", raw, pair)
			}
			grade, err := strconv.Atoi(gradeStr)
			if err != nil {
				return nil, fmt.Errorf("requirement %q: grade %q is not a number", raw, gradeStr)
			}
			count, err := strconv.Atoi(countStr)
			if err != nil {
				return nil, fmt.Errorf("requirement %q: count %q is not a number", raw, countStr)
			}
			byGrade[grade] += count
		}
		requirements[model.Location(strings.TrimSpace(location))] = byGrade
	}
	return requirements, nil
}

func writeRosterFile(path string, roster model.Roster) error {
	data, err := json.MarshalIndent(roster, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write roster file: %w", err)
	}
	return nil
}

func printRoster(roster model.Roster) {
	for _, line := range formatRoster(roster) {
		fmt.Println(line)
	}
	fmt.Println()
}

// formatRoster renders one line per slot, e.g. "2025-03-02  A  Morning    W1, W2"
func formatRoster(roster model.Roster) []string {
	var lines []string
	var last *model.Slot
	var workers []string

	flush := func() {
		if last != nil {
			lines = append(lines, fmt.Sprintf("%s  %s  %-10s %s", last.Date, last.Location, last.Shift, strings.Join(workers, ", ")))
		}
	}
	for _, entry := range roster.Entries() {
		if last == nil || *last != entry.Slot {
			flush()
			slot := entry.Slot
			last = &slot
			workers = nil
		}
		workers = append(workers, entry.WorkerID)
	}
	flush()
	return lines
}
