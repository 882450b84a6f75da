package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ausmo/scan-engine/db"
)

// profilesCmd represents the profiles command.
var profilesCmd = newProfilesCmd()

func newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the stored scan profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := db.Open(dbFileFlag)
			if err != nil {
				return err
			}
			defer conn.Close()

			profiles, err := db.GetAllProfiles(conn)
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ID", "Name", "Active", "Mode", "Direction", "Speed", "Auto-Select"})
			table.SetBorder(false)
			table.SetCenterSeparator("")

			for _, p := range profiles {
				active := ""
				if p.Active {
					active = "*"
				}
				table.Append([]string{
					p.ID,
					p.Name,
					active,
					string(p.Settings.Mode),
					string(p.Settings.Direction),
					p.Settings.Speed.String(),
					fmt.Sprintf("%t", p.Settings.AutoSelect),
				})
			}
			table.Render()
			return nil
		},
	}
	return cmd
}

// selectionsCmd represents the selections command.
var selectionsCmd = newSelectionsCmd()
var selectionsLimit int

func newSelectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selections",
		Short: "Show recent selections from the engine database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := db.Open(dbFileFlag)
			if err != nil {
				return err
			}
			defer conn.Close()

			selections, err := db.GetRecentSelections(conn, selectionsLimit)
			if err != nil {
				return err
			}
			if len(selections) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no selections recorded")
				return nil
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Selected At", "Button", "Direction", "Session"})
			table.SetBorder(false)
			table.SetCenterSeparator("")

			for _, sel := range selections {
				table.Append([]string{
					sel.SelectedAt.Format("2006-01-02 15:04:05"),
					sel.ButtonID,
					string(sel.Direction),
					sel.SessionID,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&selectionsLimit, "limit", 20, "maximum selections to show")
	return cmd
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(selectionsCmd)
}
