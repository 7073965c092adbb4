// cmd/bringup/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tamzrod/dboard-bringup/internal/asic"
	"github.com/tamzrod/dboard-bringup/internal/dboard"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Bring up the daughterboards and train the JESD204B link",
		RunE: func(_ *cobra.Command, _ []string) error {
			boards, closeAll, err := attachBoards()
			if err != nil {
				return err
			}
			defer closeAll()

			var failed []string
			for _, b := range boards {
				if err := initialize(b); err != nil {
					fmt.Fprintln(os.Stderr, err)
					failed = append(failed, fmt.Sprint(b.cfg.Slot))
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("bring-up failed on slot(s) %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

func rateCmd() *cobra.Command {
	var ref, mcr float64

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Bring up a board, then move it to a new master clock rate",
		RunE: func(_ *cobra.Command, _ []string) error {
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()

			if err := initialize(b); err != nil {
				return err
			}

			cc := b.cfg.ClockConfig()
			if ref != 0 {
				cc.RefClockHz = ref
			}
			cc.MasterClockHz = mcr
			if err := b.db.UpdateRate(cc); err != nil {
				return err
			}
			fmt.Printf("slot %d: %s, lane rate %v\n", b.cfg.Slot, cc, b.db.LaneRate())
			return nil
		},
	}

	cmd.Flags().Float64Var(&mcr, "mcr", dboard.DefaultMasterClockHz, "new master clock rate in Hz")
	cmd.Flags().Float64Var(&ref, "ref", 0, "new reference clock in Hz (default: keep)")
	return cmd
}

func sensorsCmd() *cobra.Command {
	var doInit bool

	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "Print the sensor readings of a board as JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()

			if doInit {
				if err := initialize(b); err != nil {
					return err
				}
			}

			out := map[string][]dboard.Sensor{}
			if out["board"], err = b.db.BoardSensors(); err != nil {
				return err
			}
			if out["power"], err = b.db.PowerGood(); err != nil {
				return err
			}
			for _, dir := range []asic.Direction{asic.RX, asic.TX} {
				s, err := b.db.Sensors(dir)
				if err != nil {
					return err
				}
				out[strings.ToLower(string(dir))] = s
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().BoolVar(&doInit, "init", false, "run the bring-up before reading")
	return cmd
}

func powerOffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poweroff",
		Short: "Remove power from a board",
		RunE: func(_ *cobra.Command, _ []string) error {
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()
			return b.db.PowerOff()
		},
	}
}
