// cmd/bringup/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	slotSel int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bringup",
		Short: "Magnesium daughterboard bring-up and JESD204B link training",
		Long: `bringup powers a daughterboard, configures its sample clocks,
trains the JESD204B link between FPGA and transceiver and reports the
board's sensors and status.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "bringup.yaml", "configuration file")
	rootCmd.PersistentFlags().IntVarP(&slotSel, "slot", "s", -1, "daughterboard slot (default: every configured slot)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(rateCmd())
	rootCmd.AddCommand(sensorsCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(cpldCmd())
	rootCmd.AddCommand(coreCmd())
	rootCmd.AddCommand(eepromCmd())
	rootCmd.AddCommand(powerOffCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
