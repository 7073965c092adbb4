// cmd/bringup/debug.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func parseUint(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return v, nil
}

func cpldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cpld",
		Short: "Access CPLD registers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "peek ADDR",
		Short: "Read a 16-bit CPLD register",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			addr, err := parseUint(args[0], 32)
			if err != nil {
				return err
			}
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()

			v, err := b.db.CPLDPeek(uint32(addr))
			if err != nil {
				return err
			}
			fmt.Printf("0x%04X\n", v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "poke ADDR VALUE",
		Short: "Write a 16-bit CPLD register and print the read back",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			addr, err := parseUint(args[0], 32)
			if err != nil {
				return err
			}
			v, err := parseUint(args[1], 16)
			if err != nil {
				return err
			}
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()

			got, err := b.db.CPLDPoke(uint32(addr), uint16(v))
			if err != nil {
				return err
			}
			fmt.Printf("0x%04X\n", got)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Print the CPLD signature, revision and build code",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()

			info, err := b.db.CPLDInfo()
			if err != nil {
				return err
			}
			fmt.Println(info)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "scratch VALUE",
		Short: "Write the scratch register and print the read back",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			v, err := parseUint(args[0], 16)
			if err != nil {
				return err
			}
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()

			got, err := b.db.CPLDScratch(uint16(v))
			if err != nil {
				return err
			}
			fmt.Printf("0x%04X\n", got)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset the CPLD",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()
			return b.db.ResetCPLD()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "pdac on|off",
		Short:     "Give the phase DAC exclusive control of the VCXO",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(_ *cobra.Command, args []string) error {
			var on bool
			switch args[0] {
			case "on":
				on = true
			case "off":
			default:
				return fmt.Errorf("invalid argument %q (want on or off)", args[0])
			}
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()
			return b.db.SetPDACControl(on)
		},
	})

	return cmd
}

func coreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "core",
		Short: "Access dboard control and JESD204B core registers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "peek ADDR",
		Short: "Read a 32-bit core register",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			addr, err := parseUint(args[0], 32)
			if err != nil {
				return err
			}
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()

			v, err := b.db.CorePeek(uint32(addr))
			if err != nil {
				return err
			}
			fmt.Printf("0x%08X\n", v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "poke ADDR VALUE",
		Short: "Write a 32-bit core register",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			addr, err := parseUint(args[0], 32)
			if err != nil {
				return err
			}
			v, err := parseUint(args[1], 32)
			if err != nil {
				return err
			}
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()
			return b.db.CorePoke(uint32(addr), uint32(v))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Dump the JESD204B core registers",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()
			return b.db.DumpCore(os.Stdout)
		},
	})

	return cmd
}

func eepromCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eeprom",
		Short: "Read or write the user EEPROM blobs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print every stored blob",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()

			blobs, err := b.db.UserData()
			if err != nil {
				return err
			}
			for k, v := range blobs {
				fmt.Printf("%s=%q\n", k, v)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY=VALUE...",
		Short: "Store blobs and wait for the EEPROM write-back",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			blobs := make(map[string][]byte, len(args))
			for _, a := range args {
				k, v, ok := strings.Cut(a, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid blob %q (want KEY=VALUE)", a)
				}
				blobs[k] = []byte(v)
			}

			b, closeAll, err := attachOne()
			if err != nil {
				return err
			}
			defer closeAll()

			if err := b.db.SetUserData(blobs); err != nil {
				return err
			}
			return b.db.WaitUserData()
		},
	})

	return cmd
}
