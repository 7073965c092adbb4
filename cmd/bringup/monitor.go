// cmd/bringup/monitor.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinasystems/log"
	"github.com/spf13/cobra"

	"github.com/tamzrod/dboard-bringup/internal/config"
	"github.com/tamzrod/dboard-bringup/internal/monitor"
	"github.com/tamzrod/dboard-bringup/internal/writer"
)

func monitorCmd() *cobra.Command {
	var skipInit bool

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Bring up the boards and publish sensors and status until interrupted",
		RunE: func(_ *cobra.Command, _ []string) error {
			boards, closeAll, err := attachBoards()
			if err != nil {
				return err
			}
			defer closeAll()

			cfgs := make([]config.DboardConfig, len(boards))
			for i, b := range boards {
				cfgs[i] = b.cfg
			}
			clients, closeWriters, err := writer.BuildEndpointClients(cfgs)
			if err != nil {
				return fmt.Errorf("status clients: %w", err)
			}
			defer closeWriters()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, b := range boards {
				// A failed bring-up is reported through the status block.
				if !skipInit {
					if err := initialize(b); err != nil {
						log.Print("err", err)
					}
				}

				var (
					sw  monitor.StatusWriter
					pub monitor.SensorPublisher
				)
				var writers []writer.StatusWriter
				if plan := writer.BuildStatusPlan(b.cfg); plan != nil {
					if w, ok := writer.NewDeviceStatusWriter(plan, clients); ok {
						writers = append(writers, w)
					}
				}
				if b.cfg.Status != nil && b.cfg.Status.Redis {
					rp, err := writer.NewRedisPublisher(fmt.Sprintf("dboard%d.", b.cfg.Slot))
					if err != nil {
						return err
					}
					writers = append(writers, rp)
					pub = rp
				}
				if w := writer.New(writers...); w != nil {
					sw = w
				}

				s, err := monitor.New(b.db, b.cfg.Monitor.Interval())
				if err != nil {
					return fmt.Errorf("slot %d: %w", b.cfg.Slot, err)
				}
				monitor.Start(ctx, s, sw, pub)
				log.Printf("info", "slot %d: monitoring every %v", b.cfg.Slot, b.cfg.Monitor.Interval())
			}

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipInit, "no-init", false, "monitor without running the bring-up first")
	return cmd
}
