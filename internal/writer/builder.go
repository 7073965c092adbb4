// internal/writer/builder.go
package writer

import (
	"time"

	cfg "github.com/tamzrod/dboard-bringup/internal/config"
	wmodbus "github.com/tamzrod/dboard-bringup/internal/writer/modbus"
)

// BuildStatusPlan converts one board config into a status plan. It returns
// nil when the board has no Modbus status block.
// Assumes config has already passed validation.
func BuildStatusPlan(d cfg.DboardConfig) *StatusPlan {
	if d.Status == nil || d.Status.Endpoint == "" {
		return nil
	}
	return &StatusPlan{
		Endpoint:   d.Status.Endpoint,
		UnitID:     d.Status.UnitID,
		BaseSlot:   d.Status.BaseSlot,
		DeviceName: d.Name,
	}
}

// BuildEndpointClients creates one TCP client per unique status endpoint.
func BuildEndpointClients(boards []cfg.DboardConfig) (map[string]endpointClient, func() error, error) {
	timeouts := map[string]int{}
	for _, d := range boards {
		if p := BuildStatusPlan(d); p != nil {
			timeouts[p.Endpoint] = d.Status.TimeoutMs
		}
	}

	clients := make(map[string]endpointClient)
	var closers []func() error

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	for endpoint, ms := range timeouts {
		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: endpoint,
			Timeout:  time.Duration(ms) * time.Millisecond,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, c.Close)
	}

	return clients, closeAll, nil
}
