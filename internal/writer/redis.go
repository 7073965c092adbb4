// internal/writer/redis.go
package writer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/platinasystems/log"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"

	"github.com/tamzrod/dboard-bringup/internal/dboard"
	"github.com/tamzrod/dboard-bringup/internal/status"
)

// RedisPublisher publishes a board's sensors and status as "key: value"
// lines on the redis publisher. A value is published only when it changed.
type RedisPublisher struct {
	prefix string
	print  func(a ...interface{})

	mu   sync.Mutex
	last map[string]string
}

// NewRedisPublisher connects to the local redis server. Keys are prefixed
// with prefix, e.g. "dboard0.".
func NewRedisPublisher(prefix string) (*RedisPublisher, error) {
	if err := redis.IsReady(); err != nil {
		return nil, fmt.Errorf("redis publisher: %w", err)
	}
	pub, err := publisher.New()
	if err != nil {
		return nil, fmt.Errorf("redis publisher: %w", err)
	}
	return newRedisPublisher(prefix, func(a ...interface{}) { pub.Print(a...) }), nil
}

func newRedisPublisher(prefix string, print func(a ...interface{})) *RedisPublisher {
	return &RedisPublisher{prefix: prefix, print: print, last: make(map[string]string)}
}

func (p *RedisPublisher) publish(key, v string) {
	k := p.prefix + key
	if p.last[k] == v {
		return
	}
	p.print(k, ": ", v)
	p.last[k] = v
}

// PublishSensors publishes sensor values under "<dir>.<name>", or under
// the bare name when dir is empty.
func (p *RedisPublisher) PublishSensors(dir string, sensors []dboard.Sensor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range sensors {
		key := s.Name
		if dir != "" {
			key = strings.ToLower(dir) + "." + s.Name
		}
		p.publish(key, s.Value)
	}
	return nil
}

// WriteStatus publishes the live status fields.
func (p *RedisPublisher) WriteStatus(s status.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publish("status.health", healthName(s.Health))
	p.publish("status.last_error", fmt.Sprint(s.LastErrorCode))
	p.publish("status.seconds_in_error", fmt.Sprint(s.SecondsInError))
	p.publish("status.flags", fmt.Sprintf("0x%x", s.Flags))
	p.publish("status.lane_rate_mbps", fmt.Sprint(s.LaneRateMbps))
	log.Print("debug", p.prefix, "status published")
	return nil
}

func healthName(h uint16) string {
	switch h {
	case status.HealthOK:
		return "ok"
	case status.HealthError:
		return "error"
	case status.HealthDisabled:
		return "disabled"
	}
	return "unknown"
}
