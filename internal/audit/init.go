package audit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wso2/xs2a-sca-engine/internal/system/config"
)

// New builds the sinks named in cfg. The returned close function waits for in-flight events
// and releases the backend connections.
func New(cfg config.AuditConfig) (Sink, func() error, error) {
	var (
		sinks   Multi
		closers []func() error
	)

	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	for _, name := range cfg.Sinks {
		switch strings.ToLower(name) {
		case "log":
			sinks = append(sinks, NewLogSink())
		case "http":
			sink, err := NewHTTPSink(cfg.HTTPURL)
			if err != nil {
				return nil, nil, errors.Join(fmt.Errorf("audit http sink: %w", err), closeAll())
			}
			sinks = append(sinks, sink)
			closers = append(closers, func() error { sink.Wait(); return nil })
		case "redis":
			client, err := NewRedisClient(cfg.Redis)
			if err != nil {
				return nil, nil, errors.Join(fmt.Errorf("audit redis sink: %w", err), closeAll())
			}
			sink := NewRedisSink(client, cfg.Redis.Stream, cfg.Redis.MaxLen)
			sinks = append(sinks, sink)
			closers = append(closers, func() error { sink.Wait(); return client.Close() })
		default:
			return nil, nil, errors.Join(fmt.Errorf("unknown audit sink %q", name), closeAll())
		}
	}

	if len(sinks) == 0 {
		return Nop{}, closeAll, nil
	}
	return sinks, closeAll, nil
}
