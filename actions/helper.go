package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghodss/yaml"
	"github.com/relloyd/tableload/logger"
)

const (
	OutputFormatText = ""
	OutputFormatCsv  = "csv"
	OutputFormatJson = "json"
	OutputFormatYaml = "yaml"
)

// writeYamlOrJson marshals v in the given format and writes it to w.
func writeYamlOrJson(w io.Writer, v interface{}, format string) error {
	var data []byte
	var err error
	switch format {
	case OutputFormatYaml:
		data, err = yaml.Marshal(v)
	case OutputFormatJson:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WithInterrupt returns a context that is cancelled on SIGINT or SIGTERM.
// A second signal is left to the default handler.
func WithInterrupt(ctx context.Context, log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancelFn := context.WithCancel(ctx)
	chanQuit := make(chan os.Signal, 1)
	signal.Notify(chanQuit, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-chanQuit: // if we were interrupted...
			log.Warn("User abort. Stopping...")
			signal.Stop(chanQuit)
			cancelFn()
		case <-ctx.Done():
			signal.Stop(chanQuit)
		}
	}()
	return ctx, cancelFn
}

func stdoutIfNil(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
