// Command bindcat wires a BindMessageWriter against an in-memory
// transport and prints the resulting Bind message as a hex dump, for
// manual wire-format inspection (§10.4).
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/guileen/pgwirebind/arraycodec"
	"github.com/guileen/pgwirebind/binding"
	"github.com/guileen/pgwirebind/buffer"
	"github.com/guileen/pgwirebind/config"
	"github.com/guileen/pgwirebind/handler"
	"github.com/guileen/pgwirebind/metrics"
	"github.com/guileen/pgwirebind/protocol/bindwriter"
	"github.com/guileen/pgwirebind/transport"
)

// memoryTransport accumulates every flushed byte in order; it never
// needs to serve Fill since bindcat only exercises the write side.
type memoryTransport struct {
	out []byte
}

func (t *memoryTransport) Flush(p []byte) error {
	t.out = append(t.out, p...)
	return nil
}

func (t *memoryTransport) Fill(dest []byte) (int, error) { return 0, nil }

func main() {
	var (
		portal    = flag.String("portal", "", "portal name (empty = unnamed)")
		statement = flag.String("statement", "", "source statement name (empty = unnamed)")
		intArg    = flag.Int("int4", 42, "int4 parameter value to bind")
		textArg   = flag.String("text", "", "text parameter value to bind (omit to skip)")
		arrayArg  = flag.String("int4-array", "", "comma-separated int4 array to bind (e.g. 1,2,3)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("bindcat: invalid configuration: %v", err)
	}

	reg := handler.NewDefaultRegistry()
	if err := arraycodec.RegisterArrayHandlers(reg); err != nil {
		log.Fatalf("bindcat: registering array handlers: %v", err)
	}
	m := metrics.New(prometheus.NewRegistry())
	reg.SetMetrics(m)

	var params []*binding.Parameter
	p, err := binding.Bind(reg, "int4", "", int32(*intArg), false)
	if err != nil {
		log.Fatalf("bindcat: binding int4 parameter: %v", err)
	}
	params = append(params, p)

	if *textArg != "" {
		p, err := binding.Bind(reg, "text", "", *textArg, false)
		if err != nil {
			log.Fatalf("bindcat: binding text parameter: %v", err)
		}
		params = append(params, p)
	}

	if *arrayArg != "" {
		values, err := parseInt4Array(*arrayArg)
		if err != nil {
			log.Fatalf("bindcat: parsing -int4-array: %v", err)
		}
		p, err := binding.Bind(reg, "_int4", "", values, false)
		if err != nil {
			log.Fatalf("bindcat: binding int4 array parameter: %v", err)
		}
		params = append(params, p)
	}

	w := bindwriter.New(*portal, *statement, params, nil, false)
	buf := buffer.New(cfg.BufferCapacity)
	mt := &memoryTransport{}
	if err := transport.DriveWriteMetered(context.Background(), w, buf, mt, m); err != nil {
		log.Fatalf("bindcat: writing Bind message: %v", err)
	}

	fmt.Printf("Bind message: %d bytes, %d parameters dispatched\n", len(mt.out), len(params))
	fmt.Println(hex.Dump(mt.out))
}

func parseInt4Array(s string) ([]any, error) {
	var out []any
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			var v int32
			if _, err := fmt.Sscanf(s[start:i], "%d", &v); err != nil {
				return nil, fmt.Errorf("invalid int4 %q: %w", s[start:i], err)
			}
			out = append(out, v)
			start = i + 1
		}
	}
	return out, nil
}
