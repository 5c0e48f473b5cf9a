// Command recvctl opens a serial device, subscribes to the telemetry
// command sendctl publishes, and logs every decoded sample until
// interrupted.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/relaylink/commlink/comm"
	"github.com/relaylink/commlink/logger"
)

const cmdTelemetry uint16 = 0x0001

type telemetry struct {
	SampleID  uint32
	MilliVolt uint16
	Flags     uint8
}

func main() {
	path := flag.String("port", "/dev/ttyUSB0", "serial device path")
	baud := flag.Int("baud", 115200, "baud rate")
	sof := flag.Uint("sof", 0x05, "start-of-frame byte")
	any := flag.Bool("any", false, "scan /dev for the first candidate device instead of using -port")
	flag.Parse()

	log := logger.New(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	var h *comm.Handle
	if *any {
		h = comm.OpenAny(*baud, byte(*sof), comm.WithLogger(log))
	} else {
		h = comm.Open(*path, *baud, byte(*sof), comm.WithLogger(log))
	}
	h.SetAutoReconnect(true)

	if err := comm.Subscribe(h, cmdTelemetry, func(t telemetry) {
		log.Info("recvctl: sample received", "id", t.SampleID, "mv", t.MilliVolt, "flags", t.Flags)
	}); err != nil {
		log.Error("recvctl: subscribe failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("recvctl: receiving", "port", *path)
	if err := h.StartReceiving(ctx); err != nil {
		log.Error("recvctl: receive loop exited with error", "err", err)
		os.Exit(1)
	}
}
