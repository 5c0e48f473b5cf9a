// Command sendctl opens a serial device and periodically publishes a
// fixed-size telemetry frame, exercising port.Simple (github.com/tarm/
// serial) the same way the teacher repo's send program drove the raw
// serial port directly.
package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/relaylink/commlink/comm"
	"github.com/relaylink/commlink/logger"
)

const cmdTelemetry uint16 = 0x0001

// telemetry is the fixed-layout payload this program advertises under
// cmdTelemetry. Field order and width are the wire contract both ends
// must agree on — the library never inspects it.
type telemetry struct {
	SampleID  uint32
	MilliVolt uint16
	Flags     uint8
}

func main() {
	path := flag.String("port", "/dev/ttyUSB0", "serial device path")
	baud := flag.Int("baud", 115200, "baud rate")
	sof := flag.Uint("sof", 0x05, "start-of-frame byte")
	period := flag.Duration("period", time.Second, "publish interval")
	flag.Parse()

	log := logger.New(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	h := comm.Open(*path, *baud, byte(*sof), comm.WithLogger(log))
	h.SetAutoReconnect(true)

	pub := comm.Advertise[telemetry](h, cmdTelemetry)

	var sampleID uint32
	for range time.Tick(*period) {
		sampleID++
		sample := telemetry{
			SampleID:  sampleID,
			MilliVolt: uint16(3000 + rand.Intn(300)),
			Flags:     0,
		}
		sent, err := pub.Publish(sample)
		if err != nil {
			log.Error("sendctl: publish failed", "err", err)
			continue
		}
		if !sent {
			log.Warn("sendctl: short write", "sample", sampleID)
			continue
		}
		log.Info("sendctl: published sample", "id", sampleID, "mv", sample.MilliVolt)
	}
}
