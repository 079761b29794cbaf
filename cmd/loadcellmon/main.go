// loadcellmon streams calibrated force/moment readings from a six-axis
// load cell, either from the onboard strain amplifier over I2C or from an
// actuator relaying the channels over a serial link.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/edaniels/golog"
	"github.com/go-daq/smbus"

	"github.com/openlimb/sensecore/pkg/config"
	"github.com/openlimb/sensecore/pkg/joint"
	"github.com/openlimb/sensecore/pkg/loadcell"
	"github.com/openlimb/sensecore/pkg/strainamp"
)

func main() {
	var (
		configFlag     = flag.String("config", "sensecore.yaml", "Configuration file path")
		zeroFlag       = flag.Bool("zero", false, "Run the zeroing routine before streaming")
		iterationsFlag = flag.Int("iterations", loadcell.DefaultIterations, "Samples to average while zeroing")
		intervalFlag   = flag.Duration("interval", 10*time.Millisecond, "Poll interval of the control loop")
		yesFlag        = flag.Bool("y", false, "Skip the zeroing confirmation prompt")
	)
	flag.Parse()

	logger := golog.NewLogger("loadcellmon")

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	var src loadcell.RawChannelSource
	switch cfg.Source {
	case config.SourceJoint:
		relay := joint.NewSerial(cfg.Joint.Port, cfg.Joint.BaudRate)
		if err := relay.Connect(); err != nil {
			logger.Fatalf("failed to connect to actuator relay: %v", err)
		}
		defer relay.Close()
		src = loadcell.NewJointSource(relay)
	default:
		conn, err := smbus.Open(cfg.I2C.Bus, cfg.I2C.Addr)
		if err != nil {
			logger.Fatalf("failed to open i2c bus %d: %v", cfg.I2C.Bus, err)
		}
		defer conn.Close()
		src = strainamp.New(conn, cfg.I2C.Addr)
	}

	lc, err := loadcell.New(src, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to create load cell engine: %v", err)
	}

	if *zeroFlag {
		confirmed := *yesFlag || confirm("About to zero the load cell, make sure it is unloaded. Continue?")
		lc.Calibrate(*iterationsFlag, true, confirmed)
	}

	ticker := time.NewTicker(*intervalFlag)
	defer ticker.Stop()

	for range ticker.C {
		lc.Update(nil)
		fmt.Printf("\rfx=%9.2f fy=%9.2f fz=%9.2f mx=%8.2f my=%8.2f mz=%8.2f",
			lc.Fx(), lc.Fy(), lc.Fz(), lc.Mx(), lc.My(), lc.Mz())
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y")
}
