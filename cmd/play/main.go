package main

import (
	"context"
	"flag"
	"fmt"
	stdio "io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfcm/polysynth"
	"github.com/pfcm/polysynth/hid"
	"github.com/pfcm/polysynth/io"
	"github.com/pfcm/polysynth/osc"
)

var (
	rateFlag     = flag.Int("rate", 44100, "sample rate in Hz")
	channelsFlag = flag.Int("channels", 2, "number of output channels, all carrying the same signal")
	headroomFlag = flag.Float64("headroom", 4, "the mix of all voices is divided by this before clipping")
	octaveFlag   = flag.Int("octave", 4, "starting octave, 1 to 7")
	waveFlag     = flag.String("wave", "sine", "starting waveform: sine, triangle, square or sawtooth")
	attackFlag   = flag.Duration("attack", 0, "fade in time for each note")
	releaseFlag  = flag.Duration("release", 0, "fade out time for each note")

	backendFlag = flag.String("backend", "malgo", "where to send audio: malgo, oto or offline")
	formatFlag  = flag.String("format", "f32", "sample format for the malgo backend: f32, s16 or u8")
	periodFlag  = flag.Int("period", 0, "frames per audio callback for the malgo backend, 0 for the device default")

	inputFlag = flag.String("input", "window", "where keys come from: window or terminal")
	holdFlag  = flag.Duration("hold", 600*time.Millisecond, "with -input=terminal, how long a key sounds after its last repeat")

	profileFlag = flag.Bool("profile", false, "whether to write pprof profiles to the current working directory")
	writeFlag   = flag.Bool("write", false, "if true, writes the output to a wav file in the current directory")
	renderFlag  = flag.Duration("render", 0, "if set, records this much of the performance to a wav file without a sound card")
)

func main() {
	flag.Parse()

	if *profileFlag {
		finish, err := startProfiles()
		if err != nil {
			log.Fatalf("Starting profiling: %v", err)
		}
		defer func() {
			if err := finish(); err != nil {
				log.Fatalf("Finishing profiles: %v", err)
			}
		}()
	}

	cfg, err := config()
	if err != nil {
		log.Fatalf("Bad flags: %v", err)
	}
	logger := log.New(os.Stderr, "", 0)
	if *inputFlag == "terminal" {
		// The terminal is in raw mode while keys are read.
		logger = log.New(hid.CRLF(os.Stderr), "\r\x1b[K", 0)
	}
	engine, err := polysynth.NewEngine(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	var filename string
	if *writeFlag || *renderFlag > 0 {
		filename = fmt.Sprintf("out-%d.wav", time.Now().Unix())
		fmt.Fprintf(os.Stderr, "Writing output to %q\n", filename)
	}
	sink, err := newSink(cfg.SampleRate, filename)
	if err != nil {
		log.Fatalf("Bad flags: %v", err)
	}
	source, status, err := newSource()
	if err != nil {
		log.Fatalf("Bad flags: %v", err)
	}

	s := &session{
		engine: engine,
		meter:  polysynth.NewMeter(cfg.Channels),
		sink:   sink,
		source: source,
		status: status,
		out:    os.Stdout,
	}
	if err := s.run(interruptContext()); err != nil {
		log.Fatal(err)
	}
}

// session plays the engine through a sink while a source feeds it keys.
type session struct {
	engine *polysynth.Engine
	meter  *polysynth.Meter
	sink   io.Sink
	source hid.Source
	// status gets the status line as well as out.
	status func(string)
	out    stdio.Writer
}

// run opens the sink before reading any keys, so that a missing device is
// reported before a window opens or the terminal goes raw. It returns when
// the source quits, ctx is done or the sink stops.
func (s *session) run(ctx context.Context) error {
	play, err := s.sink.Open(polysynth.Serially(s.engine, s.meter))
	if err != nil {
		return fmt.Errorf("opening audio output: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return play(ctx)
	})
	g.Go(func() error {
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Fprint(s.out, "\r\n")
				return nil
			case <-t.C:
				var levels []string
				for _, f := range s.meter.Levels() {
					levels = append(levels, fmt.Sprintf("%.2f", f))
				}
				line := fmt.Sprintf("%v  VOICES : %d", s.engine.State(), s.engine.Sounding())
				s.status(line)
				fmt.Fprintf(s.out, "\r%s  %v", line, levels)
			}
		}
	})

	// The window has to run on the main goroutine.
	err = s.source.Run(ctx, func(ev hid.Event) {
		if s.engine.Handle(ev) {
			cancel()
		}
	})
	cancel()
	if werr := g.Wait(); werr != nil {
		return werr
	}
	if err != nil {
		return fmt.Errorf("reading keys: %w", err)
	}
	return nil
}

func config() (polysynth.Config, error) {
	wave, err := osc.ParseKind(*waveFlag)
	if err != nil {
		return polysynth.Config{}, err
	}
	cfg := polysynth.DefaultConfig()
	cfg.SampleRate = *rateFlag
	cfg.Channels = *channelsFlag
	cfg.Headroom = *headroomFlag
	cfg.Octave = *octaveFlag
	cfg.Waveform = wave
	cfg.Attack = *attackFlag
	cfg.Release = *releaseFlag
	return cfg, cfg.Validate()
}

func newSink(rate int, filename string) (io.Sink, error) {
	if *renderFlag > 0 {
		return io.Offline{SampleRate: rate, Duration: *renderFlag, Realtime: true, Record: filename}, nil
	}
	switch *backendFlag {
	case "malgo":
		format, err := io.ParseFormat(*formatFlag)
		if err != nil {
			return nil, err
		}
		return io.Device{
			SampleRate:   rate,
			Format:       format,
			PeriodFrames: *periodFlag,
			Record:       filename,
		}, nil
	case "oto":
		return io.Oto{SampleRate: rate, Record: filename}, nil
	case "offline":
		return io.Offline{SampleRate: rate, Realtime: true, Record: filename}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", *backendFlag)
}

// newSource returns where keys come from and somewhere to show the status
// line other than stdout.
func newSource() (hid.Source, func(string), error) {
	switch *inputFlag {
	case "window":
		w := hid.NewWindow("polysynth", 480, 120)
		return w, w.SetStatus, nil
	case "terminal":
		return hid.NewTerminal(os.Stdin, *holdFlag), func(string) {}, nil
	}
	return nil, nil, fmt.Errorf("unknown input %q", *inputFlag)
}

func interruptContext() context.Context {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ctx
}

func startProfiles() (func() error, error) {
	cpu, err := os.Create("cpu.pprof")
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(cpu); err != nil {
		return nil, fmt.Errorf("starting cpu profile: %w", err)
	}

	mem, err := os.Create("mem.pprof")
	if err != nil {
		return nil, err
	}
	return func() error {
		pprof.StopCPUProfile()
		if err := cpu.Close(); err != nil {
			return err
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(mem); err != nil {
			return err
		}
		return mem.Close()
	}, nil
}
