package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ajbucci/rustfmsynth-sub000/audio"
	"github.com/ajbucci/rustfmsynth-sub000/codec"
	"github.com/ajbucci/rustfmsynth-sub000/config"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
	"github.com/ajbucci/rustfmsynth-sub000/patchstore"
	"github.com/ajbucci/rustfmsynth-sub000/protocol"
	"github.com/ajbucci/rustfmsynth-sub000/session"
)

func main() {
	var (
		cfgPath     = flag.String("config", "", "Path to TOML config file")
		module      = flag.String("module", "", "Audio module path or URL (overrides config)")
		patchName   = flag.String("patch", "", "Stored patch to load")
		share       = flag.String("share", "", "Share string or URL fragment to load")
		saveAs      = flag.String("save", "", "Save the resolved patch under this name and exit")
		section     = flag.String("section", "", "Section for -save")
		list        = flag.Bool("list", false, "List stored patches and exit")
		encode      = flag.Bool("encode", false, "Print the share string for the resolved patch and exit")
		wavPath     = flag.String("wav", "", "Render to this WAV file instead of the soundcard")
		note        = flag.Int("note", 60, "MIDI note to play")
		velocity    = flag.Int("velocity", 100, "MIDI velocity")
		seconds     = flag.Float64("seconds", 2, "Playback/render duration")
		interactive = flag.Bool("i", false, "Interactive keyboard mode")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if err := run(options{
		cfgPath:     *cfgPath,
		module:      *module,
		patchName:   *patchName,
		share:       *share,
		saveAs:      *saveAs,
		section:     *section,
		list:        *list,
		encode:      *encode,
		wavPath:     *wavPath,
		note:        *note,
		velocity:    *velocity,
		seconds:     *seconds,
		interactive: *interactive,
		verbose:     *verbose,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	cfgPath     string
	module      string
	patchName   string
	share       string
	saveAs      string
	section     string
	list        bool
	encode      bool
	wavPath     string
	note        int
	velocity    int
	seconds     float64
	interactive bool
	verbose     bool
}

func run(opts options) error {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return err
	}
	if opts.module != "" {
		cfg.ModulePath = opts.module
	}

	if opts.list {
		return listPatches(cfg)
	}

	p, err := resolvePatch(cfg, opts)
	if err != nil {
		return err
	}

	if opts.encode {
		state, err := codec.EncodePatch(p)
		if err != nil {
			return err
		}
		fmt.Println(state)
		fmt.Println("#" + codec.BuildFragment(state))
		return nil
	}

	if opts.saveAs != "" {
		return savePatch(cfg, opts, p)
	}

	logger := zap.NewNop()
	if opts.verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	bridge := session.New(newFetcher(cfg.ModulePath), session.Options{
		SampleRate:   cfg.SampleRate,
		BlockSize:    cfg.BlockSize,
		AckTimeout:   cfg.AckTimeoutDuration(),
		InitialPatch: p,
		Logger:       logger,
	})
	defer bridge.Close(context.Background())

	if opts.interactive {
		return runInteractive(bridge, cfg, p)
	}
	return playOnce(bridge, cfg, opts)
}

func newFetcher(modulePath string) session.Fetcher {
	if strings.HasPrefix(modulePath, "http://") || strings.HasPrefix(modulePath, "https://") {
		return &session.HTTPFetcher{URL: modulePath}
	}
	return session.FileFetcher(modulePath)
}

func resolvePatch(cfg config.Config, opts options) (*patch.Patch, error) {
	switch {
	case opts.share != "":
		state := opts.share
		if frag := codec.ParseFragment(opts.share); frag != "" {
			state = frag
		}
		p, err := codec.DecodePatch(state, patch.OperatorCount)
		if err != nil {
			// A corrupt link degrades to defaults rather than failing.
			fmt.Fprintf(os.Stderr, "share string unusable (%v), using default patch\n", err)
			return patch.Default(patch.OperatorCount), nil
		}
		return p, nil
	case opts.patchName != "":
		store, err := patchstore.Open(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		rec, err := store.Load(opts.patchName)
		if err != nil {
			return nil, err
		}
		return codec.DecodePatch(rec.State, patch.OperatorCount)
	default:
		return patch.Default(patch.OperatorCount), nil
	}
}

func listPatches(cfg config.Config) error {
	store, err := patchstore.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.List()
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("no stored patches")
		return nil
	}
	for _, rec := range recs {
		if rec.Section != "" {
			fmt.Printf("%s/%s\n", rec.Section, rec.Name)
		} else {
			fmt.Println(rec.Name)
		}
	}
	return nil
}

func savePatch(cfg config.Config, opts options, p *patch.Patch) error {
	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o755); err != nil {
		return err
	}
	store, err := patchstore.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := codec.EncodePatch(p)
	if err != nil {
		return err
	}
	if err := store.Save(patchstore.Record{Name: opts.saveAs, Section: opts.section, State: state}); err != nil {
		return err
	}
	fmt.Printf("saved %q\n", opts.saveAs)
	return nil
}

// playOnce boots the session, plays one note, and routes the audio to
// the soundcard or a WAV file.
func playOnce(bridge *session.Bridge, cfg config.Config, opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bridge.EnsureReady(ctx); err != nil {
		return err
	}

	bridge.Send(protocol.NoteOn{Note: uint8(opts.note), Velocity: uint8(opts.velocity)})

	// Release before the end so the tail decays inside the capture.
	hold := time.Duration(opts.seconds * 0.75 * float64(time.Second))
	time.AfterFunc(hold, func() {
		bridge.Send(protocol.NoteOff{Note: uint8(opts.note)})
	})

	blocks := bridge.Handle().Blocks()
	if opts.wavPath != "" {
		f, err := os.Create(opts.wavPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := audio.WriteWAV(ctx, f, blocks, cfg.SampleRate, opts.seconds); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", opts.wavPath)
		return nil
	}

	playCtx, cancel := context.WithTimeout(ctx, time.Duration(opts.seconds*float64(time.Second)))
	defer cancel()
	err := audio.Play(playCtx, blocks, cfg.SampleRate, cfg.BlockSize)
	if err == context.DeadlineExceeded {
		return nil
	}
	return err
}
