package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/lavatx/api"
	"github.com/matt-g-everett/lavatx/logging"
	"github.com/matt-g-everett/lavatx/manifest"
	"github.com/matt-g-everett/lavatx/playback"
	"github.com/matt-g-everett/lavatx/stream"
	"golang.org/x/sync/errgroup"
)

const (
	loadRetryMin = time.Second
	loadRetryMax = 30 * time.Second
)

type instance struct {
	config     stream.AnimationConfig
	renderer   *stream.Renderer
	scheduler  *playback.Scheduler
	controller *stream.Controller
}

type app struct {
	config    stream.Config
	logger    *slog.Logger
	client    mqtt.Client
	host      *playback.TickerHost
	instances []*instance
}

func newApp(config stream.Config, logger *slog.Logger) *app {
	a := new(app)
	a.config = config
	a.logger = logger
	a.host = playback.NewTickerHost(config.RefreshHz)
	return a
}

func (a *app) handleOnConnect(client mqtt.Client) {
	a.logger.Info("connected", "broker", a.config.Mqtt.URL)
	for _, inst := range a.instances {
		if err := inst.controller.Subscribe(); err != nil {
			a.logger.Error("subscribe failed", "animation", inst.config.Name, "error", err)
		}
	}
}

func (a *app) handleConnectionLost(client mqtt.Client, err error) {
	a.logger.Warn("connection lost", "error", err)
}

func (a *app) build() error {
	options := mqtt.NewClientOptions().
		AddBroker(a.config.Mqtt.URL).
		SetClientID(a.config.Mqtt.ClientID).
		SetUsername(a.config.Mqtt.Username).
		SetPassword(a.config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(a.handleOnConnect).
		SetConnectionLostHandler(a.handleConnectionLost)
	a.client = mqtt.NewClient(options)

	source := manifest.NewFetcher(nil)
	for _, ac := range a.config.Animations {
		logger := a.logger.With("animation", ac.Name)
		streamer := stream.NewStreamer(a.client, a.config.StreamTopic(ac.Name), a.config.Mqtt.QoS)
		renderer := stream.NewRenderer(source, streamer, a.config.Pixels, logger)
		scheduler, err := playback.NewScheduler(renderer, a.host, source, ac.Playback, logger)
		if err != nil {
			return fmt.Errorf("animation %q: %w", ac.Name, err)
		}
		controller := stream.NewController(a.client, ac.Name, scheduler,
			a.config.CommandTopic(ac.Name), a.config.StatusTopic(ac.Name), a.logger)
		a.instances = append(a.instances, &instance{config: ac, renderer: renderer, scheduler: scheduler, controller: controller})
	}
	return nil
}

func (a *app) controls() map[string]playback.Control {
	controls := make(map[string]playback.Control, len(a.instances))
	for _, inst := range a.instances {
		controls[inst.config.Name] = inst.scheduler
	}
	return controls
}

func (a *app) run(ctx context.Context) error {
	if token := a.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to %s: %w", a.config.Mqtt.URL, token.Error())
	}
	defer a.client.Disconnect(250)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.host.Run(ctx)
	})
	server := api.NewApi(a.config.Api.Addr, a.config.Api.Static, a.controls(), a.logger)
	g.Go(func() error {
		return server.Serve(ctx)
	})

	// A failing animation keeps retrying in the background; it never cancels
	// the rest of the gallery.
	for _, inst := range a.instances {
		g.Go(func() error {
			if err := inst.scheduler.LoadRetry(ctx, inst.config.Path, loadRetryMin, loadRetryMax); err != nil && ctx.Err() == nil {
				a.logger.Warn("animation never loaded", "animation", inst.config.Name, "path", inst.config.Path, "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	for _, inst := range a.instances {
		inst.controller.Close()
		inst.scheduler.Close()
		inst.renderer.Close()
	}
	return err
}

var stripePalette = []colorful.Color{
	{R: 0.45, G: 0, B: 0.02},
	{R: 0.6, G: 0.25, B: 0},
	colorful.Hcl(280.0, 1.0, 0.06),
}

func bake(dir, animation string, frames int, fps float64, pixels int) error {
	if frames < 1 || fps <= 0 || pixels < 1 {
		return fmt.Errorf("bake needs frames >= 1, fps > 0 and pixels >= 1, got %d, %v and %d", frames, fps, pixels)
	}
	loopMs := float64(frames) / fps * 1000

	var anim stream.Animation
	switch animation {
	case "gradient":
		// One trail length per loop so the last frame leads into the first.
		trail := max(pixels/4, 1)
		anim = stream.NewGradientTrail(stream.RainbowGradient, pixels, trail, float64(trail)/loopMs)
	case "twinkle":
		fore := colorful.Color{R: 1, G: 0.6, B: 0.1}
		back := colorful.Color{R: 0.05, G: 0, B: 0.1}
		periodMs := int64(loopMs)
		anim = stream.NewTwinkle(pixels, pixels/10+1, fore, back, periodMs, rand.New(rand.NewSource(time.Now().UnixNano())))
	case "stripes":
		stripes := stream.NewStripes(pixels, 8, stripePalette, 40, 160, rand.New(rand.NewSource(time.Now().UnixNano())))
		stripes.SetSpeed(stripes.RingLength() / loopMs)
		anim = stripes
	default:
		return fmt.Errorf("unknown animation %q", animation)
	}

	m, err := stream.Bake(anim, frames, fps)
	if err != nil {
		return err
	}
	return manifest.Write(dir, m)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func main() {
	mqtt.ERROR = log.New(os.Stdout, "", 0)

	// Parse command line parameters
	configPath := flag.String("config", envOr("LAVATX_CONFIG", "config.yaml"), "YAML config file.")
	logLevel := flag.String("log-level", os.Getenv("LAVATX_LOG_LEVEL"), "Log level (debug, info, warn, error).")
	bakeDir := flag.String("bake", "", "Write a baked manifest to this directory and exit.")
	bakeAnimation := flag.String("bake-animation", "gradient", "Animation to bake (gradient, twinkle, stripes).")
	bakeFrames := flag.Int("frames", 120, "Number of frames to bake.")
	bakeFPS := flag.Float64("fps", 30, "Base frame rate of the baked manifest.")
	bakePixels := flag.Int("pixels", stream.DefaultPixels, "Pixels per baked frame.")
	flag.Parse()

	if *bakeDir != "" {
		logger := logging.New("lavatx", *logLevel)
		if err := bake(*bakeDir, *bakeAnimation, *bakeFrames, *bakeFPS, *bakePixels); err != nil {
			logger.Error("bake failed", "error", err)
			os.Exit(1)
		}
		logger.Info("baked manifest", "dir", *bakeDir, "animation", *bakeAnimation, "frames", *bakeFrames)
		return
	}

	config, err := stream.ReadConfig(*configPath)
	if err != nil {
		logging.New("lavatx", *logLevel).Error("failed to read config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *logLevel == "" {
		*logLevel = config.LogLevel
	}
	logger := logging.New("lavatx", *logLevel)
	logger.Info("config loaded", "path", *configPath, "animations", len(config.Animations), "pixels", config.Pixels)

	a := newApp(config, logger)
	if err := a.build(); err != nil {
		logger.Error("failed to build gallery", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx); err != nil {
		logger.Error("exited", "error", err)
		os.Exit(1)
	}
}
