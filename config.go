/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/taprace/game"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind        string
	port        int
	prefix      string
	tlsCert     string
	tlsKey      string
	idleTimeout time.Duration

	rateLimit float64
	rateBurst int

	readyDelay        time.Duration
	roundTimeout      time.Duration
	roundGrace        time.Duration
	intermission      time.Duration
	resetCooldown     time.Duration
	minReaction       time.Duration
	eliminationRounds int

	debug   bool
	profile bool
	verbose bool
	version bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}

	for name, d := range map[string]time.Duration{
		"idle-timeout":   c.idleTimeout,
		"ready-delay":    c.readyDelay,
		"round-timeout":  c.roundTimeout,
		"round-grace":    c.roundGrace,
		"intermission":   c.intermission,
		"reset-cooldown": c.resetCooldown,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid --%s (must be positive): %s", name, d)
		}
	}

	if c.minReaction < 0 {
		return fmt.Errorf("invalid --min-reaction (must not be negative): %s", c.minReaction)
	}
	if c.minReaction >= c.roundTimeout {
		return fmt.Errorf("--min-reaction (%s) must be shorter than --round-timeout (%s)", c.minReaction, c.roundTimeout)
	}
	if c.eliminationRounds < 1 {
		return fmt.Errorf("invalid --elimination-rounds (must be at least 1): %d", c.eliminationRounds)
	}
	if c.rateLimit <= 0 || c.rateBurst < 1 {
		return fmt.Errorf("invalid rate limit (must be positive): %v/s, burst %d", c.rateLimit, c.rateBurst)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// settings overlays the configured timings on the game defaults.
func (c *Config) settings() game.Settings {
	s := game.DefaultSettings()

	s.ReadyDelay = c.readyDelay
	s.RoundTimeout = c.roundTimeout
	s.RoundGrace = c.roundGrace
	s.Intermission = c.intermission
	s.ResetCooldown = c.resetCooldown
	s.MinReaction = c.minReaction
	s.EliminationRounds = c.eliminationRounds

	return s
}

// envAliases lists extra variables honoured for a flag, after its prefixed
// name.
var envAliases = map[string][]string{
	"port": {"TAPRACE_PORT", "PORT"},
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TAPRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "taprace",
		Short:         "A multiplayer reaction-time game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	d := game.DefaultSettings()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TAPRACE_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 3000, "port to listen on (env: TAPRACE_PORT, PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TAPRACE_PREFIX)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TAPRACE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TAPRACE_TLS_KEY)")
	fs.DurationVar(&cfg.idleTimeout, "idle-timeout", time.Minute, "time before silent connections are dropped (env: TAPRACE_IDLE_TIMEOUT)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 20, "inbound events per second allowed per connection (env: TAPRACE_RATE_LIMIT)")
	fs.IntVar(&cfg.rateBurst, "rate-burst", 40, "inbound event burst allowed per connection (env: TAPRACE_RATE_BURST)")
	fs.DurationVar(&cfg.readyDelay, "ready-delay", d.ReadyDelay, "delay between everyone readying up and the first countdown (env: TAPRACE_READY_DELAY)")
	fs.DurationVar(&cfg.roundTimeout, "round-timeout", d.RoundTimeout, "time allowed to tap before a round ends (env: TAPRACE_ROUND_TIMEOUT)")
	fs.DurationVar(&cfg.roundGrace, "round-grace", d.RoundGrace, "delay between the last tap and the end of a round (env: TAPRACE_ROUND_GRACE)")
	fs.DurationVar(&cfg.intermission, "intermission", d.Intermission, "pause between rounds (env: TAPRACE_INTERMISSION)")
	fs.DurationVar(&cfg.resetCooldown, "reset-cooldown", d.ResetCooldown, "time results are shown before a room resets (env: TAPRACE_RESET_COOLDOWN)")
	fs.DurationVar(&cfg.minReaction, "min-reaction", d.MinReaction, "ignore taps faster than this, 0 to accept all (env: TAPRACE_MIN_REACTION)")
	fs.IntVar(&cfg.eliminationRounds, "elimination-rounds", d.EliminationRounds, "round cap for elimination mode (env: TAPRACE_ELIMINATION_ROUNDS)")
	fs.BoolVar(&cfg.debug, "debug", false, "expose room state at /debug/rooms (env: TAPRACE_DEBUG)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TAPRACE_PROFILE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TAPRACE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TAPRACE_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(append([]string{f.Name}, envAliases[f.Name]...)...)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("taprace v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
