// yomiko is a Discord bot that transcribes romanized notation into
// phonetic output via YAML-defined rule sets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yomikobot/yomiko/pkg/bot"
	"github.com/yomikobot/yomiko/pkg/config"
	"github.com/yomikobot/yomiko/pkg/journal"
	"github.com/yomikobot/yomiko/pkg/logger"
	"github.com/yomikobot/yomiko/pkg/rules"
	"github.com/yomikobot/yomiko/pkg/store"
	"github.com/yomikobot/yomiko/pkg/transport"
)

func main() {
	configPath := flag.String("config", "yomiko.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "yomiko:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	// Rule loading is fail-fast: the bot never comes up on a partial store.
	ruleStore, err := rules.Load(cfg.RulesDir)
	if err != nil {
		return err
	}
	logger.InfoCF("main", "Rule sets loaded", map[string]interface{}{
		"count": ruleStore.Count(),
		"dir":   cfg.RulesDir,
	})

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	jr := journal.New(st)

	discord, err := transport.NewDiscord(cfg.Discord.Token)
	if err != nil {
		return err
	}

	b := bot.New(cfg, ruleStore, st, jr, discord)
	discord.Install(b.Handlers())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.StartStatusReport(ctx); err != nil {
		return err
	}

	if err := discord.Open(); err != nil {
		return err
	}
	defer discord.Close()

	logger.InfoC("main", "Connected, waiting for events")
	<-ctx.Done()
	logger.InfoC("main", "Shutting down")
	return nil
}
