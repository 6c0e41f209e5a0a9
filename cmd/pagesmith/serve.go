/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NissesSenap/pagesmith/pkg/pagesmith"
)

// ServeCmd runs the HTTP server and the worker pool.
type ServeCmd struct {
	Listen string `help:"Listen address, overrides LISTEN_ADDR"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	log, flush, err := cli.logger()
	if err != nil {
		return err
	}
	defer flush()

	cfg, err := pagesmith.LoadConfig()
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.ListenAddr = c.Listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := pagesmith.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := p.Run(ctx); err != nil {
		log.Error(err, "pagesmith stopped with error")
		return err
	}
	log.Info("pagesmith stopped")
	return nil
}

// CheckCmd validates the configuration without starting anything.
type CheckCmd struct{}

func (c *CheckCmd) Run(_ *CLI) error {
	cfg, err := pagesmith.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Printf("configuration ok: provider=%s mode=%s listen=%s\n", cfg.LLMProvider, cfg.ResponseMode, cfg.ListenAddr)
	return nil
}
