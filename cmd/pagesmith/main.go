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
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/go-logr/logr"

	"github.com/NissesSenap/pagesmith/pkg/logging"
)

// CLI is the root command.
type CLI struct {
	Dev       bool `help:"Human-readable debug logging" env:"PAGESMITH_DEV"`
	Verbosity int  `help:"Highest log V-level to emit" short:"v" type:"counter"`

	Serve ServeCmd `cmd:"" default:"withargs" help:"Run the pagesmith service"`
	Check CheckCmd `cmd:"" help:"Validate the environment configuration and exit"`
}

func (c *CLI) logger() (logr.Logger, func(), error) {
	return logging.New(logging.Options{Development: c.Dev, Verbosity: c.Verbosity})
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pagesmith"),
		kong.Description("Builds static web apps from task briefs and publishes them to GitHub Pages."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "pagesmith: %v\n", err)
		os.Exit(1)
	}
}
